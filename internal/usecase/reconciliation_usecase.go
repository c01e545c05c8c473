package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase conciliates and nulls ledger entries.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	linker      TransactionLinker
	history     HistoryRecorder
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case. linker
// handles entries that belong to a financial transaction and must not be nil.
func NewReconciliationUseCase(
	txManager TransactionManager,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	linker TransactionLinker,
	history HistoryRecorder,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		linker:      linker,
		history:     history,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// Conciliate approves a pending entry. Conciliated and nulled entries are
// rejected and left untouched.
func (uc *ReconciliationUseCase) Conciliate(ctx context.Context, ledgerID string, actor domain.Actor) (*domain.LedgerEntry, error) {
	return uc.run(ctx, ledgerID, actor, domain.LedgerStateConciliated)
}

// Null reverses a pending entry. Conciliated and nulled entries are
// rejected and left untouched.
func (uc *ReconciliationUseCase) Null(ctx context.Context, ledgerID string, actor domain.Actor) (*domain.LedgerEntry, error) {
	return uc.run(ctx, ledgerID, actor, domain.LedgerStateNulled)
}

func (uc *ReconciliationUseCase) run(ctx context.Context, ledgerID string, actor domain.Actor, target domain.LedgerState) (*domain.LedgerEntry, error) {
	if err := actor.Authorize(domain.Role.CanApprove); err != nil {
		return nil, err
	}

	start := time.Now()

	var entry *domain.LedgerEntry
	op := func() error {
		e, err := uc.transition(ctx, ledgerID, actor, target)
		if err != nil {
			return err
		}
		entry = e

		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}

	if uc.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = errorReason(err)
		}
		uc.metrics.LedgerTransitions.WithLabelValues(string(target), outcome).Inc()
		uc.metrics.LedgerTransitionDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("ledger_id", ledgerID).
			Str("target", string(target)).
			Msg("ledger transition rejected")

		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("ledger_id", entry.ID).
		Str("state", string(entry.State())).
		Str("actor_id", actor.ID).
		Msg("ledger transition applied")

	return entry, nil
}

func (uc *ReconciliationUseCase) transition(ctx context.Context, ledgerID string, actor domain.Actor, target domain.LedgerState) (*domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Guards are evaluated on the locked row
	entry, err := uc.ledgerRepo.GetByIDForUpdate(txCtx, tx, ledgerID)
	if err != nil {
		return nil, err
	}
	before := entry.Clone()

	now := time.Now().UTC()

	var eventType string
	switch target {
	case domain.LedgerStateConciliated:
		if err := entry.Conciliate(actor, now); err != nil {
			return nil, err
		}
		if entry.IsLinked() {
			if err := uc.linker.ConciliateLinkedEntry(txCtx, tx, entry, actor); err != nil {
				return nil, err
			}
		}
		eventType = domain.EventTypeLedgerConciliated
	case domain.LedgerStateNulled:
		if err := entry.Null(actor, now); err != nil {
			return nil, err
		}
		if entry.IsLinked() {
			if err := uc.linker.NullLinkedEntry(txCtx, tx, entry, actor); err != nil {
				return nil, err
			}
		}
		eventType = domain.EventTypeLedgerNulled
	default:
		return nil, fmt.Errorf("unsupported ledger transition to %q", target)
	}

	entry.UpdatedAt = now
	if err := uc.ledgerRepo.UpdateState(txCtx, tx, entry); err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}

	if uc.history != nil {
		if err := uc.history.Record(txCtx, tx, domain.AggregateTypeLedger, entry.ID, domain.DiffLedgerEntry(before, entry), actor); err != nil {
			return nil, err
		}
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeLedger,
		EventType:     eventType,
		Payload:       domain.LedgerEventPayload(entry, actor.ID),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// AccountSummary totals an account's entries per state using the amounts
// as seen from that account.
type AccountSummary struct {
	AccountID        string
	Pending          decimal.Decimal
	Conciliated      decimal.Decimal
	Nulled           decimal.Decimal
	PendingCount     int
	ConciliatedCount int
	NulledCount      int
	// Balance is pending plus conciliated; nulled entries do not count.
	Balance     decimal.Decimal
	LastChecked time.Time
}

// SummarizeAccount walks every entry touching the account.
func (uc *ReconciliationUseCase) SummarizeAccount(ctx context.Context, accountID string) (*AccountSummary, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	s := &AccountSummary{
		AccountID:   accountID,
		Pending:     decimal.Zero,
		Conciliated: decimal.Zero,
		Nulled:      decimal.Zero,
	}

	for offset := 0; ; offset += summaryPageSize {
		entries, err := uc.ledgerRepo.ListByAccount(ctx, accountID, domain.FilterAll, summaryPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize account %s: %w", accountID, err)
		}

		for _, e := range entries {
			amount := e.SignedAmount(accountID)
			switch e.State() {
			case domain.LedgerStatePending:
				s.Pending = s.Pending.Add(amount)
				s.PendingCount++
			case domain.LedgerStateConciliated:
				s.Conciliated = s.Conciliated.Add(amount)
				s.ConciliatedCount++
			case domain.LedgerStateNulled:
				s.Nulled = s.Nulled.Add(amount)
				s.NulledCount++
			}
		}

		if len(entries) < summaryPageSize {
			break
		}
	}

	s.Balance = s.Pending.Add(s.Conciliated)
	s.LastChecked = time.Now().UTC()

	return s, nil
}
