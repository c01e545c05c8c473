package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/infrastructure/metrics"
)

// LedgerUseCase records and queries ledger entries.
type LedgerUseCase struct {
	txManager   TransactionManager
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	historyRepo HistoryRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	historyRepo HistoryRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		historyRepo: historyRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// LedgersFor lists the entries where the account is either side,
// restricted by filter, newest first.
func (uc *LedgerUseCase) LedgersFor(ctx context.Context, accountID string, filter domain.LedgerFilter, limit, offset int) ([]*domain.LedgerEntry, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	if filter == "" {
		filter = domain.FilterAll
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.ledgerRepo.ListByAccount(ctx, accountID, filter, limit, offset)
}

// GetLedger retrieves an entry with its details.
func (uc *LedgerUseCase) GetLedger(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.ledgerRepo.GetByID(ctx, id)
}

// HasPending reports whether any active entry still awaits conciliation.
func (uc *LedgerUseCase) HasPending(ctx context.Context) (bool, error) {
	n, err := uc.ledgerRepo.CountPending(ctx)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// History returns the stored diffs of an entry, oldest first.
func (uc *LedgerUseCase) History(ctx context.Context, id string) ([]*domain.History, error) {
	if _, err := uc.ledgerRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	return uc.historyRepo.ListByHistoriable(ctx, domain.AggregateTypeLedger, id)
}

// CreateEntryInput represents input for recording a manual entry.
type CreateEntryInput struct {
	AccountID          string
	ToID               string
	CurrencyID         string
	Amount             decimal.Decimal
	InterestsPenalties decimal.Decimal
	ExchangeRate       decimal.NullDecimal
	Operation          domain.Operation
	Reference          string
	Description        string
	Date               time.Time
}

// CreateEntry records a pending entry between two accounts. The currency
// defaults to the account currency and a same-currency entry without a
// rate gets a rate of one.
func (uc *LedgerUseCase) CreateEntry(ctx context.Context, input CreateEntryInput, actor domain.Actor) (*domain.LedgerEntry, error) {
	if err := actor.Authorize(domain.Role.CanPost); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	entry := domain.NewLedgerEntry()
	entry.AccountID = input.AccountID
	entry.ToID = input.ToID
	entry.CurrencyID = input.CurrencyID
	if entry.CurrencyID == "" {
		entry.CurrencyID = account.CurrencyID
	}
	entry.Amount = input.Amount
	entry.InterestsPenalties = input.InterestsPenalties
	entry.ExchangeRate = input.ExchangeRate
	if !entry.ExchangeRate.Valid && entry.CurrencyID == account.CurrencyID {
		entry.ExchangeRate = domain.Rate(domain.One)
	}
	entry.Operation = input.Operation
	entry.Reference = strings.TrimSpace(input.Reference)
	entry.Description = input.Description
	entry.Date = input.Date
	entry.CreatorID = actor.ID

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	to, err := uc.accountRepo.GetByID(ctx, entry.ToID)
	if err != nil {
		return nil, fmt.Errorf("counter account: %w", err)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.Details = buildDetails(entry, to.CurrencyID, uc.idGen)
	if err := entry.ValidateDetails(); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(txCtx, tx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeLedger,
		EventType:     domain.EventTypeLedgerCreated,
		Payload:       domain.LedgerEventPayload(entry, actor.ID),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgersCreated.Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("ledger_id", entry.ID).
		Str("account_id", entry.AccountID).
		Str("to_id", entry.ToID).
		Str("amount", entry.Amount.String()).
		Msg("ledger entry created")

	return entry, nil
}
