package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/infrastructure/metrics"
)

// PaymentUseCase builds and saves payments of financial transactions.
type PaymentUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	payPlanRepo     PayPlanRepository
	ledgerRepo      LedgerRepository
	accountRepo     AccountRepository
	currencyRepo    CurrencyRepository
	outboxRepo      OutboxRepository
	history         HistoryRecorder
	retrier         Retrier
	idGen           IDGenerator
	metrics         *metrics.Metrics
}

func NewPaymentUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	payPlanRepo PayPlanRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	currencyRepo CurrencyRepository,
	outboxRepo OutboxRepository,
	history HistoryRecorder,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		payPlanRepo:     payPlanRepo,
		ledgerRepo:      ledgerRepo,
		accountRepo:     accountRepo,
		currencyRepo:    currencyRepo,
		outboxRepo:      outboxRepo,
		history:         history,
		retrier:         retrier,
		idGen:           idGen,
		metrics:         metrics,
	}
}

// NewPayment returns an unsaved payment entry for the transaction with the
// amount, operation, currency and exchange rate defaults filled in.
func (uc *PaymentUseCase) NewPayment(ctx context.Context, transactionID string, params domain.PaymentParams, actor domain.Actor) (*domain.LedgerEntry, error) {
	t, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	entry, err := t.NewPayment(params, actor)
	if err != nil {
		return nil, err
	}

	if !entry.ExchangeRate.Valid {
		account, err := uc.accountRepo.GetByID(ctx, entry.AccountID)
		if err != nil {
			return nil, err
		}
		t.DefaultExchangeRate(entry, account)
	}

	return entry, nil
}

// CreatePayment builds and saves a payment in one call.
func (uc *PaymentUseCase) CreatePayment(ctx context.Context, transactionID string, params domain.PaymentParams, actor domain.Actor) (*domain.PaymentResult, error) {
	if err := actor.Authorize(domain.Role.CanPost); err != nil {
		return nil, err
	}

	entry, err := uc.NewPayment(ctx, transactionID, params, actor)
	if err != nil {
		uc.countError(err)
		return nil, err
	}

	return uc.SavePayment(ctx, transactionID, entry, actor)
}

// SavePayment applies entry to the transaction and persists the entry, the
// pay plan changes and the transaction in one storage transaction. The
// balance check runs against the locked transaction row.
func (uc *PaymentUseCase) SavePayment(ctx context.Context, transactionID string, entry *domain.LedgerEntry, actor domain.Actor) (*domain.PaymentResult, error) {
	if err := actor.Authorize(domain.Role.CanPost); err != nil {
		return nil, err
	}

	start := time.Now()

	var (
		result  *domain.PaymentResult
		updated *domain.Transaction
	)

	op := func() error {
		// retries start from the caller's entry, not a half-applied copy
		e := entry.Clone()

		r, t, err := uc.savePayment(ctx, transactionID, e, actor)
		if err != nil {
			return err
		}

		result, updated = r, t

		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}

	if err != nil {
		uc.countError(err)
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("transaction_id", transactionID).
			Str("amount", entry.Amount.String()).
			Msg("payment rejected")

		return nil, err
	}

	*entry = *result.Entry

	if uc.metrics != nil {
		uc.metrics.PaymentsCreated.Inc()
		uc.metrics.PaymentDuration.Observe(time.Since(start).Seconds())
		uc.metrics.PaymentAmount.Observe(entry.Amount.InexactFloat64())
		if result.Allocation != nil && result.Allocation.Leftover != nil {
			uc.metrics.PayPlansSplit.Inc()
		}
		if updated.State == domain.TransactionStatePaid {
			uc.metrics.TransactionsPaid.Inc()
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("transaction_id", transactionID).
		Str("ledger_id", entry.ID).
		Str("amount", entry.Amount.String()).
		Str("balance", updated.Balance.String()).
		Str("state", string(updated.State)).
		Msg("payment saved")

	return result, nil
}

func (uc *PaymentUseCase) savePayment(ctx context.Context, transactionID string, entry *domain.LedgerEntry, actor domain.Actor) (*domain.PaymentResult, *domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	t, err := uc.transactionRepo.GetByIDForUpdate(txCtx, tx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	before := t.Clone()

	account, err := uc.accountRepo.GetByID(txCtx, entry.AccountID)
	if err != nil {
		return nil, nil, err
	}

	accounts := domain.PaymentAccounts{Account: account}
	if entry.AccountID == t.AccountID {
		counter, err := uc.accountRepo.GetByOriginalType(txCtx, t.CounterAccountType())
		if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil, err
		}
		accounts.Counter = counter
	}

	if !entry.ExchangeRate.Valid {
		t.DefaultExchangeRate(entry, account)
	}

	result, err := t.ApplyPayment(entry, accounts)
	if err != nil {
		return nil, nil, err
	}

	if entry.Description == "" {
		entry.Description, err = uc.describe(txCtx, t, entry, account)
		if err != nil {
			return nil, nil, err
		}
	}

	now := time.Now().UTC()
	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Date.IsZero() {
		entry.Date = now
	}
	if entry.Conciliation {
		entry.ApproverID = actor.ID
		entry.ApproverAt = &now
	}

	var counterCurrency string
	if accounts.Counter != nil && entry.ToID == accounts.Counter.ID {
		counterCurrency = accounts.Counter.CurrencyID
	} else {
		counterCurrency = t.CurrencyID
	}
	entry.Details = buildDetails(entry, counterCurrency, uc.idGen)
	if err := entry.ValidateDetails(); err != nil {
		return nil, nil, err
	}

	if err := uc.ledgerRepo.Create(txCtx, tx, entry); err != nil {
		return nil, nil, fmt.Errorf("create payment entry: %w", err)
	}

	if result.Allocation != nil {
		for _, pp := range result.Allocation.Paid {
			pp.UpdatedAt = now
			if err := uc.payPlanRepo.Update(txCtx, tx, pp); err != nil {
				return nil, nil, fmt.Errorf("update pay plan %s: %w", pp.ID, err)
			}
		}

		if leftover := result.Allocation.Leftover; leftover != nil {
			leftover.ID = uc.idGen.Generate()
			leftover.CreatedAt = now
			leftover.UpdatedAt = now
			if err := uc.payPlanRepo.Create(txCtx, tx, leftover); err != nil {
				return nil, nil, fmt.Errorf("create leftover pay plan: %w", err)
			}
		}
	}

	t.UpdatedAt = now
	if err := uc.transactionRepo.UpdatePayment(txCtx, tx, t); err != nil {
		return nil, nil, fmt.Errorf("update transaction: %w", err)
	}

	if uc.history != nil {
		diff := domain.DiffTransaction(before, t)
		if err := uc.history.Record(txCtx, tx, domain.AggregateTypeTransaction, t.ID, diff, actor); err != nil {
			return nil, nil, err
		}
	}

	events := []*domain.OutboxEvent{
		{
			ID:            uc.idGen.Generate(),
			AggregateID:   entry.ID,
			AggregateType: domain.AggregateTypeLedger,
			EventType:     domain.EventTypeLedgerCreated,
			Payload:       domain.LedgerEventPayload(entry, actor.ID),
			CreatedAt:     now,
		},
		{
			ID:            uc.idGen.Generate(),
			AggregateID:   t.ID,
			AggregateType: domain.AggregateTypeTransaction,
			EventType:     domain.EventTypePaymentCreated,
			Payload:       domain.PaymentEventPayload(t, result),
			CreatedAt:     now,
		},
	}
	for _, event := range events {
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	return result, t, nil
}

// describe composes the default description. Missing currencies only drop
// the symbols.
func (uc *PaymentUseCase) describe(ctx context.Context, t *domain.Transaction, entry *domain.LedgerEntry, account *domain.Account) (string, error) {
	var txCurrency, entryCurrency *domain.Currency

	if entry.CurrencyID != t.CurrencyID && uc.currencyRepo != nil {
		var err error
		if txCurrency, err = uc.lookupCurrency(ctx, t.CurrencyID); err != nil {
			return "", err
		}
		if entryCurrency, err = uc.lookupCurrency(ctx, entry.CurrencyID); err != nil {
			return "", err
		}
	}

	return domain.PaymentDescription(t, entry, account, txCurrency, entryCurrency), nil
}

func (uc *PaymentUseCase) lookupCurrency(ctx context.Context, id string) (*domain.Currency, error) {
	c, err := uc.currencyRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrCurrencyNotFound) {
		return nil, nil
	}

	return c, err
}

func (uc *PaymentUseCase) countError(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.PaymentErrors.WithLabelValues(errorReason(err)).Inc()
}

// buildDetails returns one detail line per side of the entry. The counter
// side carries the converted amount, negated.
func buildDetails(e *domain.LedgerEntry, counterCurrency string, idGen IDGenerator) []*domain.LedgerDetail {
	state := domain.DetailStatePending
	if e.Conciliation {
		state = domain.DetailStateCon
	}

	return []*domain.LedgerDetail{
		{
			ID:         idGen.Generate(),
			LedgerID:   e.ID,
			AccountID:  e.AccountID,
			CurrencyID: e.CurrencyID,
			Amount:     e.Amount,
			State:      state,
			Active:     true,
		},
		{
			ID:         idGen.Generate(),
			LedgerID:   e.ID,
			AccountID:  e.ToID,
			CurrencyID: counterCurrency,
			Amount:     e.AmountInHomeCurrency().Neg(),
			State:      state,
			Active:     true,
		},
	}
}

// errorReason maps an error to a low-cardinality metric label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrAmountExceedsBalance):
		return "exceeds_balance"
	case errors.Is(err, domain.ErrTransactionNotPayable):
		return "not_payable"
	case errors.Is(err, domain.ErrEntryNotPending):
		return "not_pending"
	case errors.Is(err, domain.ErrBusinessRule):
		return "business_rule"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrMissingActor), errors.Is(err, domain.ErrInsufficientRole):
		return "forbidden"
	default:
		return "internal"
	}
}
