package usecase

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/iho/accountledger/internal/usecase HistoryRecorder,TransactionLinker

import (
	"context"
	"time"

	"github.com/iho/accountledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByOriginalType returns the organization account of the given type.
	GetByOriginalType(ctx context.Context, originalType domain.AccountType) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// CurrencyRepository defines data access for currencies.
type CurrencyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Currency, error)
}

// LedgerRepository defines data access for ledger entries and their details.
type LedgerRepository interface {
	// Create inserts the entry together with its details.
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	// UpdateState writes the lifecycle fields of the entry and its details.
	UpdateState(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, filter domain.LedgerFilter, limit, offset int) ([]*domain.LedgerEntry, error)
	CountPending(ctx context.Context) (int64, error)
}

// TransactionRepository defines data access for financial transactions.
// Returned transactions carry their pay plans.
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	// UpdatePayment writes balance, state and payment date and bumps the version.
	UpdatePayment(ctx context.Context, tx Transaction, t *domain.Transaction) error
}

// PayPlanRepository defines data access for installments.
type PayPlanRepository interface {
	Create(ctx context.Context, tx Transaction, plan *domain.PayPlan) error
	// Update writes amount and paid.
	Update(ctx context.Context, tx Transaction, plan *domain.PayPlan) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// HistoryRepository defines data access for change histories.
type HistoryRepository interface {
	CreateTx(ctx context.Context, tx Transaction, history *domain.History) error
	ListByHistoriable(ctx context.Context, historiableType, historiableID string) ([]*domain.History, error)
}

// HistoryRecorder stores the diff of a record inside a storage transaction.
type HistoryRecorder interface {
	Record(ctx context.Context, tx Transaction, historiableType, historiableID string, data domain.HistoryData, actor domain.Actor) error
}

// TransactionLinker applies the transaction side of lifecycle transitions
// of entries that belong to a financial transaction.
type TransactionLinker interface {
	ConciliateLinkedEntry(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, actor domain.Actor) error
	NullLinkedEntry(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, actor domain.Actor) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier reruns an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
