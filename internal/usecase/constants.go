package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// summaryPageSize is the page size used when walking all entries of an account
	summaryPageSize = 500

	// systemActorID is recorded when no actor is available, e.g. for scheduled jobs
	systemActorID = "system"
)
