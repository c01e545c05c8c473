package domain

import "time"

// Event types
const (
	EventTypeLedgerCreated     = "ledger.created"
	EventTypeLedgerConciliated = "ledger.conciliated"
	EventTypeLedgerNulled      = "ledger.nulled"
	EventTypePaymentCreated    = "payment.created"
)

// Aggregate types
const (
	AggregateTypeLedger      = "account_ledger"
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LedgerEventPayload is the payload of ledger lifecycle events.
func LedgerEventPayload(e *LedgerEntry, actorID string) map[string]any {
	return map[string]any{
		"ledger_id":      e.ID,
		"account_id":     e.AccountID,
		"to_id":          e.ToID,
		"transaction_id": e.TransactionID,
		"amount":         e.Amount.String(),
		"currency_id":    e.CurrencyID,
		"state":          string(e.State()),
		"actor_id":       actorID,
	}
}

// PaymentEventPayload is the payload of payment.created.
func PaymentEventPayload(t *Transaction, r *PaymentResult) map[string]any {
	p := map[string]any{
		"transaction_id":   t.ID,
		"ledger_id":        r.Entry.ID,
		"amount":           r.Entry.Amount.String(),
		"previous_balance": r.PreviousBalance.String(),
		"balance":          t.Balance.String(),
		"state":            string(t.State),
	}

	if r.Allocation != nil {
		ids := make([]string, 0, len(r.Allocation.Paid))
		for _, pp := range r.Allocation.Paid {
			ids = append(ids, pp.ID)
		}
		p["paid_pay_plans"] = ids
		if r.Allocation.Leftover != nil {
			p["leftover_pay_plan"] = r.Allocation.Leftover.ID
		}
	}

	return p
}
