package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Every domain error matches exactly one of them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrBusinessRule = errors.New("business rule violation")
	ErrNotFound     = errors.New("not found")
)

var (
	// Lookup errors
	ErrAccountNotFound     = fmt.Errorf("%w: account", ErrNotFound)
	ErrLedgerNotFound      = fmt.Errorf("%w: ledger entry", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrCurrencyNotFound    = fmt.Errorf("%w: currency", ErrNotFound)
	ErrPayPlanNotFound     = fmt.Errorf("%w: pay plan", ErrNotFound)

	// Ledger state errors
	ErrEntryNotPending  = fmt.Errorf("%w: ledger entry is not pending", ErrBusinessRule)
	ErrEntryConciliated = fmt.Errorf("%w: ledger entry is already conciliated", ErrEntryNotPending)
	ErrEntryNulled      = fmt.Errorf("%w: ledger entry is nulled", ErrEntryNotPending)

	// Payment errors
	ErrAmountExceedsBalance  = fmt.Errorf("%w: payment amount exceeds transaction balance", ErrBusinessRule)
	ErrTransactionNotPayable = fmt.Errorf("%w: transaction does not accept payments", ErrBusinessRule)
	ErrNoUnpaidPayPlan       = fmt.Errorf("%w: credit transaction has no unpaid pay plan", ErrBusinessRule)
	ErrNotAPayment           = fmt.Errorf("%w: ledger entry was not built as a payment", ErrBusinessRule)
	ErrPaymentMismatch       = fmt.Errorf("%w: payment entry belongs to another transaction", ErrBusinessRule)
)

// ValidationError is a single field-scoped validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationErrors collects every failing field of a record.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}

	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

// Is makes ValidationErrors match ErrValidation.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a failure for field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// On returns the messages recorded for field.
func (v ValidationErrors) On(field string) []string {
	var out []string
	for _, e := range v {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}

	return out
}

// Err returns nil when nothing failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}

	return v
}
