package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Reference length bounds.
const (
	MinReferenceLength = 3
	MaxReferenceLength = 150
)

// LedgerState is derived from the Active and Conciliation flags.
type LedgerState string

const (
	LedgerStatePending     LedgerState = "pending"
	LedgerStateConciliated LedgerState = "conciliated"
	LedgerStateNulled      LedgerState = "nulled"
)

// DetailState mirrors the owning entry's state on each detail line.
type DetailState string

const (
	DetailStatePending DetailState = ""
	DetailStateCon     DetailState = "con"
	DetailStateNulled  DetailState = "nulled"
)

// LedgerDetail is a sub-line of a ledger entry.
type LedgerDetail struct {
	ID         string
	LedgerID   string
	AccountID  string
	CurrencyID string
	Amount     decimal.Decimal
	State      DetailState
	Active     bool
}

// LedgerEntry records a money movement from AccountID to ToID, or between an
// account and a financial transaction when TransactionID is set.
type LedgerEntry struct {
	ID                 string
	AccountID          string
	ToID               string
	TransactionID      string
	CurrencyID         string
	ExchangeRate       decimal.NullDecimal
	Amount             decimal.Decimal
	InterestsPenalties decimal.Decimal
	Operation          Operation
	Active             bool
	Conciliation       bool
	ApproverID         string
	ApproverAt         *time.Time
	NullerID           string
	NullerAt           *time.Time
	CreatorID          string
	Reference          string
	Description        string
	Date               time.Time
	Details            []*LedgerDetail
	IsPayment          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewLedgerEntry returns a pending entry.
func NewLedgerEntry() *LedgerEntry {
	return &LedgerEntry{Active: true}
}

// Validate checks the field rules every persisted entry satisfies.
func (e *LedgerEntry) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(e.AccountID) == "" {
		errs.Add("account_id", "can't be blank")
	}

	if strings.TrimSpace(e.ToID) == "" {
		errs.Add("to_id", "can't be blank")
	} else if e.ToID == e.AccountID {
		errs.Add("to_id", "must be different from account_id")
	}

	if strings.TrimSpace(e.CurrencyID) == "" {
		errs.Add("currency_id", "can't be blank")
	}

	if !e.Operation.IsValid() {
		errs.Add("operation", "is not included in the list")
	}

	if !e.Amount.IsPositive() {
		errs.Add("amount", "must be greater than 0")
	}

	if !e.ExchangeRate.Valid || !e.ExchangeRate.Decimal.IsPositive() {
		errs.Add("exchange_rate", "must be greater than 0")
	}

	n := utf8.RuneCountInString(strings.TrimSpace(e.Reference))
	if n < MinReferenceLength || n > MaxReferenceLength {
		errs.Add("reference", "length must be within 3..150 characters")
	}

	return errs.Err()
}

// MinDetails is the number of detail lines a balanced entry needs.
const MinDetails = 2

// ValidateDetails checks that the entry is double-sided and balanced: lines
// on the entry's own account are converted with ExchangeRate, and together
// with the counter lines they must sum to zero.
func (e *LedgerEntry) ValidateDetails() error {
	var errs ValidationErrors

	if len(e.Details) < MinDetails {
		errs.Add("details", "must have at least 2 lines")
		return errs.Err()
	}

	total := decimal.Zero
	for _, d := range e.Details {
		if d.AccountID == e.AccountID {
			total = total.Add(ConvertAmount(decimal.NewNullDecimal(d.Amount), e.ExchangeRate))
			continue
		}
		total = total.Add(d.Amount)
	}

	if !total.IsZero() {
		errs.Add("details", "amounts must balance to zero")
	}

	return errs.Err()
}

// State returns the lifecycle state.
func (e *LedgerEntry) State() LedgerState {
	switch {
	case !e.Active:
		return LedgerStateNulled
	case e.Conciliation:
		return LedgerStateConciliated
	default:
		return LedgerStatePending
	}
}

// IsLinked reports whether lifecycle transitions belong to a transaction.
func (e *LedgerEntry) IsLinked() bool {
	return e.TransactionID != ""
}

// CanConciliate reports whether the entry is pending.
func (e *LedgerEntry) CanConciliate() bool {
	return e.Active && !e.Conciliation
}

// CanNull reports whether the entry can be reversed.
func (e *LedgerEntry) CanNull() bool {
	return e.Active && !e.Conciliation
}

func (e *LedgerEntry) checkPending() error {
	if !e.Active {
		return ErrEntryNulled
	}

	if e.Conciliation {
		return ErrEntryConciliated
	}

	return nil
}

// Conciliate stamps the approver. Unlinked entries are marked conciliated
// together with their details; a linked entry is left for its transaction
// to mark. On error nothing is modified.
func (e *LedgerEntry) Conciliate(actor Actor, now time.Time) error {
	if err := e.checkPending(); err != nil {
		return err
	}

	e.ApproverAt = &now
	e.ApproverID = actor.ID

	if e.IsLinked() {
		return nil
	}

	e.MarkConciliated()

	return nil
}

// MarkConciliated sets the conciliation flag and every detail to con.
func (e *LedgerEntry) MarkConciliated() {
	for _, d := range e.Details {
		d.State = DetailStateCon
	}

	e.Conciliation = true
}

// Null reverses a pending entry and its details. On error nothing is modified.
func (e *LedgerEntry) Null(actor Actor, now time.Time) error {
	if err := e.checkPending(); err != nil {
		return err
	}

	e.NullerAt = &now
	e.NullerID = actor.ID
	e.Active = false

	for _, d := range e.Details {
		d.State = DetailStateNulled
		d.Active = false
	}

	return nil
}

// Direction returns "in" or "out" seen from account p, or "" when no rule
// applies. A counter account never sees "in".
func (e *LedgerEntry) Direction(p string) string {
	switch {
	case p == e.AccountID && e.Amount.IsPositive():
		return string(OperationIn)
	case p == e.AccountID && e.Amount.IsNegative():
		return string(OperationOut)
	case p == e.ToID && e.Amount.IsPositive():
		return string(OperationOut)
	}

	return ""
}

// SignedAmount returns the amount as seen from account p. The counter side
// sees the converted amount, negated.
func (e *LedgerEntry) SignedAmount(p string) decimal.Decimal {
	if p == e.AccountID {
		return e.Amount
	}

	return e.AmountInHomeCurrency().Neg()
}

// AmountInHomeCurrency converts Amount with ExchangeRate, zero if the rate is absent.
func (e *LedgerEntry) AmountInHomeCurrency() decimal.Decimal {
	return ConvertAmount(decimal.NewNullDecimal(e.Amount), e.ExchangeRate)
}

// RelatedKind tells what RelatedAccount points at.
type RelatedKind string

const (
	RelatedTransaction RelatedKind = "transaction"
	RelatedAccount     RelatedKind = "account"
)

// Related identifies the other party of an entry.
type Related struct {
	Kind RelatedKind
	ID   string
}

// RelatedAccount returns the linked transaction, or the counter party of p.
func (e *LedgerEntry) RelatedAccount(p string) Related {
	switch {
	case e.IsLinked():
		return Related{Kind: RelatedTransaction, ID: e.TransactionID}
	case p == e.AccountID:
		return Related{Kind: RelatedAccount, ID: e.ToID}
	default:
		return Related{Kind: RelatedAccount, ID: e.AccountID}
	}
}

// SelectedAccount returns the id of the side p is on.
func (e *LedgerEntry) SelectedAccount(p string) string {
	if p == e.AccountID {
		return e.AccountID
	}

	return e.ToID
}

// ShowExchangeRate reports whether both sides are known and use different currencies.
func (e *LedgerEntry) ShowExchangeRate(account, to *Account) bool {
	if account == nil || to == nil || e.ToID == "" {
		return false
	}

	return account.CurrencyID != to.CurrencyID
}

// PaymentLinkID returns the account a payment link should point at.
func (e *LedgerEntry) PaymentLinkID(account *Account) string {
	if account != nil && account.AccountableType == string(AccountTypeMoneyStore) {
		return e.AccountID
	}

	return e.ToID
}

// Clone returns a deep copy, used to diff before and after a transition.
func (e *LedgerEntry) Clone() *LedgerEntry {
	c := *e
	c.Details = make([]*LedgerDetail, len(e.Details))
	for i, d := range e.Details {
		dc := *d
		c.Details[i] = &dc
	}

	if e.ApproverAt != nil {
		t := *e.ApproverAt
		c.ApproverAt = &t
	}

	if e.NullerAt != nil {
		t := *e.NullerAt
		c.NullerAt = &t
	}

	return &c
}
