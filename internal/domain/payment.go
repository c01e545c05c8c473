package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentParams are the caller-supplied values of a payment. Unset
// decimals fall back to the transaction defaults.
type PaymentParams struct {
	AccountID          string
	CurrencyID         string
	Amount             decimal.NullDecimal
	InterestsPenalties decimal.NullDecimal
	ExchangeRate       decimal.NullDecimal
	Reference          string
	Date               time.Time
}

// NewPayment builds an unsaved payment entry for the transaction. Draft and
// paid transactions do not accept payments.
func (t *Transaction) NewPayment(params PaymentParams, actor Actor) (*LedgerEntry, error) {
	if !t.AcceptsPayments() {
		return nil, ErrTransactionNotPayable
	}

	amount, interests, err := t.defaultPaymentAmount(params)
	if err != nil {
		return nil, err
	}

	e := NewLedgerEntry()
	e.TransactionID = t.ID
	e.AccountID = params.AccountID
	if e.AccountID == "" {
		e.AccountID = t.AccountID
	}

	e.CurrencyID = params.CurrencyID
	if e.CurrencyID == "" {
		e.CurrencyID = t.CurrencyID
	}

	e.Amount = amount
	e.InterestsPenalties = interests
	e.ExchangeRate = params.ExchangeRate
	e.Operation = t.PaymentOperation()
	e.Reference = params.Reference
	e.Date = params.Date
	e.CreatorID = actor.ID
	e.IsPayment = true

	return e, nil
}

func (t *Transaction) defaultPaymentAmount(params PaymentParams) (amount, interests decimal.Decimal, err error) {
	interests = decimal.Zero

	if t.IsCredit() {
		pp := t.PayPlans.FirstUnpaid()
		if pp == nil && !params.Amount.Valid {
			return decimal.Zero, decimal.Zero, ErrNoUnpaidPayPlan
		}

		if pp != nil {
			amount = pp.Due()
			interests = pp.InterestsPenalties
		}
	} else {
		amount = t.Balance
	}

	if params.Amount.Valid {
		amount = params.Amount.Decimal
	}

	if params.InterestsPenalties.Valid {
		interests = params.InterestsPenalties.Decimal
	}

	return amount, interests, nil
}

// DefaultExchangeRate forces a rate of one for home-currency postings on
// internal accounts. Contact accounts keep the supplied rate.
func (t *Transaction) DefaultExchangeRate(e *LedgerEntry, account *Account) {
	if account == nil {
		return
	}

	if account.CurrencyID == t.CurrencyID && !account.IsContact() {
		e.ExchangeRate = Rate(One)
	}
}

// PaymentAccounts are the accounts a payment is resolved against.
type PaymentAccounts struct {
	// Account is the account the payment is posted through.
	Account *Account
	// Counter is the organization account for the transaction type. It is
	// only consulted when the payment is posted through the transaction's
	// own account.
	Counter *Account
}

// PaymentResult describes the changes ApplyPayment made.
type PaymentResult struct {
	Entry           *LedgerEntry
	PreviousBalance decimal.Decimal
	Allocation      *Allocation
}

// ApplyPayment validates the payment against the transaction and applies it
// in memory: counter account, conciliation policy, pay plan allocation for
// credit transactions, then balance and state.
func (t *Transaction) ApplyPayment(e *LedgerEntry, accounts PaymentAccounts) (*PaymentResult, error) {
	if !e.IsPayment {
		return nil, ErrNotAPayment
	}

	if e.TransactionID != t.ID {
		return nil, ErrPaymentMismatch
	}

	if !t.AcceptsPayments() {
		return nil, ErrTransactionNotPayable
	}

	if e.Amount.GreaterThan(t.Balance) {
		return nil, ErrAmountExceedsBalance
	}

	if e.AccountID == t.AccountID {
		if accounts.Counter == nil {
			return nil, ErrAccountNotFound
		}
		e.ToID = accounts.Counter.ID
	} else {
		e.ToID = t.AccountID
	}

	e.Conciliation = accounts.Account.ConciliatesOnPayment()

	if err := e.Validate(); err != nil {
		return nil, err
	}

	res := &PaymentResult{Entry: e, PreviousBalance: t.Balance}

	if t.IsCredit() {
		res.Allocation = AllocatePayment(t.PayPlans, e.Amount)
		if !res.Allocation.NextPaymentDate.IsZero() {
			t.PaymentDate = res.Allocation.NextPaymentDate
		}
		if res.Allocation.Leftover != nil {
			res.Allocation.Leftover.TransactionID = t.ID
			t.PayPlans = append(t.PayPlans, res.Allocation.Leftover)
		}
	}

	t.Balance = t.Balance.Sub(e.Amount)
	if !t.Balance.IsPositive() {
		t.State = TransactionStatePaid
	}

	return res, nil
}

// PaymentDescription composes the entry description, e.g.
// "Collection of income I-1001, account Cash box". When the entry currency
// differs from the transaction currency the rate is appended.
func PaymentDescription(t *Transaction, e *LedgerEntry, account *Account, txCurrency, entryCurrency *Currency) string {
	payType, class := t.paymentWording()

	name := ""
	if account != nil {
		name = account.Name
	}

	txt := fmt.Sprintf("%s of %s %s, account %s", payType, class, t.RefNumber, name)

	if e.CurrencyID != t.CurrencyID {
		rate := decimal.Zero
		if e.ExchangeRate.Valid {
			rate = e.ExchangeRate.Decimal
		}
		txt += fmt.Sprintf(" exchange rate %s 1 = %s %s",
			currencySymbol(txCurrency), currencySymbol(entryCurrency), rate.StringFixed(2))
	}

	return txt
}

func currencySymbol(c *Currency) string {
	if c == nil {
		return ""
	}

	return c.Symbol
}

// RevertPayment gives the amount of a nulled payment entry back to the
// balance. A paid transaction with an outstanding balance is approved again.
func (t *Transaction) RevertPayment(e *LedgerEntry) {
	t.Balance = t.Balance.Add(e.Amount)

	if t.State == TransactionStatePaid && t.Balance.IsPositive() {
		t.State = TransactionStateApproved
	}
}
