package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of financial transaction variants.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "Income"
	TransactionTypeExpense TransactionType = "Expense"
	TransactionTypeBuy     TransactionType = "Buy"
	TransactionTypeLoanin  TransactionType = "Loanin"
	TransactionTypeLoanout TransactionType = "Loanout"
)

// TransactionState is the lifecycle state of a transaction.
type TransactionState string

const (
	TransactionStateDraft    TransactionState = "draft"
	TransactionStateApproved TransactionState = "approved"
	TransactionStatePaid     TransactionState = "paid"
	TransactionStateNulled   TransactionState = "nulled"
)

// Transaction is a financial transaction (income, expense, purchase or loan)
// that payments are applied to.
type Transaction struct {
	ID          string
	AccountID   string
	Type        TransactionType
	State       TransactionState
	CurrencyID  string
	RefNumber   string
	Total       decimal.Decimal
	Balance     decimal.Decimal
	PaymentDate time.Time
	Credit      bool
	PayPlans    PayPlans
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCredit reports whether repayment is scheduled across pay plans.
func (t *Transaction) IsCredit() bool {
	return t.Credit
}

// AcceptsPayments reports whether a payment can be started.
func (t *Transaction) AcceptsPayments() bool {
	switch t.State {
	case TransactionStateDraft, TransactionStatePaid:
		return false
	}

	return true
}

// PaymentOperation returns the ledger operation of a payment for this
// transaction type.
func (t *Transaction) PaymentOperation() Operation {
	switch t.Type {
	case TransactionTypeIncome, TransactionTypeLoanout:
		return OperationIn
	case TransactionTypeExpense, TransactionTypeBuy, TransactionTypeLoanin:
		return OperationOut
	default:
		return ""
	}
}

// CounterAccountType is the original type of the organization account that
// receives the other side of a payment made from the transaction's account.
func (t *Transaction) CounterAccountType() AccountType {
	return AccountType(t.Type)
}

// paymentWording returns the pay verb and class noun for descriptions.
func (t *Transaction) paymentWording() (payType, class string) {
	switch t.Type {
	case TransactionTypeIncome:
		return "Collection", "income"
	case TransactionTypeExpense:
		return "Payment", "expense"
	case TransactionTypeBuy:
		return "Payment", "purchase"
	case TransactionTypeLoanin:
		return "Payment", "received loan"
	case TransactionTypeLoanout:
		return "Collection", "given loan"
	default:
		return "Payment", string(t.Type)
	}
}
