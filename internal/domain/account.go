package domain

import "time"

// AccountType is the original type of an account. Organization accounts that
// receive the counter side of a payment carry the transaction type name.
type AccountType string

const (
	AccountTypeBank       AccountType = "Bank"
	AccountTypeCash       AccountType = "Cash"
	AccountTypeClient     AccountType = "Client"
	AccountTypeSupplier   AccountType = "Supplier"
	AccountTypeStaff      AccountType = "Staff"
	AccountTypeMoneyStore AccountType = "MoneyStore"
	AccountTypeIncome     AccountType = "Income"
	AccountTypeExpense    AccountType = "Expense"
	AccountTypeBuy        AccountType = "Buy"
	AccountTypeLoanin     AccountType = "Loanin"
	AccountTypeLoanout    AccountType = "Loanout"
)

// Account is an account entries are posted to.
type Account struct {
	ID              string
	Name            string
	CurrencyID      string
	OriginalType    AccountType
	AccountableType string
	AccountableID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsContact reports whether the account belongs to a client, supplier or staff member.
func (a *Account) IsContact() bool {
	if a == nil {
		return false
	}

	switch a.OriginalType {
	case AccountTypeClient, AccountTypeSupplier, AccountTypeStaff:
		return true
	}

	return false
}

// ConciliatesOnPayment reports whether a payment posted through this account
// is conciliated immediately. Bank movements wait for the bank statement.
func (a *Account) ConciliatesOnPayment() bool {
	if a == nil {
		return false
	}

	switch a.OriginalType {
	case AccountTypeCash, AccountTypeClient, AccountTypeSupplier, AccountTypeStaff:
		return true
	default:
		return false
	}
}
