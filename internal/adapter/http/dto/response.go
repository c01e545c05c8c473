package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

// AccountResponse represents an account in API responses. Contact accounts
// belong to a client, supplier or staff member; ConciliatesOnPayment tells
// whether payments through the account skip the pending state.
type AccountResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	CurrencyID           string    `json:"currency_id"`
	OriginalType         string    `json:"original_type"`
	AccountableType      string    `json:"accountable_type,omitempty"`
	AccountableID        string    `json:"accountable_id,omitempty"`
	Contact              bool      `json:"contact"`
	ConciliatesOnPayment bool      `json:"conciliates_on_payment"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		CurrencyID:           a.CurrencyID,
		OriginalType:         string(a.OriginalType),
		AccountableType:      a.AccountableType,
		AccountableID:        a.AccountableID,
		Contact:              a.IsContact(),
		ConciliatesOnPayment: a.ConciliatesOnPayment(),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// LedgerDetailResponse is one detail line.
type LedgerDetailResponse struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	CurrencyID string          `json:"currency_id"`
	Amount     decimal.Decimal `json:"amount"`
	State      string          `json:"state"`
	Active     bool            `json:"active"`
}

// RelatedResponse names the other party of an entry.
type RelatedResponse struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// LedgerResponse represents a ledger entry. The account-relative fields are
// set when the entry is listed for an account.
type LedgerResponse struct {
	ID                 string                  `json:"id"`
	AccountID          string                  `json:"account_id"`
	ToID               string                  `json:"to_id"`
	TransactionID      string                  `json:"transaction_id,omitempty"`
	CurrencyID         string                  `json:"currency_id"`
	Amount             decimal.Decimal         `json:"amount"`
	InterestsPenalties decimal.Decimal         `json:"interests_penalties"`
	ExchangeRate       decimal.NullDecimal     `json:"exchange_rate"`
	AmountCurrency     decimal.Decimal         `json:"amount_currency"`
	Operation          string                  `json:"operation"`
	State              string                  `json:"state"`
	Reference          string                  `json:"reference"`
	Description        string                  `json:"description,omitempty"`
	Date               Date                    `json:"date"`
	IsPayment          bool                    `json:"is_payment"`
	CreatorID          string                  `json:"creator_id,omitempty"`
	ApproverID         string                  `json:"approver_id,omitempty"`
	ApproverAt         *time.Time              `json:"approver_datetime,omitempty"`
	NullerID           string                  `json:"nuller_id,omitempty"`
	NullerAt           *time.Time              `json:"nuller_datetime,omitempty"`
	Details            []*LedgerDetailResponse `json:"details"`
	Direction          string                  `json:"direction,omitempty"`
	SignedAmount       *decimal.Decimal        `json:"signed_amount,omitempty"`
	SelectedAccount    string                  `json:"selected_account,omitempty"`
	Related            *RelatedResponse        `json:"related,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// LedgerFromDomain converts an entry to a response.
func LedgerFromDomain(e *domain.LedgerEntry) *LedgerResponse {
	details := make([]*LedgerDetailResponse, len(e.Details))
	for i, d := range e.Details {
		details[i] = &LedgerDetailResponse{
			ID:         d.ID,
			AccountID:  d.AccountID,
			CurrencyID: d.CurrencyID,
			Amount:     d.Amount,
			State:      string(d.State),
			Active:     d.Active,
		}
	}

	return &LedgerResponse{
		ID:                 e.ID,
		AccountID:          e.AccountID,
		ToID:               e.ToID,
		TransactionID:      e.TransactionID,
		CurrencyID:         e.CurrencyID,
		Amount:             e.Amount,
		InterestsPenalties: e.InterestsPenalties,
		ExchangeRate:       e.ExchangeRate,
		AmountCurrency:     e.AmountInHomeCurrency(),
		Operation:          string(e.Operation),
		State:              string(e.State()),
		Reference:          e.Reference,
		Description:        e.Description,
		Date:               Date{e.Date},
		IsPayment:          e.IsPayment,
		CreatorID:          e.CreatorID,
		ApproverID:         e.ApproverID,
		ApproverAt:         e.ApproverAt,
		NullerID:           e.NullerID,
		NullerAt:           e.NullerAt,
		Details:            details,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

// LedgerForAccount adds the view of accountID to the response.
func LedgerForAccount(e *domain.LedgerEntry, accountID string) *LedgerResponse {
	r := LedgerFromDomain(e)
	signed := e.SignedAmount(accountID)
	related := e.RelatedAccount(accountID)

	r.Direction = e.Direction(accountID)
	r.SignedAmount = &signed
	r.Related = &RelatedResponse{Kind: string(related.Kind), ID: related.ID}
	r.SelectedAccount = e.SelectedAccount(accountID)

	return r
}

// ListLedgersResponse is a page of entries for one account.
type ListLedgersResponse struct {
	AccountID string            `json:"account_id"`
	Filter    string            `json:"filter"`
	Ledgers   []*LedgerResponse `json:"ledgers"`
}

// LedgersForAccount converts a page of entries seen from accountID.
func LedgersForAccount(entries []*domain.LedgerEntry, accountID string, filter domain.LedgerFilter) *ListLedgersResponse {
	out := make([]*LedgerResponse, len(entries))
	for i, e := range entries {
		out[i] = LedgerForAccount(e, accountID)
	}

	return &ListLedgersResponse{AccountID: accountID, Filter: string(filter), Ledgers: out}
}

// PayPlanResponse is an installment touched by a payment.
type PayPlanResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate Date            `json:"payment_date"`
	Paid        bool            `json:"paid"`
}

// PaymentResponse is the outcome of a payment.
type PaymentResponse struct {
	Ledger          *LedgerResponse    `json:"ledger"`
	PreviousBalance decimal.Decimal    `json:"previous_balance"`
	PaidPayPlans    []*PayPlanResponse `json:"paid_pay_plans,omitempty"`
	LeftoverPayPlan *PayPlanResponse   `json:"leftover_pay_plan,omitempty"`
	Unallocated     *decimal.Decimal   `json:"unallocated,omitempty"`
}

func payPlanFromDomain(p *domain.PayPlan) *PayPlanResponse {
	return &PayPlanResponse{ID: p.ID, Amount: p.Amount, PaymentDate: Date{p.PaymentDate}, Paid: p.Paid}
}

// PaymentFromDomain converts a payment result.
func PaymentFromDomain(r *domain.PaymentResult) *PaymentResponse {
	resp := &PaymentResponse{
		Ledger:          LedgerFromDomain(r.Entry),
		PreviousBalance: r.PreviousBalance,
	}

	if a := r.Allocation; a != nil {
		for _, p := range a.Paid {
			resp.PaidPayPlans = append(resp.PaidPayPlans, payPlanFromDomain(p))
		}
		if a.Leftover != nil {
			resp.LeftoverPayPlan = payPlanFromDomain(a.Leftover)
		}
		if a.Unallocated.IsPositive() {
			u := a.Unallocated
			resp.Unallocated = &u
		}
	}

	return resp
}

// AccountSummaryResponse totals an account's entries by state.
type AccountSummaryResponse struct {
	AccountID        string          `json:"account_id"`
	Pending          decimal.Decimal `json:"pending"`
	Conciliated      decimal.Decimal `json:"conciliated"`
	Nulled           decimal.Decimal `json:"nulled"`
	PendingCount     int             `json:"pending_count"`
	ConciliatedCount int             `json:"conciliated_count"`
	NulledCount      int             `json:"nulled_count"`
	Balance          decimal.Decimal `json:"balance"`
	LastChecked      time.Time       `json:"last_checked"`
}

// SummaryFromUseCase converts an account summary.
func SummaryFromUseCase(s *usecase.AccountSummary) *AccountSummaryResponse {
	return &AccountSummaryResponse{
		AccountID:        s.AccountID,
		Pending:          s.Pending,
		Conciliated:      s.Conciliated,
		Nulled:           s.Nulled,
		PendingCount:     s.PendingCount,
		ConciliatedCount: s.ConciliatedCount,
		NulledCount:      s.NulledCount,
		Balance:          s.Balance,
		LastChecked:      s.LastChecked,
	}
}

// HistoryResponse is one stored change.
type HistoryResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Data      domain.HistoryData `json:"data"`
	CreatedAt time.Time          `json:"created_at"`
}

// HistoriesFromDomain converts histories.
func HistoriesFromDomain(histories []*domain.History) []*HistoryResponse {
	out := make([]*HistoryResponse, len(histories))
	for i, h := range histories {
		out[i] = &HistoryResponse{ID: h.ID, UserID: h.UserID, Data: h.Data, CreatedAt: h.CreatedAt}
	}
	return out
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
