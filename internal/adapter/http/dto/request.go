package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

const dateLayout = "2006-01-02"

// Date is a calendar day. It accepts "2006-01-02" or RFC 3339 input.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q", s)
		}
	}

	d.Time = t

	return nil
}

// MarshalJSON writes the day only.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) value() time.Time {
	if d == nil {
		return time.Time{}
	}

	return d.Time
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(*d)
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name            string `json:"name"`
	CurrencyID      string `json:"currency_id"`
	OriginalType    string `json:"original_type"`
	AccountableType string `json:"accountable_type"`
	AccountableID   string `json:"accountable_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:            r.Name,
		CurrencyID:      r.CurrencyID,
		OriginalType:    domain.AccountType(r.OriginalType),
		AccountableType: r.AccountableType,
		AccountableID:   r.AccountableID,
	}
}

// CreateLedgerRequest records a manual entry between two accounts.
type CreateLedgerRequest struct {
	AccountID          string           `json:"account_id"`
	ToID               string           `json:"to_id"`
	CurrencyID         string           `json:"currency_id,omitempty"`
	Amount             decimal.Decimal  `json:"amount"`
	InterestsPenalties decimal.Decimal  `json:"interests_penalties"`
	ExchangeRate       *decimal.Decimal `json:"exchange_rate,omitempty"`
	Operation          string           `json:"operation"`
	Reference          string           `json:"reference"`
	Description        string           `json:"description,omitempty"`
	Date               *Date            `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLedgerRequest) ToUseCaseInput() usecase.CreateEntryInput {
	return usecase.CreateEntryInput{
		AccountID:          r.AccountID,
		ToID:               r.ToID,
		CurrencyID:         r.CurrencyID,
		Amount:             r.Amount,
		InterestsPenalties: r.InterestsPenalties,
		ExchangeRate:       nullDecimal(r.ExchangeRate),
		Operation:          domain.Operation(strings.ToLower(r.Operation)),
		Reference:          r.Reference,
		Description:        r.Description,
		Date:               r.Date.value(),
	}
}

// CreatePaymentRequest pays into a transaction. Omitted amounts and rates
// take the transaction defaults.
type CreatePaymentRequest struct {
	AccountID          string           `json:"account_id"`
	CurrencyID         string           `json:"currency_id,omitempty"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	InterestsPenalties *decimal.Decimal `json:"interests_penalties,omitempty"`
	ExchangeRate       *decimal.Decimal `json:"exchange_rate,omitempty"`
	Reference          string           `json:"reference"`
	Date               *Date            `json:"date,omitempty"`
}

// ToPaymentParams converts to domain payment params.
func (r *CreatePaymentRequest) ToPaymentParams() domain.PaymentParams {
	return domain.PaymentParams{
		AccountID:          r.AccountID,
		CurrencyID:         r.CurrencyID,
		Amount:             nullDecimal(r.Amount),
		InterestsPenalties: nullDecimal(r.InterestsPenalties),
		ExchangeRate:       nullDecimal(r.ExchangeRate),
		Reference:          r.Reference,
		Date:               r.Date.value(),
	}
}
