package domain

import (
	"regexp"
	"strings"
)

// Pagination limits
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(strings.ToLower(email)))
}

// Validate checks a pay plan row.
func (p *PayPlan) Validate() error {
	var errs ValidationErrors

	if !p.Amount.IsPositive() {
		errs.Add("amount", "must be greater than 0")
	}

	if p.InterestsPenalties.IsNegative() {
		errs.Add("interests_penalties", "must be greater than or equal to 0")
	}

	if p.PaymentDate.IsZero() {
		errs.Add("payment_date", "can't be blank")
	}

	if p.Email != "" && !ValidateEmail(p.Email) {
		errs.Add("email", "is invalid")
	}

	return errs.Err()
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
