package domain

import "github.com/shopspring/decimal"

// ConvertAmount multiplies amount by rate. A missing operand yields zero
// instead of an error.
func ConvertAmount(amount, rate decimal.NullDecimal) decimal.Decimal {
	if !amount.Valid || !rate.Valid {
		return decimal.Zero
	}

	return amount.Decimal.Mul(rate.Decimal)
}

// Rate wraps d as a present exchange rate.
func Rate(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// One is the identity exchange rate.
var One = decimal.NewFromInt(1)
