package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PayPlan is one scheduled installment of a credit transaction.
type PayPlan struct {
	ID                 string
	TransactionID      string
	Amount             decimal.Decimal
	InterestsPenalties decimal.Decimal
	PaymentDate        time.Time
	AlertDate          time.Time
	Paid               bool
	CurrencyID         string
	Email              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Due returns the amount owed for the installment including interests.
func (p *PayPlan) Due() decimal.Decimal {
	return p.Amount.Add(p.InterestsPenalties)
}

// PayPlans is the installment set of a transaction.
type PayPlans []*PayPlan

// Sorted returns a copy ordered by payment date, ties broken by id.
func (pp PayPlans) Sorted() PayPlans {
	out := make(PayPlans, len(pp))
	copy(out, pp)

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.Before(out[j].PaymentDate)
		}

		return out[i].ID < out[j].ID
	})

	return out
}

// Unpaid returns the unpaid installments in allocation order.
func (pp PayPlans) Unpaid() PayPlans {
	var out PayPlans
	for _, p := range pp.Sorted() {
		if !p.Paid {
			out = append(out, p)
		}
	}

	return out
}

// FirstUnpaid returns the next installment due, or nil.
func (pp PayPlans) FirstUnpaid() *PayPlan {
	unpaid := pp.Unpaid()
	if len(unpaid) == 0 {
		return nil
	}

	return unpaid[0]
}

// Total sums the amounts of the installments.
func (pp PayPlans) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range pp {
		sum = sum.Add(p.Amount)
	}

	return sum
}

// Allocation is the outcome of applying one payment to a pay plan set.
type Allocation struct {
	// Paid holds the rows marked paid by this allocation, in walk order.
	Paid PayPlans
	// Current is the row the walk stopped at.
	Current *PayPlan
	// Leftover is the uncovered part split out of Current, unpaid and not yet persisted.
	Leftover *PayPlan
	// NextPaymentDate is the transaction's new due date. Zero when no row was visited.
	NextPaymentDate time.Time
	// Unallocated is what remains of the payment once every row is paid.
	Unallocated decimal.Decimal
}

// AllocatePayment walks the unpaid installments by payment date, marking
// each one paid until the payment is used up.
//
// When the payment runs out inside an installment, that installment keeps
// the covered part and a new unpaid row with the same dates, interests,
// email and currency carries the rest. Within one call the paid amounts add
// up to the payment exactly, minus Unallocated.
func AllocatePayment(plans PayPlans, amount decimal.Decimal) *Allocation {
	rows := plans.Unpaid()
	res := &Allocation{Unallocated: decimal.Zero}

	remaining := amount
	idx := -1

	for i, row := range rows {
		remaining = remaining.Sub(row.Amount)
		row.Paid = true
		res.Paid = append(res.Paid, row)
		res.Current = row
		idx = i

		if !remaining.IsPositive() {
			break
		}
	}

	if res.Current == nil {
		res.Unallocated = amount
		return res
	}

	current := res.Current

	switch {
	case remaining.IsZero():
		if idx+1 < len(rows) {
			res.NextPaymentDate = rows[idx+1].PaymentDate
		} else {
			res.NextPaymentDate = current.PaymentDate
		}
	case remaining.IsNegative():
		// The paid rows sum to amount and the leftover keeps the plan total unchanged.
		uncovered := remaining.Abs()
		current.Amount = current.Amount.Sub(uncovered)
		res.Leftover = &PayPlan{
			TransactionID:      current.TransactionID,
			Amount:             uncovered,
			InterestsPenalties: current.InterestsPenalties,
			PaymentDate:        current.PaymentDate,
			AlertDate:          current.AlertDate,
			Email:              current.Email,
			CurrencyID:         current.CurrencyID,
			Paid:               false,
		}
		res.NextPaymentDate = current.PaymentDate
	default:
		res.NextPaymentDate = current.PaymentDate
		res.Unallocated = remaining
	}

	return res
}
