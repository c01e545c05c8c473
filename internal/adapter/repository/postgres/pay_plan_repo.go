package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

const payPlanColumns = `id, transaction_id, amount, interests_penalties, payment_date, alert_date,
	paid, currency_id, email, created_at, updated_at`

// PayPlanRepository implements usecase.PayPlanRepository.
type PayPlanRepository struct {
	db DBTX
}

// NewPayPlanRepository creates a new PayPlanRepository.
func NewPayPlanRepository(db DBTX) *PayPlanRepository {
	return &PayPlanRepository{db: db}
}

// Create inserts an installment within a transaction.
func (r *PayPlanRepository) Create(ctx context.Context, tx usecase.Transaction, plan *domain.PayPlan) error {
	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO pay_plans (`+payPlanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		plan.ID,
		plan.TransactionID,
		decimalToNumeric(plan.Amount),
		decimalToNumeric(plan.InterestsPenalties),
		timeToPgDate(plan.PaymentDate),
		timeToPgDate(plan.AlertDate),
		plan.Paid,
		plan.CurrencyID,
		plan.Email,
		timeToPgTimestamptz(plan.CreatedAt),
		timeToPgTimestamptz(plan.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert pay plan: %w", err)
	}

	return nil
}

// Update writes amount and paid.
func (r *PayPlanRepository) Update(ctx context.Context, tx usecase.Transaction, plan *domain.PayPlan) error {
	tag, err := txConn(tx).Exec(ctx, `
		UPDATE pay_plans SET amount = $2, paid = $3, updated_at = $4 WHERE id = $1`,
		plan.ID,
		decimalToNumeric(plan.Amount),
		plan.Paid,
		timeToPgTimestamptz(plan.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update pay plan: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrPayPlanNotFound
	}

	return nil
}

func (r *PayPlanRepository) listByTransaction(ctx context.Context, q DBTX, transactionID, lock string) (domain.PayPlans, error) {
	rows, err := q.Query(ctx, `
		SELECT `+payPlanColumns+` FROM pay_plans
		WHERE transaction_id = $1
		ORDER BY payment_date, id`+lock, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list pay plans: %w", err)
	}
	defer rows.Close()

	var plans domain.PayPlans

	for rows.Next() {
		var (
			p                  domain.PayPlan
			amount, interests  pgtype.Numeric
			paymentDate, alert pgtype.Date
		)

		err := rows.Scan(
			&p.ID,
			&p.TransactionID,
			&amount,
			&interests,
			&paymentDate,
			&alert,
			&p.Paid,
			&p.CurrencyID,
			&p.Email,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pay plan: %w", err)
		}

		p.Amount = numericToDecimal(amount)
		p.InterestsPenalties = numericToDecimal(interests)
		p.PaymentDate = pgDateToTime(paymentDate)
		p.AlertDate = pgDateToTime(alert)
		plans = append(plans, &p)
	}

	return plans, rows.Err()
}
