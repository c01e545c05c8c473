package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

const transactionColumns = `id, account_id, type, state, currency_id, ref_number, total, balance,
	payment_date, credit, version, created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db       DBTX
	payPlans *PayPlanRepository
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db, payPlans: NewPayPlanRepository(db)}
}

// GetByID retrieves a transaction with its pay plans.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.get(ctx, r.db, id, "")
}

// GetByIDForUpdate retrieves a transaction and locks it with its pay plans.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return r.get(ctx, txConn(tx), id, " FOR UPDATE")
}

func (r *TransactionRepository) get(ctx context.Context, q DBTX, id, lock string) (*domain.Transaction, error) {
	t, err := scanTransaction(q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`+lock, id))
	if err != nil {
		return nil, err
	}

	t.PayPlans, err = r.payPlans.listByTransaction(ctx, q, t.ID, lock)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// UpdatePayment writes the payment columns and bumps the version.
func (r *TransactionRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	var version int64

	err := txConn(tx).QueryRow(ctx, `
		UPDATE transactions
		SET balance = $2, state = $3, payment_date = $4, updated_at = $5, version = version + 1
		WHERE id = $1
		RETURNING version`,
		t.ID,
		decimalToNumeric(t.Balance),
		string(t.State),
		timeToPgDate(t.PaymentDate),
		timeToPgTimestamptz(t.UpdatedAt),
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTransactionNotFound
		}

		return fmt.Errorf("update transaction payment: %w", err)
	}

	t.Version = version

	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t              domain.Transaction
		txType, state  string
		total, balance pgtype.Numeric
		paymentDate    pgtype.Date
	)

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&txType,
		&state,
		&t.CurrencyID,
		&t.RefNumber,
		&total,
		&balance,
		&paymentDate,
		&t.Credit,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = domain.TransactionType(txType)
	t.State = domain.TransactionState(state)
	t.Total = numericToDecimal(total)
	t.Balance = numericToDecimal(balance)
	t.PaymentDate = pgDateToTime(paymentDate)

	return &t, nil
}
