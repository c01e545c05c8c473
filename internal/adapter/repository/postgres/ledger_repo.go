package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

const ledgerColumns = `id, account_id, to_id, transaction_id, currency_id, exchange_rate, amount,
	interests_penalties, operation, active, conciliation, approver_id, approver_at,
	nuller_id, nuller_at, creator_id, reference, description, date, is_payment,
	created_at, updated_at`

const detailColumns = `id, account_ledger_id, account_id, currency_id, amount, state, active`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create inserts the entry and its details within a transaction.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	q := txConn(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO account_ledgers (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		entry.ID,
		entry.AccountID,
		entry.ToID,
		textOrNull(entry.TransactionID),
		entry.CurrencyID,
		nullDecimalToNumeric(entry.ExchangeRate),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.InterestsPenalties),
		string(entry.Operation),
		entry.Active,
		entry.Conciliation,
		textOrNull(entry.ApproverID),
		timePtrToPgTimestamptz(entry.ApproverAt),
		textOrNull(entry.NullerID),
		timePtrToPgTimestamptz(entry.NullerAt),
		textOrNull(entry.CreatorID),
		entry.Reference,
		entry.Description,
		timeToPgDate(entry.Date),
		entry.IsPayment,
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	for _, d := range entry.Details {
		_, err := q.Exec(ctx, `
			INSERT INTO account_ledger_details (`+detailColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			d.ID,
			entry.ID,
			d.AccountID,
			d.CurrencyID,
			decimalToNumeric(d.Amount),
			string(d.State),
			d.Active,
		)
		if err != nil {
			return fmt.Errorf("insert ledger detail: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an entry with its details.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return r.get(ctx, r.db, id, "")
}

// GetByIDForUpdate retrieves an entry and locks it together with its details.
func (r *LedgerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return r.get(ctx, txConn(tx), id, " FOR UPDATE")
}

func (r *LedgerRepository) get(ctx context.Context, q DBTX, id, lock string) (*domain.LedgerEntry, error) {
	row := q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM account_ledgers WHERE id = $1`+lock, id)

	entry, err := scanLedgerEntry(row)
	if err != nil {
		return nil, err
	}

	details, err := r.details(ctx, q, []string{entry.ID}, lock)
	if err != nil {
		return nil, err
	}

	entry.Details = details[entry.ID]

	return entry, nil
}

// UpdateState writes the lifecycle columns of the entry and its details.
func (r *LedgerRepository) UpdateState(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	q := txConn(tx)

	tag, err := q.Exec(ctx, `
		UPDATE account_ledgers
		SET active = $2, conciliation = $3, approver_id = $4, approver_at = $5,
			nuller_id = $6, nuller_at = $7, updated_at = $8
		WHERE id = $1`,
		entry.ID,
		entry.Active,
		entry.Conciliation,
		textOrNull(entry.ApproverID),
		timePtrToPgTimestamptz(entry.ApproverAt),
		textOrNull(entry.NullerID),
		timePtrToPgTimestamptz(entry.NullerAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerNotFound
	}

	for _, d := range entry.Details {
		_, err := q.Exec(ctx, `UPDATE account_ledger_details SET state = $2, active = $3 WHERE id = $1`,
			d.ID, string(d.State), d.Active)
		if err != nil {
			return fmt.Errorf("update ledger detail: %w", err)
		}
	}

	return nil
}

// ListByAccount returns entries on either side of the account, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, filter domain.LedgerFilter, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+ledgerColumns+` FROM account_ledgers
		WHERE (account_id = $1 OR to_id = $1)`+filterClause(filter)+`
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var (
		entries []*domain.LedgerEntry
		ids     []string
	)

	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	if len(entries) == 0 {
		return entries, nil
	}

	details, err := r.details(ctx, r.db, ids, "")
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		e.Details = details[e.ID]
	}

	return entries, nil
}

// CountPending counts active, unconciliated entries.
func (r *LedgerRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64

	err := r.db.QueryRow(ctx, `SELECT count(*) FROM account_ledgers WHERE active AND NOT conciliation`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending ledger entries: %w", err)
	}

	return n, nil
}

func (r *LedgerRepository) details(ctx context.Context, q DBTX, ledgerIDs []string, lock string) (map[string][]*domain.LedgerDetail, error) {
	rows, err := q.Query(ctx, `
		SELECT `+detailColumns+` FROM account_ledger_details
		WHERE account_ledger_id = ANY($1)
		ORDER BY account_ledger_id, id`+lock, ledgerIDs)
	if err != nil {
		return nil, fmt.Errorf("list ledger details: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]*domain.LedgerDetail, len(ledgerIDs))

	for rows.Next() {
		var (
			d      domain.LedgerDetail
			amount pgtype.Numeric
			state  string
		)

		if err := rows.Scan(&d.ID, &d.LedgerID, &d.AccountID, &d.CurrencyID, &amount, &state, &d.Active); err != nil {
			return nil, fmt.Errorf("scan ledger detail: %w", err)
		}

		d.Amount = numericToDecimal(amount)
		d.State = domain.DetailState(state)
		out[d.LedgerID] = append(out[d.LedgerID], &d)
	}

	return out, rows.Err()
}

func filterClause(f domain.LedgerFilter) string {
	switch f {
	case domain.FilterNulled:
		return ` AND NOT active`
	case domain.FilterConciliated:
		return ` AND active AND conciliation`
	case domain.FilterPending:
		return ` AND active AND NOT conciliation`
	default:
		return ""
	}
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		e                    domain.LedgerEntry
		transactionID        pgtype.Text
		exchangeRate         pgtype.Numeric
		amount               pgtype.Numeric
		interestsPenalties   pgtype.Numeric
		operation            string
		approverID, nullerID pgtype.Text
		creatorID            pgtype.Text
		approverAt, nullerAt pgtype.Timestamptz
		date                 pgtype.Date
		createdAt, updatedAt time.Time
	)

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.ToID,
		&transactionID,
		&e.CurrencyID,
		&exchangeRate,
		&amount,
		&interestsPenalties,
		&operation,
		&e.Active,
		&e.Conciliation,
		&approverID,
		&approverAt,
		&nullerID,
		&nullerAt,
		&creatorID,
		&e.Reference,
		&e.Description,
		&date,
		&e.IsPayment,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerNotFound
		}

		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}

	e.TransactionID = transactionID.String
	e.ExchangeRate = numericToNullDecimal(exchangeRate)
	e.Amount = numericToDecimal(amount)
	e.InterestsPenalties = numericToDecimal(interestsPenalties)
	e.Operation = domain.Operation(operation)
	e.ApproverID = approverID.String
	e.ApproverAt = pgTimestamptzToTimePtr(approverAt)
	e.NullerID = nullerID.String
	e.NullerAt = pgTimestamptzToTimePtr(nullerAt)
	e.CreatorID = creatorID.String
	e.Date = pgDateToTime(date)
	e.CreatedAt = createdAt
	e.UpdatedAt = updatedAt

	return &e, nil
}
