package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/accountledger/internal/domain"
)

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	db DBTX
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(db DBTX) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// GetByID retrieves a currency by ID.
func (r *CurrencyRepository) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	var c domain.Currency

	err := r.db.QueryRow(ctx, `SELECT id, name, symbol, code FROM currencies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Symbol, &c.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCurrencyNotFound
		}

		return nil, fmt.Errorf("get currency: %w", err)
	}

	return &c, nil
}
