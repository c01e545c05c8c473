package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

// HistoryRepository implements usecase.HistoryRepository.
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// CreateTx stores a history row within a transaction.
func (r *HistoryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, history *domain.History) error {
	data, err := json.Marshal(history.Data)
	if err != nil {
		return fmt.Errorf("marshal history data: %w", err)
	}

	_, err = txConn(tx).Exec(ctx, `
		INSERT INTO histories (id, historiable_type, historiable_id, user_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		history.ID,
		history.HistoriableType,
		history.HistoriableID,
		history.UserID,
		data,
		timeToPgTimestamptz(history.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	return nil
}

// ListByHistoriable returns the histories of one record, oldest first.
func (r *HistoryRepository) ListByHistoriable(ctx context.Context, historiableType, historiableID string) ([]*domain.History, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, historiable_type, historiable_id, user_id, data, created_at
		FROM histories
		WHERE historiable_type = $1 AND historiable_id = $2
		ORDER BY created_at, id`, historiableType, historiableID)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	defer rows.Close()

	var histories []*domain.History

	for rows.Next() {
		var (
			h    domain.History
			data []byte
		)

		if err := rows.Scan(&h.ID, &h.HistoriableType, &h.HistoriableID, &h.UserID, &data, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		h.Data, err = domain.DecodeHistoryData(data)
		if err != nil {
			return nil, fmt.Errorf("decode history %s: %w", h.ID, err)
		}

		histories = append(histories, &h)
	}

	return histories, rows.Err()
}
