package usecase

import (
	"context"
	"time"

	"github.com/iho/accountledger/internal/domain"
)

// HistoryStore is the default HistoryRecorder. Empty diffs are not stored.
type HistoryStore struct {
	historyRepo HistoryRepository
	idGen       IDGenerator
}

// NewHistoryStore creates a HistoryRecorder backed by repo.
func NewHistoryStore(historyRepo HistoryRepository, idGen IDGenerator) *HistoryStore {
	return &HistoryStore{
		historyRepo: historyRepo,
		idGen:       idGen,
	}
}

// Record persists data as a history row of the given record.
func (s *HistoryStore) Record(ctx context.Context, tx Transaction, historiableType, historiableID string, data domain.HistoryData, actor domain.Actor) error {
	if data.IsEmpty() {
		return nil
	}

	userID := actor.ID
	if userID == "" {
		userID = systemActorID
	}

	return s.historyRepo.CreateTx(ctx, tx, &domain.History{
		ID:              s.idGen.Generate(),
		HistoriableType: historiableType,
		HistoriableID:   historiableID,
		UserID:          userID,
		Data:            data,
		CreatedAt:       time.Now().UTC(),
	})
}
