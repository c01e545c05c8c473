package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/accountledger/internal/domain"
)

// TransactionReconciler is the default TransactionLinker.
//
// Conciliating a payment entry only marks the entry, the transaction
// balance was already reduced when the payment was saved. Nulling one gives
// the amount back to the transaction.
type TransactionReconciler struct {
	transactionRepo TransactionRepository
	history         HistoryRecorder
}

func NewTransactionReconciler(transactionRepo TransactionRepository, history HistoryRecorder) *TransactionReconciler {
	return &TransactionReconciler{
		transactionRepo: transactionRepo,
		history:         history,
	}
}

func (r *TransactionReconciler) ConciliateLinkedEntry(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, actor domain.Actor) error {
	entry.MarkConciliated()
	return nil
}

func (r *TransactionReconciler) NullLinkedEntry(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, actor domain.Actor) error {
	t, err := r.transactionRepo.GetByIDForUpdate(ctx, tx, entry.TransactionID)
	if err != nil {
		return fmt.Errorf("lock transaction %s: %w", entry.TransactionID, err)
	}
	before := t.Clone()

	t.RevertPayment(entry)
	t.UpdatedAt = time.Now().UTC()

	if err := r.transactionRepo.UpdatePayment(ctx, tx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if r.history == nil {
		return nil
	}

	return r.history.Record(ctx, tx, domain.AggregateTypeTransaction, t.ID, domain.DiffTransaction(before, t), actor)
}
