package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
	"github.com/iho/accountledger/internal/usecase/mocks"
)

func paidTransaction() *domain.Transaction {
	t := creditIncome()
	t.Credit = false
	t.Balance = decimal.Zero
	t.State = domain.TransactionStatePaid
	return t
}

func TestTransactionReconciler_NullLinkedEntryRestoresBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockHistoryRecorder(ctrl)
	txRepo := mocks.NewMockTransactionRepository(paidTransaction())

	recorder.EXPECT().
		Record(gomock.Any(), gomock.Any(), domain.AggregateTypeTransaction, "tx-1", gomock.Any(), accountant).
		DoAndReturn(func(ctx context.Context, tx usecase.Transaction, typ, id string, data domain.HistoryData, actor domain.Actor) error {
			if data.Fields["state"].To.String != string(domain.TransactionStateApproved) {
				t.Errorf("expected state diff to approved, got %+v", data.Fields["state"])
			}
			return nil
		})

	r := usecase.NewTransactionReconciler(txRepo, recorder)
	entry := pendingEntry("P1")
	entry.TransactionID = "tx-1"
	entry.Amount = decimal.NewFromInt(120)

	if err := r.NullLinkedEntry(context.Background(), &mocks.MockTransaction{}, entry, accountant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := txRepo.Stored("tx-1")
	if !stored.Balance.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected balance 120, got %s", stored.Balance)
	}
	if stored.State != domain.TransactionStateApproved {
		t.Errorf("expected approved, got %s", stored.State)
	}
}

func TestTransactionReconciler_ConciliateLinkedEntryLeavesTransaction(t *testing.T) {
	txRepo := mocks.NewMockTransactionRepository(paidTransaction())
	txRepo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
		t.Fatal("conciliation must not touch the transaction")
		return nil, nil
	}

	r := usecase.NewTransactionReconciler(txRepo, nil)
	entry := pendingEntry("P1")
	entry.TransactionID = "tx-1"

	if err := r.ConciliateLinkedEntry(context.Background(), &mocks.MockTransaction{}, entry, accountant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Conciliation || entry.Details[0].State != domain.DetailStateCon {
		t.Errorf("expected entry and details conciliated, got %+v", entry)
	}
}

func TestTransactionReconciler_MissingTransaction(t *testing.T) {
	r := usecase.NewTransactionReconciler(mocks.NewMockTransactionRepository(), nil)
	entry := pendingEntry("P1")
	entry.TransactionID = "gone"

	err := r.NullLinkedEntry(context.Background(), &mocks.MockTransaction{}, entry, accountant)
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected transaction not found, got %v", err)
	}
}

func TestReconciliationWithTransactionReconciler(t *testing.T) {
	txRepo := mocks.NewMockTransactionRepository(paidTransaction())
	history := mocks.NewMockHistoryRepository()
	idGen := mocks.NewMockIDGenerator()
	recorder := usecase.NewHistoryStore(history, idGen)

	linked := pendingEntry("P1")
	linked.TransactionID = "tx-1"
	linked.Amount = decimal.NewFromInt(300)
	ledgers := mocks.NewMockLedgerRepository(linked)

	uc := usecase.NewReconciliationUseCase(
		mocks.NewMockTransactionManager(), ledgers, mocks.NewMockAccountRepository(), mocks.NewMockOutboxRepository(),
		usecase.NewTransactionReconciler(txRepo, recorder), recorder, nil, idGen, nil,
	)

	if _, err := uc.Null(context.Background(), "P1", accountant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored := txRepo.Stored("tx-1"); !stored.Balance.Equal(decimal.NewFromInt(300)) || stored.State != domain.TransactionStateApproved {
		t.Errorf("expected balance restored to 300 and approved, got %s %s", stored.Balance, stored.State)
	}
	if len(history.Histories) != 2 {
		t.Errorf("expected transaction and ledger histories, got %d", len(history.Histories))
	}
}
