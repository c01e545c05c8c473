package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
	"github.com/iho/accountledger/internal/usecase/mocks"
)

func pendingEntry(id string) *domain.LedgerEntry {
	e := domain.NewLedgerEntry()
	e.ID = id
	e.AccountID = "A1"
	e.ToID = "A2"
	e.CurrencyID = "BOB"
	e.Amount = decimal.NewFromInt(50)
	e.ExchangeRate = domain.Rate(decimal.NewFromInt(2))
	e.Operation = domain.OperationIn
	e.Reference = "REF-1"
	e.Details = []*domain.LedgerDetail{
		{ID: id + "-d1", LedgerID: id, AccountID: "A1", Active: true},
		{ID: id + "-d2", LedgerID: id, AccountID: "A2", Active: true},
	}
	return e
}

type reconFixture struct {
	txMgr   *mocks.MockTransactionManager
	ledgers *mocks.MockLedgerRepository
	outbox  *mocks.MockOutboxRepository
	history *mocks.MockHistoryRepository
	uc      *usecase.ReconciliationUseCase
}

func newReconFixture(linker usecase.TransactionLinker, entries ...*domain.LedgerEntry) *reconFixture {
	idGen := mocks.NewMockIDGenerator()
	f := &reconFixture{
		txMgr:   mocks.NewMockTransactionManager(),
		ledgers: mocks.NewMockLedgerRepository(entries...),
		outbox:  mocks.NewMockOutboxRepository(),
		history: mocks.NewMockHistoryRepository(),
	}
	accounts := mocks.NewMockAccountRepository(
		&domain.Account{ID: "A1", CurrencyID: "BOB", OriginalType: domain.AccountTypeCash},
		&domain.Account{ID: "A2", CurrencyID: "USD", OriginalType: domain.AccountTypeBank},
	)
	f.uc = usecase.NewReconciliationUseCase(
		f.txMgr, f.ledgers, accounts, f.outbox, linker,
		usecase.NewHistoryStore(f.history, idGen), nil, idGen, nil,
	)
	return f
}

func TestReconciliationUseCase_Conciliate(t *testing.T) {
	ctrl := gomock.NewController(t)
	linker := mocks.NewMockTransactionLinker(ctrl)
	f := newReconFixture(linker, pendingEntry("L1"))

	entry, err := f.uc.Conciliate(context.Background(), "L1", accountant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.ledgers.Stored("L1")
	if !stored.Conciliation || stored.ApproverID != accountant.ID || stored.ApproverAt == nil {
		t.Errorf("expected stored entry conciliated by %s, got %+v", accountant.ID, stored)
	}
	for _, d := range stored.Details {
		if d.State != domain.DetailStateCon {
			t.Errorf("expected detail %s con, got %q", d.ID, d.State)
		}
	}
	if entry.State() != domain.LedgerStateConciliated {
		t.Errorf("expected conciliated, got %s", entry.State())
	}

	types := f.outbox.EventTypes()
	if len(types) != 1 || types[0] != domain.EventTypeLedgerConciliated {
		t.Errorf("unexpected events %v", types)
	}
	if len(f.history.Histories) != 1 {
		t.Fatalf("expected one history row, got %d", len(f.history.Histories))
	}
	h := f.history.Histories[0]
	if h.UserID != accountant.ID || h.HistoriableType != domain.AggregateTypeLedger {
		t.Errorf("unexpected history %+v", h)
	}
	if _, ok := h.Data.Fields["conciliation"]; !ok {
		t.Errorf("expected conciliation in the diff, got %v", h.Data.Attributes())
	}
	if !f.txMgr.Last().Committed {
		t.Error("expected commit")
	}
}

func TestReconciliationUseCase_TerminalStates(t *testing.T) {
	approvedAt := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	conciliated := pendingEntry("C1")
	conciliated.Conciliation = true
	conciliated.ApproverID = "first-approver"
	conciliated.ApproverAt = &approvedAt

	nulled := pendingEntry("N1")
	nulled.Active = false
	nulled.NullerID = "first-nuller"

	tests := []struct {
		name string
		id   string
		call func(uc *usecase.ReconciliationUseCase, id string) (*domain.LedgerEntry, error)
		err  error
	}{
		{name: "conciliate conciliated", id: "C1", call: conciliate, err: domain.ErrEntryConciliated},
		{name: "null conciliated", id: "C1", call: null, err: domain.ErrEntryConciliated},
		{name: "conciliate nulled", id: "N1", call: conciliate, err: domain.ErrEntryNulled},
		{name: "null nulled", id: "N1", call: null, err: domain.ErrEntryNulled},
		{name: "missing entry", id: "X", call: null, err: domain.ErrLedgerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := newReconFixture(mocks.NewMockTransactionLinker(ctrl), conciliated, nulled)

			_, err := tt.call(f.uc, tt.id)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if !errors.Is(err, domain.ErrBusinessRule) && !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("expected a business rule or not found error, got %v", err)
			}

			c := f.ledgers.Stored("C1")
			if c.ApproverID != "first-approver" || !c.ApproverAt.Equal(approvedAt) || !c.Active {
				t.Errorf("conciliated entry changed: %+v", c)
			}
			n := f.ledgers.Stored("N1")
			if n.NullerID != "first-nuller" || n.Active || n.Conciliation {
				t.Errorf("nulled entry changed: %+v", n)
			}
			if len(f.outbox.Events) != 0 || len(f.history.Histories) != 0 {
				t.Error("rejected transitions must not record events or history")
			}
		})
	}
}

func conciliate(uc *usecase.ReconciliationUseCase, id string) (*domain.LedgerEntry, error) {
	return uc.Conciliate(context.Background(), id, accountant)
}

func null(uc *usecase.ReconciliationUseCase, id string) (*domain.LedgerEntry, error) {
	return uc.Null(context.Background(), id, accountant)
}

func TestReconciliationUseCase_Null(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newReconFixture(mocks.NewMockTransactionLinker(ctrl), pendingEntry("L1"))

	if _, err := f.uc.Null(context.Background(), "L1", accountant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.ledgers.Stored("L1")
	if stored.Active || stored.NullerID != accountant.ID || stored.NullerAt == nil {
		t.Errorf("expected nulled by %s, got %+v", accountant.ID, stored)
	}
	for _, d := range stored.Details {
		if d.State != domain.DetailStateNulled || d.Active {
			t.Errorf("expected detail %s nulled and inactive, got %+v", d.ID, d)
		}
	}
	if types := f.outbox.EventTypes(); len(types) != 1 || types[0] != domain.EventTypeLedgerNulled {
		t.Errorf("unexpected events %v", types)
	}
}

func TestReconciliationUseCase_LinkedEntriesDelegate(t *testing.T) {
	ctrl := gomock.NewController(t)
	linker := mocks.NewMockTransactionLinker(ctrl)

	linked := pendingEntry("P1")
	linked.TransactionID = "tx-1"
	f := newReconFixture(linker, linked)

	linker.EXPECT().
		ConciliateLinkedEntry(gomock.Any(), gomock.Any(), gomock.Any(), accountant).
		DoAndReturn(func(ctx context.Context, tx usecase.Transaction, e *domain.LedgerEntry, actor domain.Actor) error {
			if e.ApproverID != accountant.ID {
				t.Errorf("approver must be stamped before delegation, got %q", e.ApproverID)
			}
			e.MarkConciliated()
			return nil
		})

	entry, err := f.uc.Conciliate(context.Background(), "P1", accountant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Conciliation {
		t.Error("expected the linker to mark the entry")
	}
}

func TestReconciliationUseCase_LinkerFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	linker := mocks.NewMockTransactionLinker(ctrl)

	linked := pendingEntry("P1")
	linked.TransactionID = "tx-1"
	f := newReconFixture(linker, linked)

	linker.EXPECT().
		NullLinkedEntry(gomock.Any(), gomock.Any(), gomock.Any(), accountant).
		Return(domain.ErrTransactionNotFound)

	_, err := f.uc.Null(context.Background(), "P1", accountant)
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found, got %v", err)
	}

	if f.txMgr.Last().Committed {
		t.Error("expected rollback")
	}
	if stored := f.ledgers.Stored("P1"); !stored.Active {
		t.Error("stored entry must stay pending")
	}
}

func TestReconciliationUseCase_RequiresApprover(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newReconFixture(mocks.NewMockTransactionLinker(ctrl), pendingEntry("L1"))

	if _, err := f.uc.Conciliate(context.Background(), "L1", viewer); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Errorf("expected insufficient role, got %v", err)
	}
	if _, err := f.uc.Null(context.Background(), "L1", domain.Actor{}); !errors.Is(err, domain.ErrMissingActor) {
		t.Errorf("expected missing actor, got %v", err)
	}
	if f.txMgr.Last() != nil {
		t.Error("no storage transaction may be started")
	}
}

func TestReconciliationUseCase_SummarizeAccount(t *testing.T) {
	pending := pendingEntry("L1")

	conciliated := pendingEntry("L2")
	conciliated.Conciliation = true
	conciliated.Amount = decimal.NewFromInt(20)

	nulled := pendingEntry("L3")
	nulled.Active = false

	incoming := pendingEntry("L4")
	incoming.AccountID = "A2"
	incoming.ToID = "A1"
	incoming.Amount = decimal.NewFromInt(5)
	incoming.ExchangeRate = domain.Rate(decimal.NewFromInt(3))

	ctrl := gomock.NewController(t)
	f := newReconFixture(mocks.NewMockTransactionLinker(ctrl), pending, conciliated, nulled, incoming)

	s, err := f.uc.SummarizeAccount(context.Background(), "A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// L1 +50, L4 seen from the counter side is -15
	if !s.Pending.Equal(decimal.NewFromInt(35)) || s.PendingCount != 2 {
		t.Errorf("expected pending 35 over 2 entries, got %s over %d", s.Pending, s.PendingCount)
	}
	if !s.Conciliated.Equal(decimal.NewFromInt(20)) || s.ConciliatedCount != 1 {
		t.Errorf("expected conciliated 20, got %s", s.Conciliated)
	}
	if !s.Nulled.Equal(decimal.NewFromInt(50)) || s.NulledCount != 1 {
		t.Errorf("expected nulled 50, got %s", s.Nulled)
	}
	if !s.Balance.Equal(decimal.NewFromInt(55)) {
		t.Errorf("expected balance 55, got %s", s.Balance)
	}

	if _, err := f.uc.SummarizeAccount(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected account not found, got %v", err)
	}
}
