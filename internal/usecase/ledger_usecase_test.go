package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
	"github.com/iho/accountledger/internal/usecase/mocks"
)

func newLedgerUseCase(ledgers *mocks.MockLedgerRepository, history *mocks.MockHistoryRepository) (*usecase.LedgerUseCase, *mocks.MockOutboxRepository) {
	accounts := mocks.NewMockAccountRepository(
		&domain.Account{ID: "A1", CurrencyID: "BOB", OriginalType: domain.AccountTypeCash},
		&domain.Account{ID: "A2", CurrencyID: "USD", OriginalType: domain.AccountTypeBank},
		&domain.Account{ID: "A3", CurrencyID: "BOB", OriginalType: domain.AccountTypeCash},
	)
	outbox := mocks.NewMockOutboxRepository()
	uc := usecase.NewLedgerUseCase(mocks.NewMockTransactionManager(), ledgers, accounts, outbox, history, mocks.NewMockIDGenerator(), nil)
	return uc, outbox
}

func TestLedgerUseCase_LedgersFor(t *testing.T) {
	conciliated := pendingEntry("L2")
	conciliated.Conciliation = true
	nulled := pendingEntry("L3")
	nulled.Active = false
	incoming := pendingEntry("L4")
	incoming.AccountID = "A2"
	incoming.ToID = "A1"
	other := pendingEntry("L5")
	other.AccountID = "A2"
	other.ToID = "A3"

	ledgers := mocks.NewMockLedgerRepository(pendingEntry("L1"), conciliated, nulled, incoming, other)
	uc, _ := newLedgerUseCase(ledgers, mocks.NewMockHistoryRepository())

	tests := []struct {
		filter domain.LedgerFilter
		want   []string
	}{
		{filter: domain.FilterAll, want: []string{"L1", "L2", "L3", "L4"}},
		{filter: "", want: []string{"L1", "L2", "L3", "L4"}},
		{filter: domain.FilterPending, want: []string{"L1", "L4"}},
		{filter: domain.FilterConciliated, want: []string{"L2"}},
		{filter: domain.FilterNulled, want: []string{"L3"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			entries, err := uc.LedgersFor(context.Background(), "A1", tt.filter, 0, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("expected %v, got %d entries", tt.want, len(entries))
			}
			for i, e := range entries {
				if e.ID != tt.want[i] {
					t.Errorf("entry %d: expected %s, got %s", i, tt.want[i], e.ID)
				}
			}
		})
	}

	if _, err := uc.LedgersFor(context.Background(), "missing", domain.FilterAll, 10, 0); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected account not found, got %v", err)
	}
}

func TestLedgerUseCase_LedgersForClampsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	ledgers := mocks.NewMockLedgerRepository()
	ledgers.ListByAccountFunc = func(ctx context.Context, accountID string, filter domain.LedgerFilter, limit, offset int) ([]*domain.LedgerEntry, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}
	uc, _ := newLedgerUseCase(ledgers, mocks.NewMockHistoryRepository())

	if _, err := uc.LedgersFor(context.Background(), "A1", domain.FilterAll, 5000, -3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != domain.MaxPageSize || gotOffset != 0 {
		t.Errorf("expected limit %d offset 0, got %d %d", domain.MaxPageSize, gotLimit, gotOffset)
	}
}

func TestLedgerUseCase_HasPending(t *testing.T) {
	done := pendingEntry("L1")
	done.Conciliation = true

	uc, _ := newLedgerUseCase(mocks.NewMockLedgerRepository(done), mocks.NewMockHistoryRepository())
	pending, err := uc.HasPending(context.Background())
	if err != nil || pending {
		t.Errorf("expected no pending entries, got %v %v", pending, err)
	}

	uc, _ = newLedgerUseCase(mocks.NewMockLedgerRepository(done, pendingEntry("L2")), mocks.NewMockHistoryRepository())
	pending, err = uc.HasPending(context.Background())
	if err != nil || !pending {
		t.Errorf("expected pending entries, got %v %v", pending, err)
	}
}

func TestLedgerUseCase_CreateEntry(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.CreateEntryInput
		actor     domain.Actor
		expectErr error
		check     func(t *testing.T, e *domain.LedgerEntry)
	}{
		{
			name: "defaults currency and rate from the account",
			input: usecase.CreateEntryInput{
				AccountID: "A1",
				ToID:      "A3",
				Amount:    decimal.NewFromInt(40),
				Operation: domain.OperationTrans,
				Reference: "  Transfer to petty cash ",
			},
			actor: accountant,
			check: func(t *testing.T, e *domain.LedgerEntry) {
				if e.CurrencyID != "BOB" {
					t.Errorf("expected BOB, got %s", e.CurrencyID)
				}
				if !e.ExchangeRate.Valid || !e.ExchangeRate.Decimal.Equal(domain.One) {
					t.Errorf("expected rate 1, got %v", e.ExchangeRate)
				}
				if e.Reference != "Transfer to petty cash" {
					t.Errorf("expected trimmed reference, got %q", e.Reference)
				}
				if e.CreatorID != accountant.ID || e.State() != domain.LedgerStatePending {
					t.Errorf("expected pending entry created by %s, got %+v", accountant.ID, e)
				}
				if len(e.Details) != 2 || e.Details[1].AccountID != "A3" {
					t.Errorf("expected details for both sides, got %+v", e.Details)
				}
				if err := e.ValidateDetails(); err != nil {
					t.Errorf("expected balanced details, got %v", err)
				}
			},
		},
		{
			name: "foreign currency requires a rate",
			input: usecase.CreateEntryInput{
				AccountID:  "A1",
				ToID:       "A2",
				CurrencyID: "USD",
				Amount:     decimal.NewFromInt(40),
				Operation:  domain.OperationOut,
				Reference:  "Wire",
			},
			actor:     accountant,
			expectErr: domain.ErrValidation,
		},
		{
			name: "same account on both sides",
			input: usecase.CreateEntryInput{
				AccountID: "A1",
				ToID:      "A1",
				Amount:    decimal.NewFromInt(1),
				Operation: domain.OperationIn,
				Reference: "Loop",
			},
			actor:     accountant,
			expectErr: domain.ErrValidation,
		},
		{
			name: "unknown counter account",
			input: usecase.CreateEntryInput{
				AccountID: "A1",
				ToID:      "ZZ",
				Amount:    decimal.NewFromInt(1),
				Operation: domain.OperationIn,
				Reference: "Ghost",
			},
			actor:     accountant,
			expectErr: domain.ErrAccountNotFound,
		},
		{
			name: "viewer may not post",
			input: usecase.CreateEntryInput{
				AccountID: "A1",
				ToID:      "A3",
				Amount:    decimal.NewFromInt(1),
				Operation: domain.OperationIn,
				Reference: "Nope",
			},
			actor:     viewer,
			expectErr: domain.ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledgers := mocks.NewMockLedgerRepository()
			uc, outbox := newLedgerUseCase(ledgers, mocks.NewMockHistoryRepository())

			entry, err := uc.CreateEntry(context.Background(), tt.input, tt.actor)
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("expected %v, got %v", tt.expectErr, err)
				}
				if len(outbox.Events) != 0 {
					t.Error("no event may be recorded")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if ledgers.Stored(entry.ID) == nil {
				t.Error("expected entry to be stored")
			}
			if types := outbox.EventTypes(); len(types) != 1 || types[0] != domain.EventTypeLedgerCreated {
				t.Errorf("unexpected events %v", types)
			}
			tt.check(t, entry)
		})
	}
}

func TestLedgerUseCase_History(t *testing.T) {
	history := mocks.NewMockHistoryRepository()
	_ = history.CreateTx(context.Background(), nil, &domain.History{ID: "h1", HistoriableType: domain.AggregateTypeLedger, HistoriableID: "L1"})
	_ = history.CreateTx(context.Background(), nil, &domain.History{ID: "h2", HistoriableType: domain.AggregateTypeTransaction, HistoriableID: "L1"})

	uc, _ := newLedgerUseCase(mocks.NewMockLedgerRepository(pendingEntry("L1")), history)

	rows, err := uc.History(context.Background(), "L1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "h1" {
		t.Errorf("expected only the ledger history, got %+v", rows)
	}

	if _, err := uc.History(context.Background(), "missing"); !errors.Is(err, domain.ErrLedgerNotFound) {
		t.Errorf("expected ledger not found, got %v", err)
	}
}
