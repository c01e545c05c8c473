package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/accountledger/internal/adapter/http/dto"
	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
)

// LedgerService defines the ledger reads and manual postings.
type LedgerService interface {
	LedgersFor(ctx context.Context, accountID string, filter domain.LedgerFilter, limit, offset int) ([]*domain.LedgerEntry, error)
	GetLedger(ctx context.Context, id string) (*domain.LedgerEntry, error)
	HasPending(ctx context.Context) (bool, error)
	History(ctx context.Context, id string) ([]*domain.History, error)
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput, actor domain.Actor) (*domain.LedgerEntry, error)
}

// ReconciliationService defines the lifecycle transitions and the account summary.
type ReconciliationService interface {
	Conciliate(ctx context.Context, ledgerID string, actor domain.Actor) (*domain.LedgerEntry, error)
	Null(ctx context.Context, ledgerID string, actor domain.Actor) (*domain.LedgerEntry, error)
	SummarizeAccount(ctx context.Context, accountID string) (*usecase.AccountSummary, error)
}

// LedgerHandler handles ledger entry requests.
type LedgerHandler struct {
	ledgerUC    LedgerService
	reconcileUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconcileUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconcileUC: reconcileUC}
}

// ListByAccount lists the entries touching an account, newest first.
// The filter query parameter selects all, nulled, conciliated or pending.
func (h *LedgerHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	filter, err := domain.ParseLedgerFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}

	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.ledgerUC.LedgersFor(r.Context(), accountID, filter, limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list ledgers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgersForAccount(entries, accountID, filter))
}

// Get returns one entry with its details.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledgerUC.GetLedger(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(entry))
}

// Pending reports whether any entry still awaits reconciliation.
func (h *LedgerHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.ledgerUC.HasPending(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to check pending ledgers", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"pending": pending})
}

// Create posts a manual entry.
func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLedgerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledgerUC.CreateEntry(r.Context(), req.ToUseCaseInput(), actorFrom(r))
	if err != nil {
		writeDomainError(w, r, "failed to create ledger", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerFromDomain(entry))
}

// History lists the stored changes of an entry.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	histories, err := h.ledgerUC.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get ledger history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoriesFromDomain(histories))
}

// Conciliate marks a pending entry as reconciled.
func (h *LedgerHandler) Conciliate(w http.ResponseWriter, r *http.Request) {
	entry, err := h.reconcileUC.Conciliate(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		writeDomainError(w, r, "failed to conciliate ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(entry))
}

// Null reverses a pending entry.
func (h *LedgerHandler) Null(w http.ResponseWriter, r *http.Request) {
	entry, err := h.reconcileUC.Null(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		writeDomainError(w, r, "failed to null ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(entry))
}

// Summary totals an account's entries per state.
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reconcileUC.SummarizeAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to summarize account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}
