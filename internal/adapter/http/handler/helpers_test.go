package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/accountledger/internal/adapter/http/dto"
	"github.com/iho/accountledger/internal/adapter/http/middleware"
	"github.com/iho/accountledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"limit=20", 20},
		{"limit=twenty", domain.DefaultPageSize},
		{"offset=40", domain.DefaultPageSize},
		{"", domain.DefaultPageSize},
		{"limit=-1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/ledgers?"+tt.query, nil)
			if got := parseIntQuery(req, "limit", domain.DefaultPageSize); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"ledger not found", domain.ErrLedgerNotFound, http.StatusNotFound},
		{"validation", domain.ValidationErrors{{Field: "amount", Message: "must be greater than 0"}}, http.StatusUnprocessableEntity},
		{"already conciliated", domain.ErrEntryConciliated, http.StatusConflict},
		{"exceeds balance", domain.ErrAmountExceedsBalance, http.StatusConflict},
		{"entry of another transaction", domain.ErrPaymentMismatch, http.StatusConflict},
		{"missing actor", domain.ErrMissingActor, http.StatusUnauthorized},
		{"expired token", domain.ErrExpiredToken, http.StatusUnauthorized},
		{"insufficient role", domain.ErrInsufficientRole, http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrTransactionNotFound), http.StatusNotFound},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	return resp
}

func TestWriteDomainError_ReportsFirstMessagePerField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers", nil)

	err := domain.ValidationErrors{
		{Field: "amount", Message: "must be greater than 0"},
		{Field: "reference", Message: "can't be blank"},
		{Field: "amount", Message: "is not a number"},
	}
	writeDomainError(rec, req, "failed to create ledger", err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	resp := decodeErrorResponse(t, rec)
	if resp.Error != "failed to create ledger" {
		t.Errorf("unexpected error %q", resp.Error)
	}
	if len(resp.Fields) != 2 || resp.Fields["amount"] != "must be greater than 0" || resp.Fields["reference"] != "can't be blank" {
		t.Errorf("unexpected fields %v", resp.Fields)
	}
}

func TestWriteDomainError_BusinessRuleIsEchoed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/l-1/null", nil)

	writeDomainError(rec, req, "failed to null ledger", domain.ErrEntryConciliated)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	resp := decodeErrorResponse(t, rec)
	if resp.Message != domain.ErrEntryConciliated.Error() || resp.Fields != nil {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestWriteDomainError_InternalErrorIsNotEchoed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledgers/l-1", nil)

	writeDomainError(rec, req, "failed to get ledger", errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	resp := decodeErrorResponse(t, rec)
	if resp.Message != "" || strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("storage details must not leak, got %s", rec.Body.String())
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var req dto.CreatePaymentRequest

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"account_id":"cash-1","reference":"R-1"}`))
	if err := decodeJSON(r, &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.AccountID != "cash-1" || req.Reference != "R-1" {
		t.Fatalf("unexpected request %+v", req)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"account_id":"cash-1","balance":"0"}`))
	if err := decodeJSON(r, &req); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestActorFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if got := actorFrom(req); got != (domain.Actor{}) {
		t.Fatalf("expected zero actor without context, got %+v", got)
	}

	want := domain.Actor{ID: "u-1", Name: "Ana", Role: domain.RoleAccountant}
	req = req.WithContext(middleware.WithActor(req.Context(), want))
	if got := actorFrom(req); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
