package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/accountledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/accountledger/internal/adapter/http/middleware"
	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/infrastructure/auth"
	"github.com/iho/accountledger/internal/infrastructure/metrics"
	"github.com/iho/accountledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"name":"Main","currency_id":"USD","original_type":"Bank"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, store.checkCalled, "expected idempotency store to be used")
	assert.True(t, store.updateCalled, "expected response to be stored")
}

func TestNewRouter_HeaderActorReachesUseCase(t *testing.T) {
	recon := &stubReconciliation{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.LedgerHandler = handler.NewLedgerHandler(stubLedgerService{}, recon)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/L1/conciliate", nil)
	req.Header.Set(apimiddleware.ActorIDHeader, "u9")
	req.Header.Set(apimiddleware.ActorRoleHeader, "accountant")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "u9", recon.actor.ID)
	assert.Equal(t, "L1", recon.ledgerID)
}

func TestNewRouter_JWTRequiredWhenConfigured(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwtManager.Generate(domain.Actor{ID: "u1", Role: domain.RoleViewer})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accountledger_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	require.True(t, ok, "router does not implement chi.Routes")

	seen := map[string]bool{}
	err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"GET /api/v1/accounts/{id}/ledgers",
		"GET /api/v1/accounts/{id}/summary",
		"POST /api/v1/ledgers/",
		"GET /api/v1/ledgers/pending",
		"GET /api/v1/ledgers/{id}",
		"GET /api/v1/ledgers/{id}/history",
		"POST /api/v1/ledgers/{id}/conciliate",
		"POST /api/v1/ledgers/{id}/null",
		"POST /api/v1/transactions/{id}/payments",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	ping := handler.PingFunc(func(ctx context.Context) error { return nil })

	cfg := RouterConfig{
		HealthHandler:  handler.NewHealthHandler(ping, nil),
		AccountHandler: handler.NewAccountHandler(&stubAccountService{}),
		LedgerHandler:  handler.NewLedgerHandler(stubLedgerService{}, &stubReconciliation{}),
		PaymentHandler: handler.NewPaymentHandler(stubPaymentService{}),
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc", Name: input.Name}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

func (stubAccountService) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) LedgersFor(ctx context.Context, accountID string, filter domain.LedgerFilter, limit, offset int) ([]*domain.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) GetLedger(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: id, Active: true}, nil
}

func (stubLedgerService) HasPending(ctx context.Context) (bool, error) {
	return false, nil
}

func (stubLedgerService) History(ctx context.Context, id string) ([]*domain.History, error) {
	return nil, nil
}

func (stubLedgerService) CreateEntry(ctx context.Context, input usecase.CreateEntryInput, actor domain.Actor) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "L1", Active: true}, nil
}

type stubReconciliation struct {
	ledgerID string
	actor    domain.Actor
}

func (s *stubReconciliation) Conciliate(ctx context.Context, ledgerID string, actor domain.Actor) (*domain.LedgerEntry, error) {
	s.ledgerID, s.actor = ledgerID, actor
	return &domain.LedgerEntry{ID: ledgerID, Active: true, Conciliation: true}, nil
}

func (s *stubReconciliation) Null(ctx context.Context, ledgerID string, actor domain.Actor) (*domain.LedgerEntry, error) {
	s.ledgerID, s.actor = ledgerID, actor
	return &domain.LedgerEntry{ID: ledgerID}, nil
}

func (s *stubReconciliation) SummarizeAccount(ctx context.Context, accountID string) (*usecase.AccountSummary, error) {
	return &usecase.AccountSummary{AccountID: accountID}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) CreatePayment(ctx context.Context, transactionID string, params domain.PaymentParams, actor domain.Actor) (*domain.PaymentResult, error) {
	return &domain.PaymentResult{Entry: &domain.LedgerEntry{ID: "L1", TransactionID: transactionID, Active: true}}, nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
