package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	"github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/retry"
	"github.com/iho/bankledger/internal/usecase"
)

type testServer struct {
	router   http.Handler
	jwt      *auth.JWTManager
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()

	idGen := postgres.NewULIDGenerator()
	store := memory.NewStore(idGen)
	accounts := memory.NewAccountRepository(store)
	entries := memory.NewEntryRepository(store)

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(registry)

	retrier := retry.New(retry.DefaultConfig(), memory.IsRetryableError, zerolog.Nop(), m)
	movementUC := usecase.NewMovementUseCase(
		memory.NewTxManager(store), accounts, entries, memory.NewOutboxRepository(store),
		retrier, idGen, m, 0,
	)

	jwtManager := auth.NewJWTManager("router-secret", time.Hour)

	cfg := RouterConfig{
		AccountHandler:  handler.NewAccountHandler(usecase.NewAccountUseCase(accounts, idGen, m)),
		MovementHandler: handler.NewMovementHandler(movementUC),
		HistoryHandler:  handler.NewHistoryHandler(usecase.NewHistoryUseCase(entries, accounts, nil, m)),
		LedgerHandler:   handler.NewLedgerHandler(usecase.NewLedgerUseCase(memory.NewLedgerRepository(store), m)),
		HealthHandler:   handler.NewHealthHandler(),
		Verifier:        jwtManager,
		Resolver:        usecase.NewAccountIdentityResolver(accounts),
		Logger:          zerolog.Nop(),
		Metrics:         m,
		Gatherer:        registry,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testServer{router: NewRouter(cfg), jwt: jwtManager, registry: registry}
}

func (s *testServer) do(t *testing.T, subject, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		token, err := s.jwt.Generate(&domain.Caller{Subject: subject})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "", http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/api/v1/accounts/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(domain.KindUnauthenticated), decode[dto.ErrorResponse](t, rec).Kind)

	// Authenticated but never registered.
	rec = s.do(t, "alice", http.MethodGet, "/api/v1/accounts/me", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, string(domain.KindUnauthorized), decode[dto.ErrorResponse](t, rec).Kind)
}

func TestNewRouter_MoneyFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "alice", http.MethodPost, "/api/v1/accounts", dto.RegisterAccountRequest{Number: "ACC00000000001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := decode[dto.AccountResponse](t, rec)

	rec = s.do(t, "bob", http.MethodPost, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bob := decode[dto.AccountResponse](t, rec)
	assert.NotEmpty(t, bob.Number)

	rec = s.do(t, "alice", http.MethodPost, "/api/v1/accounts", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, "alice", http.MethodPost, "/api/v1/deposits", map[string]string{"amount": "100.00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, "alice", http.MethodPost, "/api/v1/transfers", map[string]string{
		"recipient_account_number": bob.Number,
		"amount":                   "30.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[dto.EntryResponse](t, rec)
	assert.Equal(t, string(domain.KindTransferSent), sent.Kind)
	assert.Equal(t, "70.00", sent.BalanceAfter)

	rec = s.do(t, "bob", http.MethodPost, "/api/v1/withdrawals", map[string]string{"amount": "31"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, "alice", http.MethodPost, "/api/v1/transfers", map[string]string{
		"recipient_account_number": alice.Number,
		"amount":                   "1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "bob", http.MethodGet, "/api/v1/accounts/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "30.00", decode[dto.AccountResponse](t, rec).Balance)

	rec = s.do(t, "bob", http.MethodGet, "/api/v1/transfers/"+sent.TransferID+"/entries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.EntryResponse](t, rec), 2)

	rec = s.do(t, "alice", http.MethodGet, "/api/v1/entries?page=0&size=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[dto.EntryPageResponse](t, rec)
	assert.Equal(t, int64(2), page.TotalEntries)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, sent.ID, page.Entries[0].ID)

	rec = s.do(t, "alice", http.MethodGet, "/api/v1/entries?page=184467440737095516&size=100", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	far := decode[dto.EntryPageResponse](t, rec)
	assert.Empty(t, far.Entries)
	assert.Equal(t, domain.MaxPage, far.Page)
	assert.Equal(t, int64(2), far.TotalEntries)

	rec = s.do(t, "bob", http.MethodGet, "/api/v1/entries/"+sent.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Both legs carry the sender's number; the recipient leg withholds its balance.
	rec = s.do(t, "alice", http.MethodGet, "/api/v1/entries/by-number/"+alice.Number, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byNumber := decode[[]dto.EntryResponse](t, rec)
	require.Len(t, byNumber, 2)
	for _, e := range byNumber {
		if e.AccountID == alice.ID {
			assert.Equal(t, "70.00", e.BalanceAfter)
		} else {
			assert.Empty(t, e.BalanceAfter)
		}
	}

	rec = s.do(t, "alice", http.MethodGet, "/api/v1/entries/by-number/"+bob.Number, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "alice", http.MethodGet, "/api/v1/ledger/consistency", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[dto.ConsistencyResponse](t, rec)
	assert.True(t, report.Consistent)
	assert.Equal(t, "100.00", report.TotalBalance)
}

func TestNewRouter_IdempotentDeposit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = redisrepo.NewIdempotencyStore(client)
	})

	rec := s.do(t, "alice", http.MethodPost, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	first := s.do(t, "alice", http.MethodPost, "/api/v1/deposits", map[string]string{"amount": "10"},
		apimiddleware.IdempotencyKeyHeader, "dep-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := s.do(t, "alice", http.MethodPost, "/api/v1/deposits", map[string]string{"amount": "10"},
		apimiddleware.IdempotencyKeyHeader, "dep-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(apimiddleware.IdempotencyReplayHeader))
	assert.Equal(t, decode[dto.EntryResponse](t, first).ID, decode[dto.EntryResponse](t, second).ID)

	rec = s.do(t, "alice", http.MethodGet, "/api/v1/accounts/me", nil)
	assert.Equal(t, "10.00", decode[dto.AccountResponse](t, rec).Balance)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1, nil)
	})

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	s.router.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	s.router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, "", http.MethodGet, "/health", nil)

	rec := s.do(t, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bankledger_http_requests_total")
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	s := newTestServer(t)

	chiRoutes, ok := s.router.(chi.Routes)
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
		"GET /metrics",
		"POST /api/v1/accounts",
		"GET /api/v1/accounts/me",
		"POST /api/v1/deposits",
		"POST /api/v1/withdrawals",
		"POST /api/v1/transfers",
		"GET /api/v1/entries/",
		"GET /api/v1/entries/all",
		"GET /api/v1/entries/range",
		"GET /api/v1/entries/by-number/{number}",
		"GET /api/v1/entries/{id}",
		"GET /api/v1/transfers/{id}/entries",
		"GET /api/v1/ledger/consistency",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}
