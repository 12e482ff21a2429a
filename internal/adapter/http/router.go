package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	MovementHandler *handler.MovementHandler
	HistoryHandler  *handler.HistoryHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	Verifier         middleware.TokenVerifier
	Resolver         usecase.IdentityResolver
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Verifier, cfg.Metrics))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Registration only needs an identity; everything else acts on the
		// caller's account.
		r.Post("/accounts", cfg.AccountHandler.Register)
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ResolveAccount(cfg.Resolver))

			r.Get("/accounts/me", cfg.AccountHandler.Me)

			r.Post("/deposits", cfg.MovementHandler.Deposit)
			r.Post("/withdrawals", cfg.MovementHandler.Withdraw)
			r.Post("/transfers", cfg.MovementHandler.Transfer)

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", cfg.HistoryHandler.Page)
				r.Get("/all", cfg.HistoryHandler.All)
				r.Get("/range", cfg.HistoryHandler.Range)
				r.Get("/by-number/{number}", cfg.HistoryHandler.ByNumber)
				r.Get("/{id}", cfg.HistoryHandler.Get)
			})

			r.Get("/transfers/{id}/entries", cfg.HistoryHandler.TransferLegs)
		})
	})

	return r
}
