package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// CallerContextKey is the context key for the authenticated caller
	CallerContextKey ContextKey = "caller"
	// AccountContextKey is the context key for the caller's account id
	AccountContextKey ContextKey = "account_id"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores the caller in the
// request context.
func Authenticate(verifier TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				recordAuthFailure(m, "missing_header")
				writeError(w, domain.ErrUnauthenticated)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				recordAuthFailure(m, "malformed_header")
				writeError(w, domain.ErrUnauthenticated)
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				recordAuthFailure(m, "invalid_token")
				writeError(w, err)
				return
			}

			ctx := WithCaller(r.Context(), claims.Caller())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveAccount maps the authenticated caller to its account and stores the
// account id in the request context. It must run after Authenticate.
func ResolveAccount(resolver usecase.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := CallerFromContext(r.Context())

			accountID, err := resolver.ResolveAccountID(r.Context(), caller)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), AccountContextKey, accountID)
			ctx = logger.WithAccount(ctx, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller *domain.Caller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// CallerFromContext extracts the authenticated caller from context
func CallerFromContext(ctx context.Context) (*domain.Caller, bool) {
	caller, ok := ctx.Value(CallerContextKey).(*domain.Caller)
	return caller, ok
}

// AccountIDFromContext extracts the caller's resolved account id.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AccountContextKey).(string)
	return id, ok && id != ""
}

func recordAuthFailure(m *metrics.Metrics, reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}
