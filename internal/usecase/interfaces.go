package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in ascending id order until tx ends.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// UpdateBalance writes balance only if the stored version still equals
	// expectedVersion, otherwise it returns domain.ErrConcurrentUpdate.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
}

// EntryRepository defines data access for ledger entries. Entries are append-only.
type EntryRepository interface {
	Append(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Entry, error)
	ListByAccountPage(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
	ListByAccountNumber(ctx context.Context, number string) ([]*domain.Entry, error)
	ListByAccountAndDateRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Entry, error)
	ListByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	Totals(ctx context.Context) (domain.LedgerTotals, error)
	BalanceMismatches(ctx context.Context) ([]domain.BalanceMismatch, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a unit of work.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a whole unit of work on retryable store conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the key so that the request can be retried.
	Release(ctx context.Context, key string) error
}

// IdentityResolver maps an authenticated caller to the account it may act on.
type IdentityResolver interface {
	ResolveAccountID(ctx context.Context, caller *domain.Caller) (string, error)
}
