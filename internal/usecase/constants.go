package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a single unit of work attempt.
	// This prevents long-running transactions from holding account locks.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// EntryCacheTTL is how long an entry stays in the read-through cache.
	// Entries never change, so this only bounds memory use.
	EntryCacheTTL = time.Hour
)
