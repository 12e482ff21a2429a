package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/domain"
)

var errConflict = errors.New("conflict")

func isConflict(err error) bool {
	return errors.Is(err, errConflict)
}

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := New(fastConfig(2), isConflict, zerolog.Nop(), nil)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errConflict
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := New(fastConfig(3), isConflict, zerolog.Nop(), nil)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.ErrInsufficientBalance
	})

	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected business error, got %v", err)
	}
	if errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("business error must not be reported as unavailable")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierExhaustionIsUnavailable(t *testing.T) {
	r := New(fastConfig(3), isConflict, zerolog.Nop(), nil)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return errConflict
	})

	if !errors.Is(err, domain.ErrUnavailable) || !errors.Is(err, errConflict) {
		t.Fatalf("expected unavailable wrapping the conflict, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", attempts)
	}
}

func TestRetrierStopsWhenContextCancelled(t *testing.T) {
	r := New(fastConfig(10), isConflict, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return errConflict
	})

	if domain.KindOf(err) != domain.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt after cancellation, got %d", attempts)
	}
}
