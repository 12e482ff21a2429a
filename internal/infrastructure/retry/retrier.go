package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// Classifier reports whether an error is a transient store conflict.
type Classifier func(error) bool

// Config controls the backoff schedule.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultConfig returns the default retry schedule: at most 3 retries.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	cfg       Config
	retryable Classifier
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// New creates a Retrier. Only errors accepted by retryable are retried.
func New(cfg Config, retryable Classifier, logger zerolog.Logger, m *metrics.Metrics) *Retrier {
	return &Retrier{
		cfg:       cfg,
		retryable: retryable,
		logger:    logger,
		metrics:   m,
	}
}

// Retry executes operation, re-running it with exponential backoff on
// retryable errors. When retries run out the last conflict is returned
// wrapped in domain.ErrUnavailable.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = r.cfg.MaxElapsedTime

	retryCount := 0

	err := backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !r.retryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.cfg.MaxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Int("retry", retryCount).
			Msg("retryable store conflict, retrying")
		r.metrics.RecordRetry()

		return err
	}, backoff.WithContext(b, ctx))

	if err != nil && r.retryable(err) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	return err
}
