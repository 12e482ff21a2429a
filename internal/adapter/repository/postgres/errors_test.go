package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/iho/bankledger/internal/domain"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"concurrent update", domain.ErrConcurrentUpdate, true},
		{"wrapped concurrent update", fmt.Errorf("attempt: %w", domain.ErrConcurrentUpdate), true},
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization failure", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"unique violation", &pgconn.PgError{Code: pgErrUniqueViolation}, false},
		{"business error", domain.ErrInsufficientBalance, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"number taken", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintAccountNumber}, domain.ErrAccountNumberTaken},
		{"owner has account", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintAccountOwner}, domain.ErrOwnerHasAccount},
		{"lock timeout", &pgconn.PgError{Code: pgErrLockNotAvailable}, domain.ErrUnavailable},
		{"statement timeout", &pgconn.PgError{Code: pgErrQueryCanceled}, domain.ErrUnavailable},
		{"shutdown", &pgconn.PgError{Code: pgErrAdminShutdown}, domain.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.target)
		})
	}
}

func TestMapErrorPassesThroughUnknown(t *testing.T) {
	assert.NoError(t, mapError(nil))

	other := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "other_key"}
	assert.Same(t, other, mapError(other))

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
}
