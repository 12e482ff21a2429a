package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/bankledger/internal/domain"
)

// PostgreSQL error codes the adapter reacts to.
const (
	pgErrUniqueViolation      = "23505"
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
	pgErrQueryCanceled        = "57014"
	pgErrAdminShutdown        = "57P01"
	pgErrCannotConnectNow     = "57P03"
)

// Unique constraints mapped to domain conflicts.
const (
	constraintAccountNumber = "accounts_number_key"
	constraintAccountOwner  = "accounts_owner_id_key"
)

// IsRetryableError reports whether the unit of work that produced err can be
// re-run from scratch.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrDeadlock || pgErr.Code == pgErrSerializationFailure
	}

	return false
}

// mapError translates driver errors into domain errors. Errors it does not
// recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintAccountNumber:
				return domain.ErrAccountNumberTaken
			case constraintAccountOwner:
				return domain.ErrOwnerHasAccount
			}
		case pgErrLockNotAvailable, pgErrQueryCanceled, pgErrAdminShutdown, pgErrCannotConnectNow:
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	return err
}
