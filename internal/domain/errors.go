package domain

import (
	"context"
	"errors"
)

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNumberTaken  = errors.New("account number already exists")
	ErrOwnerHasAccount     = errors.New("owner already has an account")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrentUpdate    = errors.New("account was modified concurrently")

	// Movement errors
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrSelfTransfer  = errors.New("cannot transfer to your own account")

	// Entry errors
	ErrEntryNotFound    = errors.New("entry not found")
	ErrTransferNotFound = errors.New("transfer not found")
	ErrAccessDenied     = errors.New("access denied to this entry")

	// Store errors
	ErrUnavailable = errors.New("ledger store unavailable")

	// Request errors
	ErrRequestInProgress = errors.New("a request with this idempotency key is in progress")

	// Identity errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("identity has no linked account")
)

// ErrorKind is the stable, transport-independent category of an error.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindInvalidAmount       ErrorKind = "invalid_amount"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindSelfTransfer        ErrorKind = "self_transfer"
	KindAccessDenied        ErrorKind = "access_denied"
	KindUnavailable         ErrorKind = "unavailable"
	KindUnauthenticated     ErrorKind = "unauthenticated"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindInternal            ErrorKind = "internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrAccountNotFound, KindNotFound},
	{ErrEntryNotFound, KindNotFound},
	{ErrTransferNotFound, KindNotFound},
	{ErrAccountNumberTaken, KindConflict},
	{ErrOwnerHasAccount, KindConflict},
	{ErrRequestInProgress, KindConflict},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrSelfTransfer, KindSelfTransfer},
	{ErrAccessDenied, KindAccessDenied},
	{ErrUnavailable, KindUnavailable},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInvalidDateRange, KindInvalidInput},
	{ErrDescriptionTooLong, KindInvalidInput},
	{ErrInvalidAccountNumber, KindInvalidInput},
	{ErrInvalidOwner, KindInvalidInput},
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnavailable
	}

	return KindInternal
}
