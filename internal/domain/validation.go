package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidOwner         = errors.New("invalid owner identity")
	ErrDescriptionTooLong   = errors.New("description too long")
	ErrInvalidDateRange     = errors.New("start date must not be after end date")
)

// Validation constants
const (
	MaxDescriptionLength = 255
	MaxOwnerIDLength     = 255
	MaxMovementAmount    = "1000000000000" // 1 trillion
	DefaultPageSize      = 10
	MaxPageSize          = 100
	// MaxPage keeps page*MaxPageSize within an int32 row offset.
	MaxPage = math.MaxInt32 / MaxPageSize
)

var (
	accountNumberRegex = regexp.MustCompile(`^[A-Z]{3}[0-9]{3,17}$`)
	maxMovementAmount  = decimal.RequireFromString(MaxMovementAmount)
)

// ValidateAmount validates a deposit, withdrawal or transfer amount.
// Every violation wraps ErrInvalidAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(RoundMoney(amount)) {
		return fmt.Errorf("%w: at most %d decimal places allowed", ErrInvalidAmount, MoneyScale)
	}

	if amount.GreaterThan(maxMovementAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxMovementAmount)
	}

	return nil
}

// ValidateDescription validates the free-text description of a movement.
func ValidateDescription(description string) error {
	if len([]rune(description)) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}

// ValidateAccountNumber validates the human-facing account number format.
func ValidateAccountNumber(number string) error {
	if !accountNumberRegex.MatchString(number) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountNumber, number)
	}
	return nil
}

// ValidateOwnerID validates an owner identity reference.
func ValidateOwnerID(ownerID string) error {
	ownerID = strings.TrimSpace(ownerID)

	if ownerID == "" {
		return fmt.Errorf("%w: owner cannot be empty", ErrInvalidOwner)
	}

	if len(ownerID) > MaxOwnerIDLength {
		return fmt.Errorf("%w: owner exceeds %d characters", ErrInvalidOwner, MaxOwnerIDLength)
	}

	return nil
}

// ValidateDateRange checks that start is not after end.
func ValidateDateRange(start, end time.Time) error {
	if start.After(end) {
		return ErrInvalidDateRange
	}
	return nil
}

// ValidatePagination normalizes a zero-based page number and page size.
func ValidatePagination(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}

	if page > MaxPage {
		page = MaxPage
	}

	if size <= 0 {
		size = DefaultPageSize
	}

	if size > MaxPageSize {
		size = MaxPageSize
	}

	return page, size
}
