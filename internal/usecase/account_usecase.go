package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// maxNumberAttempts bounds retries when a generated account number collides.
const maxNumberAttempts = 5

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator, metrics *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account. Number is
// generated when empty.
type CreateAccountInput struct {
	OwnerID string
	Number  string
}

// CreateAccount registers a new account with a zero balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	ownerID := strings.TrimSpace(input.OwnerID)
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}

	if input.Number != "" {
		if err := domain.ValidateAccountNumber(input.Number); err != nil {
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		number := input.Number
		if number == "" {
			number = domain.GenerateAccountNumber()
		}

		now := time.Now().UTC()
		account := &domain.Account{
			ID:        uc.idGen.Generate(),
			Number:    number,
			OwnerID:   ownerID,
			Balance:   decimal.Zero,
			Version:   0,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := uc.accountRepo.Create(ctx, account)
		if err == nil {
			uc.metrics.RecordAccountCreated()
			return account, nil
		}

		generated := input.Number == ""
		if !generated || !errors.Is(err, domain.ErrAccountNumberTaken) || attempt == maxNumberAttempts {
			return nil, err
		}
	}
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its account number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return uc.accountRepo.GetByNumber(ctx, number)
}
