package usecase

import (
	"context"
	"errors"

	"github.com/iho/bankledger/internal/domain"
)

// AccountIdentityResolver resolves callers to the account registered under
// their subject.
type AccountIdentityResolver struct {
	accountRepo AccountRepository
}

// NewAccountIdentityResolver creates a new AccountIdentityResolver.
func NewAccountIdentityResolver(accountRepo AccountRepository) *AccountIdentityResolver {
	return &AccountIdentityResolver{accountRepo: accountRepo}
}

// ResolveAccountID returns the id of the caller's account.
func (r *AccountIdentityResolver) ResolveAccountID(ctx context.Context, caller *domain.Caller) (string, error) {
	if !caller.Authenticated() {
		return "", domain.ErrUnauthenticated
	}

	account, err := r.accountRepo.GetByOwner(ctx, caller.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", err
	}

	return account.ID, nil
}
