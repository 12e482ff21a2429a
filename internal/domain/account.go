package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a customer account holding a single-currency balance.
type Account struct {
	ID        string
	Number    string
	OwnerID   string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return RoundMoney(a.Balance.Sub(amount))
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return RoundMoney(a.Balance.Add(amount))
}
