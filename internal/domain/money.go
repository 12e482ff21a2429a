package domain

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every amount and balance.
const MoneyScale = 2

// AccountNumberPrefix prefixes every generated account number.
const AccountNumberPrefix = "ACC"

// RoundMoney rounds d to MoneyScale using banker's rounding.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// GenerateAccountNumber returns a random account number such as ACC0123456789.
// Uniqueness is enforced by the account store.
func GenerateAccountNumber() string {
	return fmt.Sprintf("%s%010d", AccountNumberPrefix, rand.Int64N(10_000_000_000))
}
