package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/usecase"
)

// RegisterAccountRequest represents a request to open the caller's account.
// Number is optional; one is generated when empty.
type RegisterAccountRequest struct {
	Number string `json:"number,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterAccountRequest) ToUseCaseInput(ownerID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID: ownerID,
		Number:  r.Number,
	}
}

// DepositRequest represents a request to deposit into the caller's account.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput(accountID string) usecase.DepositInput {
	return usecase.DepositInput{
		AccountID:   accountID,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// WithdrawRequest represents a request to withdraw from the caller's account.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawRequest) ToUseCaseInput(accountID string) usecase.WithdrawInput {
	return usecase.WithdrawInput{
		AccountID:   accountID,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// TransferRequest represents a request to send money to another account.
type TransferRequest struct {
	RecipientAccountNumber string          `json:"recipient_account_number"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput(senderAccountID string) usecase.TransferInput {
	return usecase.TransferInput{
		SenderAccountID:        senderAccountID,
		RecipientAccountNumber: r.RecipientAccountNumber,
		Amount:                 r.Amount,
		Description:            r.Description,
	}
}
