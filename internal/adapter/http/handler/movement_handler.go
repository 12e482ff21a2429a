package handler

import (
	"context"
	"net/http"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// MovementService defines the behavior needed by MovementHandler.
type MovementService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.Entry, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.Entry, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Entry, error)
}

// MovementHandler handles deposits, withdrawals and transfers for the
// caller's account. Each responds with the entry recorded on that account.
type MovementHandler struct {
	movementUC MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementUC MovementService) *MovementHandler {
	return &MovementHandler{movementUC: movementUC}
}

// Deposit credits the caller's account.
func (h *MovementHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.movementUC.Deposit(r.Context(), req.ToUseCaseInput(id))
	h.respond(w, r, entry, err)
}

// Withdraw debits the caller's account.
func (h *MovementHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.movementUC.Withdraw(r.Context(), req.ToUseCaseInput(id))
	h.respond(w, r, entry, err)
}

// Transfer moves funds from the caller's account to a recipient account number.
func (h *MovementHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.movementUC.Transfer(r.Context(), req.ToUseCaseInput(id))
	h.respond(w, r, entry, err)
}

func (h *MovementHandler) respond(w http.ResponseWriter, r *http.Request, entry *domain.Entry, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}
