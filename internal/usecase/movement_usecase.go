package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// MovementUseCase moves money into, out of and between accounts. Every
// operation is one unit of work: the touched accounts are locked in
// ascending id order, balances are written with a version check, entries
// and the outbox event are appended, and everything commits or nothing does.
type MovementUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
	txTimeout   time.Duration
}

// NewMovementUseCase creates a new MovementUseCase. A non-positive txTimeout
// falls back to DefaultTransactionTimeout.
func NewMovementUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	txTimeout time.Duration,
) *MovementUseCase {
	if txTimeout <= 0 {
		txTimeout = DefaultTransactionTimeout
	}

	return &MovementUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
		txTimeout:   txTimeout,
	}
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// TransferInput represents input for a transfer. The recipient is addressed
// by account number, the sender by the caller's resolved account id.
type TransferInput struct {
	SenderAccountID        string
	RecipientAccountNumber string
	Amount                 decimal.Decimal
	Description            string
}

// Deposit credits an account and records a DEPOSIT entry.
func (uc *MovementUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Entry, error) {
	start := time.Now()

	if err := validateMovement(input.Amount, input.Description); err != nil {
		return nil, uc.fail(domain.KindDeposit, err)
	}
	amount := domain.RoundMoney(input.Amount)

	var entry *domain.Entry
	err := uc.inUnitOfWork(ctx, func(ctx context.Context, tx Transaction) error {
		accounts, err := uc.lockAccounts(ctx, tx, input.AccountID)
		if err != nil {
			return err
		}
		account := accounts[input.AccountID]

		now := time.Now().UTC()
		newBalance := account.ApplyCredit(amount)

		err = uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, now)
		if err != nil {
			return err
		}

		entry = &domain.Entry{
			ID:           uc.idGen.Generate(),
			AccountID:    account.ID,
			Movement:     domain.Deposit{},
			Amount:       amount,
			Description:  input.Description,
			BalanceAfter: newBalance,
			Status:       domain.StatusCompleted,
			CreatedAt:    now,
		}

		if err := uc.entryRepo.Append(ctx, tx, entry); err != nil {
			return err
		}

		return uc.emit(ctx, tx, account.ID, domain.EventTypeDepositCompleted, movementPayload(entry))
	})
	if err != nil {
		return nil, uc.fail(domain.KindDeposit, err)
	}

	uc.metrics.RecordMovement(string(domain.KindDeposit), amount, time.Since(start))

	return entry, nil
}

// Withdraw debits an account and records a WITHDRAWAL entry. The balance
// never goes below zero.
func (uc *MovementUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.Entry, error) {
	start := time.Now()

	if err := validateMovement(input.Amount, input.Description); err != nil {
		return nil, uc.fail(domain.KindWithdrawal, err)
	}
	amount := domain.RoundMoney(input.Amount)

	var entry *domain.Entry
	err := uc.inUnitOfWork(ctx, func(ctx context.Context, tx Transaction) error {
		accounts, err := uc.lockAccounts(ctx, tx, input.AccountID)
		if err != nil {
			return err
		}
		account := accounts[input.AccountID]

		if err := account.ValidateDebit(amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		newBalance := account.ApplyDebit(amount)

		err = uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, now)
		if err != nil {
			return err
		}

		entry = &domain.Entry{
			ID:           uc.idGen.Generate(),
			AccountID:    account.ID,
			Movement:     domain.Withdrawal{},
			Amount:       amount,
			Description:  input.Description,
			BalanceAfter: newBalance,
			Status:       domain.StatusCompleted,
			CreatedAt:    now,
		}

		if err := uc.entryRepo.Append(ctx, tx, entry); err != nil {
			return err
		}

		return uc.emit(ctx, tx, account.ID, domain.EventTypeWithdrawalCompleted, movementPayload(entry))
	})
	if err != nil {
		return nil, uc.fail(domain.KindWithdrawal, err)
	}

	uc.metrics.RecordMovement(string(domain.KindWithdrawal), amount, time.Since(start))

	return entry, nil
}

// Transfer moves amount from the sender to the account with the recipient
// number. Both legs share one transfer id; the sender leg is returned.
func (uc *MovementUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Entry, error) {
	start := time.Now()

	if err := validateMovement(input.Amount, input.Description); err != nil {
		return nil, uc.fail(domain.KindTransferSent, err)
	}
	amount := domain.RoundMoney(input.Amount)

	var sent *domain.Entry
	err := uc.inUnitOfWork(ctx, func(ctx context.Context, tx Transaction) error {
		sender, err := uc.accountRepo.GetByID(ctx, input.SenderAccountID)
		if err != nil {
			return fmt.Errorf("sender: %w", err)
		}

		recipient, err := uc.accountRepo.GetByNumber(ctx, input.RecipientAccountNumber)
		if err != nil {
			return fmt.Errorf("recipient %s: %w", input.RecipientAccountNumber, err)
		}

		if sender.ID == recipient.ID {
			return domain.ErrSelfTransfer
		}

		accounts, err := uc.lockAccounts(ctx, tx, sender.ID, recipient.ID)
		if err != nil {
			return err
		}
		sender, recipient = accounts[sender.ID], accounts[recipient.ID]

		if err := sender.ValidateDebit(amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		senderBalance := sender.ApplyDebit(amount)
		recipientBalance := recipient.ApplyCredit(amount)

		err = uc.accountRepo.UpdateBalance(ctx, tx, recipient.ID, recipientBalance, recipient.Version, now)
		if err != nil {
			return err
		}

		err = uc.accountRepo.UpdateBalance(ctx, tx, sender.ID, senderBalance, sender.Version, now)
		if err != nil {
			return err
		}

		leg := domain.TransferLeg{
			TransferID:             uc.idGen.Generate(),
			SenderAccountNumber:    sender.Number,
			RecipientAccountNumber: recipient.Number,
		}

		received := &domain.Entry{
			ID:           uc.idGen.Generate(),
			AccountID:    recipient.ID,
			Movement:     domain.TransferReceived{TransferLeg: leg},
			Amount:       amount,
			Description:  input.Description,
			BalanceAfter: recipientBalance,
			Status:       domain.StatusCompleted,
			CreatedAt:    now,
		}

		if err := uc.entryRepo.Append(ctx, tx, received); err != nil {
			return err
		}

		sent = &domain.Entry{
			ID:           uc.idGen.Generate(),
			AccountID:    sender.ID,
			Movement:     domain.TransferSent{TransferLeg: leg},
			Amount:       amount,
			Description:  input.Description,
			BalanceAfter: senderBalance,
			Status:       domain.StatusCompleted,
			CreatedAt:    now,
		}

		if err := uc.entryRepo.Append(ctx, tx, sent); err != nil {
			return err
		}

		return uc.emit(ctx, tx, sender.ID, domain.EventTypeTransferCompleted, map[string]any{
			"transfer_id":              leg.TransferID,
			"sender_account_id":        sender.ID,
			"sender_account_number":    sender.Number,
			"recipient_account_id":     recipient.ID,
			"recipient_account_number": recipient.Number,
			"amount":                   amount.StringFixed(domain.MoneyScale),
			"event_at":                 now.Format(time.RFC3339Nano),
		})
	})
	if err != nil {
		return nil, uc.fail(domain.KindTransferSent, err)
	}

	uc.metrics.RecordMovement(string(domain.KindTransferSent), amount, time.Since(start))

	return sent, nil
}

// inUnitOfWork runs fn in a fresh transaction per attempt, retrying the
// whole attempt on store conflicts.
func (uc *MovementUseCase) inUnitOfWork(ctx context.Context, fn func(context.Context, Transaction) error) error {
	return uc.retrier.Retry(ctx, func() error {
		return uc.attempt(ctx, fn)
	})
}

func (uc *MovementUseCase) attempt(ctx context.Context, fn func(context.Context, Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(txCtx)) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// lockAccounts locks ids in ascending order and returns them keyed by id.
func (uc *MovementUseCase) lockAccounts(ctx context.Context, tx Transaction, ids ...string) (map[string]*domain.Account, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	for _, id := range sorted {
		if byID[id] == nil {
			return nil, domain.ErrAccountNotFound
		}
	}

	return byID, nil
}

func (uc *MovementUseCase) emit(ctx context.Context, tx Transaction, accountID, eventType string, payload map[string]any) error {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   accountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

// fail records the failure and makes timeouts and cancellations explicit
// Unavailable errors.
func (uc *MovementUseCase) fail(kind domain.EntryKind, err error) error {
	if (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) &&
		!errors.Is(err, domain.ErrUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	uc.metrics.RecordMovementError(string(kind), string(domain.KindOf(err)))

	return err
}

func validateMovement(amount decimal.Decimal, description string) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	return domain.ValidateDescription(description)
}

func movementPayload(e *domain.Entry) map[string]any {
	return map[string]any{
		"entry_id":      e.ID,
		"account_id":    e.AccountID,
		"amount":        e.Amount.StringFixed(domain.MoneyScale),
		"balance_after": e.BalanceAfter.StringFixed(domain.MoneyScale),
		"event_at":      e.CreatedAt.Format(time.RFC3339Nano),
	}
}
