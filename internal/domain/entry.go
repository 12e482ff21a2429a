package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind names the account-side effect an entry records.
type EntryKind string

const (
	KindDeposit          EntryKind = "DEPOSIT"
	KindWithdrawal       EntryKind = "WITHDRAWAL"
	KindTransferSent     EntryKind = "TRANSFER_SENT"
	KindTransferReceived EntryKind = "TRANSFER_RECEIVED"
)

// EntryStatus is the settlement state of an entry. Movements are synchronous,
// so every stored entry is completed.
type EntryStatus string

const StatusCompleted EntryStatus = "COMPLETED"

// Movement is the closed set of entry variants. Only the transfer variants
// carry counterparty data.
type Movement interface {
	Kind() EntryKind
	movement()
}

// Deposit is money entering the account from outside the ledger.
type Deposit struct{}

// Withdrawal is money leaving the account to outside the ledger.
type Withdrawal struct{}

// TransferLeg links one side of a transfer to its counterpart.
type TransferLeg struct {
	TransferID             string
	SenderAccountNumber    string
	RecipientAccountNumber string
}

// TransferSent is the debit side of a transfer.
type TransferSent struct{ TransferLeg }

// TransferReceived is the credit side of a transfer.
type TransferReceived struct{ TransferLeg }

func (Deposit) Kind() EntryKind          { return KindDeposit }
func (Withdrawal) Kind() EntryKind       { return KindWithdrawal }
func (TransferSent) Kind() EntryKind     { return KindTransferSent }
func (TransferReceived) Kind() EntryKind { return KindTransferReceived }

func (Deposit) movement()          {}
func (Withdrawal) movement()       {}
func (TransferSent) movement()     {}
func (TransferReceived) movement() {}

// NewMovement rebuilds a Movement from its stored representation.
func NewMovement(kind EntryKind, leg *TransferLeg) (Movement, error) {
	switch kind {
	case KindDeposit:
		return Deposit{}, nil
	case KindWithdrawal:
		return Withdrawal{}, nil
	case KindTransferSent, KindTransferReceived:
		if leg == nil || leg.TransferID == "" {
			return nil, fmt.Errorf("entry kind %s requires transfer details", kind)
		}
		if kind == KindTransferSent {
			return TransferSent{*leg}, nil
		}
		return TransferReceived{*leg}, nil
	default:
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
}

// Entry represents a single immutable ledger entry.
type Entry struct {
	CreatedAt    time.Time
	Movement     Movement
	ID           string
	AccountID    string
	Description  string
	Status       EntryStatus
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	// BalanceHidden marks a counterparty's leg whose BalanceAfter was withheld.
	BalanceHidden bool
}

// Kind returns the entry kind.
func (e *Entry) Kind() EntryKind {
	return e.Movement.Kind()
}

// Transfer returns the transfer details for transfer entries.
func (e *Entry) Transfer() (TransferLeg, bool) {
	switch m := e.Movement.(type) {
	case TransferSent:
		return m.TransferLeg, true
	case TransferReceived:
		return m.TransferLeg, true
	default:
		return TransferLeg{}, false
	}
}

// OwnedBy reports whether the entry belongs to accountID.
func (e *Entry) OwnedBy(accountID string) bool {
	return e.AccountID == accountID
}

// WithoutBalance returns a copy of the entry with BalanceAfter withheld.
func (e *Entry) WithoutBalance() *Entry {
	c := *e
	c.BalanceAfter = decimal.Zero
	c.BalanceHidden = true
	return &c
}

// EntryPage is a window over an account's history, newest first.
type EntryPage struct {
	Entries      []*Entry
	Page         int
	PageSize     int
	TotalEntries int64
	TotalPages   int
}

// NewEntryPage builds a page and derives the page count from total.
func NewEntryPage(entries []*Entry, page, size int, total int64) *EntryPage {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}

	return &EntryPage{
		Entries:      entries,
		Page:         page,
		PageSize:     size,
		TotalEntries: total,
		TotalPages:   pages,
	}
}
