package dto

import (
	"time"

	"github.com/iho/bankledger/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	OwnerID   string    `json:"owner_id"`
	Balance   string    `json:"balance"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Number:    a.Number,
		OwnerID:   a.OwnerID,
		Balance:   a.Balance.StringFixed(domain.MoneyScale),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                     string    `json:"id"`
	AccountID              string    `json:"account_id"`
	Kind                   string    `json:"kind"`
	Amount                 string    `json:"amount"`
	Description            string    `json:"description"`
	BalanceAfter           string    `json:"balance_after,omitempty"`
	Status                 string    `json:"status"`
	TransferID             string    `json:"transfer_id,omitempty"`
	SenderAccountNumber    string    `json:"sender_account_number,omitempty"`
	RecipientAccountNumber string    `json:"recipient_account_number,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// EntryFromDomain converts a domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Kind:        string(e.Kind()),
		Amount:      e.Amount.StringFixed(domain.MoneyScale),
		Description: e.Description,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
	}

	if !e.BalanceHidden {
		resp.BalanceAfter = e.BalanceAfter.StringFixed(domain.MoneyScale)
	}

	if leg, ok := e.Transfer(); ok {
		resp.TransferID = leg.TransferID
		resp.SenderAccountNumber = leg.SenderAccountNumber
		resp.RecipientAccountNumber = leg.RecipientAccountNumber
	}

	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntryPageResponse is one page of history.
type EntryPageResponse struct {
	Entries      []*EntryResponse `json:"entries"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
	TotalEntries int64            `json:"total_entries"`
	TotalPages   int              `json:"total_pages"`
}

// EntryPageFromDomain converts a page of entries to response.
func EntryPageFromDomain(p *domain.EntryPage) *EntryPageResponse {
	return &EntryPageResponse{
		Entries:      EntriesFromDomain(p.Entries),
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalEntries: p.TotalEntries,
		TotalPages:   p.TotalPages,
	}
}

// MismatchResponse is an account whose balance disagrees with its history.
type MismatchResponse struct {
	AccountID        string `json:"account_id"`
	Balance          string `json:"balance"`
	LastBalanceAfter string `json:"last_balance_after"`
}

// ConsistencyResponse is the result of a ledger audit.
type ConsistencyResponse struct {
	Consistent       bool               `json:"consistent"`
	CheckedAt        time.Time          `json:"checked_at"`
	TotalBalance     string             `json:"total_balance"`
	TotalDeposits    string             `json:"total_deposits"`
	TotalWithdrawals string             `json:"total_withdrawals"`
	TotalSent        string             `json:"total_sent"`
	TotalReceived    string             `json:"total_received"`
	Mismatches       []MismatchResponse `json:"mismatches"`
}

// ConsistencyFromDomain converts a consistency report to response.
func ConsistencyFromDomain(r *domain.ConsistencyReport) *ConsistencyResponse {
	mismatches := make([]MismatchResponse, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		mismatches = append(mismatches, MismatchResponse{
			AccountID:        m.AccountID,
			Balance:          m.Balance.StringFixed(domain.MoneyScale),
			LastBalanceAfter: m.LastBalanceAfter.StringFixed(domain.MoneyScale),
		})
	}

	return &ConsistencyResponse{
		Consistent:       r.Consistent,
		CheckedAt:        r.CheckedAt,
		TotalBalance:     r.Totals.TotalBalance.StringFixed(domain.MoneyScale),
		TotalDeposits:    r.Totals.TotalDeposits.StringFixed(domain.MoneyScale),
		TotalWithdrawals: r.Totals.TotalWithdrawals.StringFixed(domain.MoneyScale),
		TotalSent:        r.Totals.TotalSent.StringFixed(domain.MoneyScale),
		TotalReceived:    r.Totals.TotalReceived.StringFixed(domain.MoneyScale),
		Mismatches:       mismatches,
	}
}
