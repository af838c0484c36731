package models

import "time"

// Ledger account types
const (
	AccountUser       = "user"
	AccountTournament = "tournament"
)

// Ledger entry types
const (
	EntryCredit = "CREDIT"
	EntryDebit  = "DEBIT"
)

// Ledger entry categories
const (
	LedgerEntryFee = "ENTRY_FEE"
	LedgerRefund   = "REFUND"
	LedgerPayout   = "PAYOUT"
)

// LedgerAccount holds the running balance of a user or tournament account.
// It is the row locked while an entry is posted.
type LedgerAccount struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AccountType string    `gorm:"not null;uniqueIndex:idx_ledger_account_owner,priority:1" json:"account_type"`
	OwnerID     uint      `gorm:"not null;uniqueIndex:idx_ledger_account_owner,priority:2" json:"owner_id"`
	Balance     int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LedgerEntry is immutable once written.
type LedgerEntry struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Reference      string    `gorm:"type:uuid;not null;uniqueIndex" json:"reference"`
	AccountType    string    `gorm:"not null;index:idx_ledger_entry_account,priority:1" json:"account_type"`
	OwnerID        uint      `gorm:"not null;index:idx_ledger_entry_account,priority:2" json:"owner_id"`
	Type           string    `gorm:"not null" json:"type"`
	Amount         int64     `gorm:"not null" json:"amount"`
	BalanceAfter   int64     `gorm:"not null" json:"balance_after"`
	Category       string    `gorm:"not null" json:"category"`
	Description    string    `json:"description"`
	RegistrationID *uint     `gorm:"index" json:"registration_id,omitempty"`
	TournamentID   *uint     `gorm:"index" json:"tournament_id,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_ledger_entry_account,priority:3" json:"created_at"`
}

// Signed returns the entry amount with its ledger sign applied.
func (e *LedgerEntry) Signed() int64 {
	if e.Type == EntryDebit {
		return -e.Amount
	}
	return e.Amount
}
