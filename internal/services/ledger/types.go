package ledger

import "time"

// PostRequest describes one ledger posting.
type PostRequest struct {
	AccountType    string
	OwnerID        uint
	Type           string
	Amount         int64
	Category       string
	Description    string
	RegistrationID *uint
	TournamentID   *uint
}

// Reconciliation is the result of re-summing an account.
type Reconciliation struct {
	AccountType    string `json:"account_type"`
	OwnerID        uint   `json:"owner_id"`
	StoredBalance  int64  `json:"stored_balance"`
	LatestBalance  int64  `json:"latest_balance_after"`
	SignedEntrySum int64  `json:"signed_entry_sum"`
	EntryCount     int64  `json:"entry_count"`
	Consistent     bool   `json:"consistent"`
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordPosting(accountType, entryType string, amount int64)
	RecordBalanceChange(accountType string, ownerID uint, oldBalance, newBalance int64)
	RecordError(operation, errorType string)
}
