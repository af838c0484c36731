package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"

	"github.com/google/uuid"
)

type Service struct {
	store   repositories.Store
	metrics MetricsCollector
}

func NewService(store repositories.Store, metrics MetricsCollector) *Service {
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &Service{store: store, metrics: metrics}
}

// Post appends an entry through tx, which must be a transactional Store.
func (s *Service) Post(ctx context.Context, tx repositories.Store, req PostRequest) (*models.LedgerEntry, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("post", time.Since(start)) }()

	if req.Amount <= 0 {
		s.metrics.RecordError("post", "invalid_amount")
		return nil, appErrors.ErrInvalidAmount.WithMessage("ledger amount must be positive, got %d", req.Amount)
	}
	if req.AccountType != models.AccountUser && req.AccountType != models.AccountTournament {
		s.metrics.RecordError("post", "invalid_account")
		return nil, appErrors.ErrInvalidRequest.WithMessage("unknown account type %q", req.AccountType)
	}

	account, err := tx.Ledger().GetAccountForUpdate(ctx, req.AccountType, req.OwnerID)
	if err != nil {
		return nil, err
	}

	old := account.Balance
	switch req.Type {
	case models.EntryCredit:
		account.Balance += req.Amount
	case models.EntryDebit:
		account.Balance -= req.Amount
	default:
		s.metrics.RecordError("post", "invalid_entry_type")
		return nil, fmt.Errorf("unsupported entry type: %s", req.Type)
	}

	entry := &models.LedgerEntry{
		Reference:      uuid.NewString(),
		AccountType:    req.AccountType,
		OwnerID:        req.OwnerID,
		Type:           req.Type,
		Amount:         req.Amount,
		BalanceAfter:   account.Balance,
		Category:       req.Category,
		Description:    req.Description,
		RegistrationID: req.RegistrationID,
		TournamentID:   req.TournamentID,
	}
	if err := tx.Ledger().CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := tx.Ledger().UpdateAccountBalance(ctx, account); err != nil {
		return nil, err
	}

	s.metrics.RecordPosting(req.AccountType, req.Type, req.Amount)
	s.metrics.RecordBalanceChange(req.AccountType, req.OwnerID, old, account.Balance)
	return entry, nil
}

// Balance returns the running balance, zero for an account never posted to.
func (s *Service) Balance(ctx context.Context, accountType string, ownerID uint) (int64, error) {
	account, err := s.store.Ledger().GetAccount(ctx, accountType, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

// History lists entries newest first.
func (s *Service) History(ctx context.Context, accountType string, ownerID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.Ledger().ListEntries(ctx, accountType, ownerID, limit, offset)
}

func (s *Service) Reconcile(ctx context.Context, accountType string, ownerID uint) (*Reconciliation, error) {
	result := &Reconciliation{AccountType: accountType, OwnerID: ownerID}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		account, err := tx.Ledger().GetAccount(ctx, accountType, ownerID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
		case err != nil:
			return err
		default:
			result.StoredBalance = account.Balance
		}

		sum, err := tx.Ledger().SumEntries(ctx, accountType, ownerID)
		if err != nil {
			return err
		}
		result.SignedEntrySum = sum

		latest, err := tx.Ledger().LatestEntry(ctx, accountType, ownerID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
		case err != nil:
			return err
		default:
			result.LatestBalance = latest.BalanceAfter
		}

		_, count, err := tx.Ledger().ListEntries(ctx, accountType, ownerID, 1, 0)
		if err != nil {
			return err
		}
		result.EntryCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Consistent = result.StoredBalance == result.SignedEntrySum &&
		result.LatestBalance == result.SignedEntrySum
	return result, nil
}
