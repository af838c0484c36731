package repositories

import (
	"context"
	"fmt"

	"tourneypay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository has no update or delete path for entries.
type LedgerRepository interface {
	// GetAccountForUpdate locks the account row, creating a zero balance
	// account on first use.
	GetAccountForUpdate(ctx context.Context, accountType string, ownerID uint) (*models.LedgerAccount, error)
	GetAccount(ctx context.Context, accountType string, ownerID uint) (*models.LedgerAccount, error)
	UpdateAccountBalance(ctx context.Context, account *models.LedgerAccount) error
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, accountType string, ownerID uint, limit, offset int) ([]models.LedgerEntry, int64, error)
	SumEntries(ctx context.Context, accountType string, ownerID uint) (int64, error)
	LatestEntry(ctx context.Context, accountType string, ownerID uint) (*models.LedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func (r *ledgerRepository) GetAccountForUpdate(ctx context.Context, accountType string, ownerID uint) (*models.LedgerAccount, error) {
	db := r.db.WithContext(ctx)

	seed := models.LedgerAccount{AccountType: accountType, OwnerID: ownerID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("failed to open ledger account: %w", err)
	}

	var account models.LedgerAccount
	err := forUpdate(db).
		Where("account_type = ? AND owner_id = ?", accountType, ownerID).
		First(&account).Error
	if err != nil {
		return nil, notFoundOr(err, "lock ledger account")
	}
	return &account, nil
}

func (r *ledgerRepository) GetAccount(ctx context.Context, accountType string, ownerID uint) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).
		Where("account_type = ? AND owner_id = ?", accountType, ownerID).
		First(&account).Error
	if err != nil {
		return nil, notFoundOr(err, "get ledger account")
	}
	return &account, nil
}

func (r *ledgerRepository) UpdateAccountBalance(ctx context.Context, account *models.LedgerAccount) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("id = ?", account.ID).
		Update("balance", account.Balance)
	if result.Error != nil {
		return fmt.Errorf("failed to update ledger balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ledgerRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, accountType string, ownerID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_type = ? AND owner_id = ?", accountType, ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (r *ledgerRepository) SumEntries(ctx context.Context, accountType string, ownerID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_type = ? AND owner_id = ?", accountType, ownerID).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", models.EntryDebit).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) LatestEntry(ctx context.Context, accountType string, ownerID uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_type = ? AND owner_id = ?", accountType, ownerID).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return nil, notFoundOr(err, "get latest ledger entry")
	}
	return &entry, nil
}
