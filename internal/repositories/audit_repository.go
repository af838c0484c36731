package repositories

import (
	"context"
	"fmt"
	"time"

	"tourneypay/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AuditFilter narrows audit queries. Zero values match everything.
type AuditFilter struct {
	Actions    []string
	EntityType string
	EntityID   uint
	ActorID    uint
	From       time.Time
	To         time.Time
}

// Matches applies the filter to a single entry.
func (f AuditFilter) Matches(e *models.AuditLogEntry) bool {
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == e.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.EntityType != "" && f.EntityType != e.EntityType {
		return false
	}
	if f.EntityID != 0 && f.EntityID != e.EntityID {
		return false
	}
	if f.ActorID != 0 && f.ActorID != e.ActorID {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
	// List returns entries oldest first. A limit of 0 returns every match.
	List(ctx context.Context, filter AuditFilter, limit, offset int) ([]models.AuditLogEntry, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogEntry{})
	if len(filter.Actions) > 0 {
		query = query.Where("action = ANY(?)", pq.Array(filter.Actions))
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != 0 {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query = query.Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var entries []models.AuditLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}
