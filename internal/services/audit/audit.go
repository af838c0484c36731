// Package audit records privileged money-affecting actions and exports them.
// The log is append only: nothing in this package updates or deletes entries.
package audit

import (
	"context"
	"time"

	"tourneypay/internal/models"
	"tourneypay/internal/repositories"

	"gorm.io/datatypes"
)

// Actor identifies who performed an action. OnBehalfOf is set while an
// admin acts through an elevation token.
type Actor struct {
	ID         uint
	OnBehalfOf *uint
	IP         string
}

type Entry struct {
	Action     string
	EntityType string
	EntityID   uint
	Details    map[string]interface{}
}

// Record appends entry through tx so it commits or rolls back with the
// action it describes.
func Record(ctx context.Context, tx repositories.Store, actor Actor, entry Entry, at time.Time) error {
	details := datatypes.JSONMap(entry.Details)
	if details == nil {
		details = datatypes.JSONMap{}
	}
	return tx.AuditLogs().Append(ctx, &models.AuditLogEntry{
		ActorID:    actor.ID,
		OnBehalfOf: actor.OnBehalfOf,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    details,
		IPAddress:  actor.IP,
		CreatedAt:  at,
	})
}

// EffectiveUserID is the user the action is performed for.
func (a Actor) EffectiveUserID() uint {
	if a.OnBehalfOf != nil {
		return *a.OnBehalfOf
	}
	return a.ID
}
