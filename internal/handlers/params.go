package handlers

import (
	"strconv"
	"strings"
	"time"

	"tourneypay/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// parseTime accepts RFC3339 timestamps and plain dates.
func parseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseAuditFilter reads actions, entity_type, entity_id, actor_id, from and to.
func parseAuditFilter(c *fiber.Ctx) (repositories.AuditFilter, string) {
	var filter repositories.AuditFilter

	if raw := c.Query("actions", c.Query("action")); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(strings.ToUpper(a)); a != "" {
				filter.Actions = append(filter.Actions, a)
			}
		}
	}
	filter.EntityType = strings.TrimSpace(c.Query("entity_type"))

	var ok bool
	if filter.EntityID, ok = queryUint(c, "entity_id"); !ok {
		return filter, "entity_id must be a positive integer"
	}
	if filter.ActorID, ok = queryUint(c, "actor_id"); !ok {
		return filter, "actor_id must be a positive integer"
	}
	if filter.From, ok = parseTime(c.Query("from")); !ok {
		return filter, "from must be RFC3339 or YYYY-MM-DD"
	}
	if filter.To, ok = parseTime(c.Query("to")); !ok {
		return filter, "to must be RFC3339 or YYYY-MM-DD"
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, "from must be before to"
	}
	return filter, ""
}
