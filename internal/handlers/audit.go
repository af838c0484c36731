package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"time"

	"tourneypay/internal/middleware"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/utils/pagination"
	"tourneypay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	audit *audit.Service
}

func NewAuditHandler(auditSvc *audit.Service) *AuditHandler {
	return &AuditHandler{audit: auditSvc}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter, msg := parseAuditFilter(c)
	if msg != "" {
		return response.BadRequest(c, msg)
	}

	p := pagination.ParseFromRequest(c)
	entries, total, err := h.audit.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return response.Success(c, "Audit log retrieved", pagination.Response(p, entries))
}

// Export streams the filtered log as CSV. Entries are loaded before the
// response starts so a query failure is still reported as an error status.
func (h *AuditHandler) Export(c *fiber.Ctx) error {
	filter, msg := parseAuditFilter(c)
	if msg != "" {
		return response.BadRequest(c, msg)
	}

	entries, err := h.audit.Entries(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}

	filename := fmt.Sprintf("audit-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := audit.WriteCSV(w, entries); err != nil {
			log.Printf("❌ Audit export of %d rows failed: %v", len(entries), err)
			return
		}
		if err := w.Flush(); err != nil {
			log.Printf("❌ Audit export flush failed: %v", err)
		}
	})
	return nil
}

// Archive uploads the filtered log to object storage.
func (h *AuditHandler) Archive(c *fiber.Ctx) error {
	filter, msg := parseAuditFilter(c)
	if msg != "" {
		return response.BadRequest(c, msg)
	}

	result, err := h.audit.Archive(c.UserContext(), middleware.Actor(c), filter)
	if errors.Is(err, audit.ErrArchiveDisabled) {
		return response.Error(c, fiber.StatusServiceUnavailable, err.Error())
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Audit log archived", result)
}
