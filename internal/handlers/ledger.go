package handlers

import (
	"strings"

	"tourneypay/internal/models"
	"tourneypay/internal/services/ledger"
	"tourneypay/internal/utils"
	"tourneypay/internal/utils/pagination"
	"tourneypay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type LedgerHandler struct {
	ledger *ledger.Service
}

func NewLedgerHandler(ledgerSvc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{ledger: ledgerSvc}
}

// account resolves the :type and :owner params and checks the caller may
// read the account. Users read their own account; admins read any. When ok
// is false the response has already been written.
func (h *LedgerHandler) account(c *fiber.Ctx) (accountType string, ownerID uint, ok bool, err error) {
	accountType = strings.ToLower(c.Params("type"))
	if accountType != models.AccountUser && accountType != models.AccountTournament {
		return "", 0, false, response.BadRequest(c, "account type must be user or tournament")
	}
	if ownerID, ok = paramID(c, "owner"); !ok {
		return "", 0, false, response.BadRequest(c, "Invalid owner ID")
	}

	claims, cerr := utils.GetUserClaims(c)
	if cerr != nil {
		return "", 0, false, response.Unauthorized(c)
	}
	if claims.Role != models.RoleAdmin && (accountType != models.AccountUser || claims.UserID != ownerID) {
		return "", 0, false, response.Forbidden(c)
	}
	return accountType, ownerID, true, nil
}

func (h *LedgerHandler) History(c *fiber.Ctx) error {
	accountType, ownerID, ok, err := h.account(c)
	if !ok {
		return err
	}

	p := pagination.ParseFromRequest(c)
	entries, total, err := h.ledger.History(c.UserContext(), accountType, ownerID, p.Limit, p.Offset)
	if err != nil {
		return response.FromError(c, err)
	}
	balance, err := h.ledger.Balance(c.UserContext(), accountType, ownerID)
	if err != nil {
		return response.FromError(c, err)
	}

	p.Total = total
	body := pagination.Response(p, entries)
	body["balance"] = balance
	return response.Success(c, "Ledger history retrieved", body)
}

// Reconcile compares the stored balance with the sum of the entries.
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	accountType, ownerID, ok, err := h.account(c)
	if !ok {
		return err
	}

	rec, err := h.ledger.Reconcile(c.UserContext(), accountType, ownerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ledger reconciled", rec)
}
