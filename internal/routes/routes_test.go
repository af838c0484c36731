package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourneypay/internal/config"
	"tourneypay/internal/middleware"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories/memory"
	"tourneypay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtSecret = "routes-test-secret"
	passcode  = "open-sesame-42"

	adminID     = uint(1)
	organizerID = uint(5)
	playerID    = uint(21)
)

type harness struct {
	t      *testing.T
	app    *fiber.App
	store  *memory.Store
	tokens map[uint]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.New()
	deps := Dependencies{
		Store: store,
		Settlement: config.Settlement{
			PlatformFeePercent: decimal.NewFromInt(5),
			ElevationTTL:       5 * time.Minute,
			ElevationSecret:    "elevation-secret",
			AdminPasscodeHash:  string(hash),
			IdempotencyTTL:     time.Minute,
		},
		JWTSecret: jwtSecret,
	}
	app := fiber.New()
	SetupRoutes(app, deps, NewServices(deps))

	h := &harness{t: t, app: app, store: store, tokens: map[uint]string{}}
	for id, role := range map[uint]string{adminID: models.RoleAdmin, organizerID: models.RoleOrganizer, playerID: models.RolePlayer, 22: models.RolePlayer} {
		token, err := utils.GenerateAccessToken(&models.UserClaims{UserID: id, Role: role}, jwtSecret, time.Hour)
		require.NoError(t, err)
		h.tokens[id] = token
	}
	return h
}

func (h *harness) seed(fee int64) (*models.Tournament, *models.Category) {
	h.t.Helper()
	ctx := context.Background()
	now := time.Now()
	tournament := &models.Tournament{
		Name:        "Harbour Open",
		OrganizerID: organizerID,
		StartDate:   now.Add(-24 * time.Hour),
		EndDate:     now.Add(24 * time.Hour),
	}
	require.NoError(h.t, h.store.Tournaments().Create(ctx, tournament))
	category := &models.Category{TournamentID: tournament.ID, Name: "Open Singles", EntryFee: fee}
	require.NoError(h.t, h.store.Categories().Create(ctx, category))
	return tournament, category
}

func (h *harness) do(method, path string, as uint, body interface{}, headers ...string) (int, map[string]interface{}) {
	h.t.Helper()
	status, raw := h.raw(method, path, as, body, headers...)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return status, out
}

func (h *harness) raw(method, path string, as uint, body interface{}, headers ...string) (int, []byte) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != 0 {
		req.Header.Set("Authorization", "Bearer "+h.tokens[as])
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, raw
}

func data(body map[string]interface{}) map[string]interface{} {
	d, _ := body["data"].(map[string]interface{})
	return d
}

func TestSplitIsPublic(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodGet, "/api/split?total=1000", 0, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 50, data(body)["platform_fee_amount"])
	assert.EqualValues(t, 285, data(body)["payout1"])
	assert.EqualValues(t, 665, data(body)["payout2"])

	status, _ = h.do(http.MethodGet, "/api/split?total=abc", 0, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = h.do(http.MethodGet, "/api/split?total=1000&percent=10", 0, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 100, data(body)["platform_fee_amount"])
}

func TestFeeLockOverHTTP(t *testing.T) {
	h := newHarness(t)
	_, category := h.seed(100)
	categoryPath := fmt.Sprintf("/api/categories/%d", category.ID)

	status, body := h.do(http.MethodPut, categoryPath, organizerID, map[string]interface{}{"entry_fee": 150})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 150, data(body)["entry_fee"])

	status, body = h.do(http.MethodPost, categoryPath+"/registrations", playerID, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 150, data(body)["amount_total"])

	status, body = h.do(http.MethodPost, categoryPath+"/fee-check", organizerID, map[string]interface{}{"entry_fee": 200})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "FEE_LOCKED", body["code"])
	assert.EqualValues(t, 150, body["current_fee"])
	assert.EqualValues(t, 200, body["attempted_fee"])
	assert.EqualValues(t, 1, body["registration_count"])

	status, body = h.do(http.MethodPut, categoryPath, organizerID, map[string]interface{}{"name": "Open Singles A", "max_participants": 16})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Open Singles A", data(body)["name"])

	// Players cannot edit categories.
	status, _ = h.do(http.MethodPut, categoryPath, playerID, map[string]interface{}{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(http.MethodPost, categoryPath+"/fee-check", organizerID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestSettlementOverHTTP(t *testing.T) {
	h := newHarness(t)
	tournament, category := h.seed(1000)

	status, body := h.do(http.MethodPost, fmt.Sprintf("/api/categories/%d/registrations", category.ID), playerID, nil)
	require.Equal(t, http.StatusCreated, status, body)
	registrationID := uint(data(body)["id"].(float64))

	paymentPath := fmt.Sprintf("/api/registrations/%d/payments", registrationID)

	// Another player cannot file a proof against this registration.
	status, body = h.do(http.MethodPost, paymentPath, 22, map[string]interface{}{"screenshot_ref": "uploads/fake.png", "amount": 1000})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
	status, body = h.do(http.MethodPost, paymentPath, playerID, map[string]interface{}{"screenshot_ref": "uploads/p.png", "amount": 900})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AMOUNT_MISMATCH", body["code"])

	status, body = h.do(http.MethodPost, paymentPath, playerID, map[string]interface{}{"screenshot_ref": "uploads/p.png", "amount": 1000},
		middleware.IdempotencyHeader, "pay-1")
	require.Equal(t, http.StatusCreated, status, body)
	verificationID := uint(data(body)["id"].(float64))

	approvePath := fmt.Sprintf("/api/verifications/%d/approve", verificationID)
	status, _ = h.do(http.MethodPost, approvePath, playerID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(http.MethodPost, approvePath, organizerID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, models.VerificationApproved, data(body)["status"])

	status, body = h.do(http.MethodPost, approvePath, organizerID, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_FINALIZED", body["code"])

	status, body = h.do(http.MethodGet, fmt.Sprintf("/api/tournaments/%d/payment", tournament.ID), organizerID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1000, data(body)["total_collected"])
	assert.EqualValues(t, 950, data(body)["organizer_share"])

	payoutPath := fmt.Sprintf("/api/admin/tournaments/%d/payouts/", tournament.ID)
	status, _ = h.do(http.MethodPost, payoutPath+"1", organizerID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(http.MethodPost, payoutPath+"1", adminID, map[string]interface{}{"notes": "NEFT 4471"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, models.PayoutPaid, data(body)["payout1_status"])

	status, body = h.do(http.MethodPost, payoutPath+"1", adminID, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_PAID", body["code"])

	status, body = h.do(http.MethodPost, payoutPath+"2", adminID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "NOT_YET_DUE", body["code"])

	status, body = h.do(http.MethodPost, payoutPath+"3", adminID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INSTALLMENT", body["code"])

	status, body = h.do(http.MethodGet, fmt.Sprintf("/api/admin/ledger/tournament/%d/reconcile", tournament.ID), adminID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, data(body)["consistent"])
	assert.EqualValues(t, 715, data(body)["stored_balance"])

	status, body = h.do(http.MethodGet, fmt.Sprintf("/api/ledger/user/%d", organizerID), organizerID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 285, data(body)["balance"])

	status, _ = h.do(http.MethodGet, fmt.Sprintf("/api/ledger/tournament/%d", tournament.ID), playerID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(http.MethodGet, fmt.Sprintf("/api/ledger/user/%d", organizerID), playerID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := h.raw(http.MethodGet, "/api/admin/audit/export?actions=payment_approve,payout_marked_paid", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	csv := string(raw)
	assert.True(t, strings.HasPrefix(csv, "id,created_at,actor_id"), csv)
	assert.Contains(t, csv, models.AuditPaymentApprove)
	assert.Contains(t, csv, models.AuditPayoutMarkedPaid)
	assert.Equal(t, 3, strings.Count(csv, "\n"))

	status, body = h.do(http.MethodGet, "/api/admin/audit?actions=PAYOUT_MARKED_PAID", adminID, nil)
	require.Equal(t, http.StatusOK, status, body)
	meta := data(body)["meta"].(map[string]interface{})
	assert.EqualValues(t, 1, meta["total_items"])

	status, _ = h.do(http.MethodPost, "/api/admin/audit/archive", adminID, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestElevatedCancellationOverHTTP(t *testing.T) {
	h := newHarness(t)
	_, category := h.seed(0)

	status, body := h.do(http.MethodPost, fmt.Sprintf("/api/categories/%d/registrations", category.ID), playerID, nil)
	require.Equal(t, http.StatusCreated, status, body)
	cancelPath := fmt.Sprintf("/api/registrations/%v/cancellation", data(body)["id"])

	request := map[string]interface{}{"reason": "Cannot travel that weekend", "refund_upi_id": "player21@okaxis"}

	// Another player cannot cancel someone else's registration.
	status, body = h.do(http.MethodPost, cancelPath, 22, request)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	status, body = h.do(http.MethodPost, "/api/admin/elevation", adminID, map[string]interface{}{"target_user_id": playerID, "passcode": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_PASSCODE", body["code"])

	status, body = h.do(http.MethodPost, "/api/admin/elevation", adminID, map[string]interface{}{"target_user_id": playerID, "passcode": passcode})
	require.Equal(t, http.StatusCreated, status, body)
	token := data(body)["token"].(string)

	status, body = h.do(http.MethodPost, cancelPath, adminID, request, middleware.ElevationHeader, token)
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, playerID, data(body)["player_id"])
	assert.EqualValues(t, 0, data(body)["refund_amount"])

	status, body = h.do(http.MethodPost, fmt.Sprintf("/api/cancellations/%v/decision", data(body)["id"]), adminID, map[string]interface{}{"approve": false})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, models.CancellationRejected, data(body)["status"])

	status, body = h.do(http.MethodGet, "/api/admin/audit?actions=user_impersonate,cancellation_request", adminID, nil)
	require.Equal(t, http.StatusOK, status, body)
	entries := data(body)["data"].([]interface{})
	require.Len(t, entries, 2)
	second := entries[1].(map[string]interface{})
	assert.Equal(t, models.AuditCancellationRequest, second["action"])
	assert.EqualValues(t, adminID, second["actor_id"])
	assert.EqualValues(t, playerID, second["on_behalf_of"])
}
