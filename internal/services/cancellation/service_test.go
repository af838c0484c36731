package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/repositories/memory"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/services/ledger"
	"tourneypay/internal/services/payout"
	"tourneypay/internal/services/split"
	"tourneypay/internal/services/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	player   = audit.Actor{ID: 21, IP: "10.0.0.21"}
	reviewer = audit.Actor{ID: 90, IP: "10.0.0.90"}
	start    = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	store        *memory.Store
	ledger       *ledger.Service
	verification *verification.Service
	svc          *Service
	tournament   *models.Tournament
	registration *models.Registration
}

func newFixture(t *testing.T, policy RefundPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	tournament := &models.Tournament{Name: "Winter Slam", OrganizerID: 5, StartDate: start, EndDate: start.Add(48 * time.Hour)}
	require.NoError(t, store.Tournaments().Create(ctx, tournament))
	category := &models.Category{TournamentID: tournament.ID, Name: "Singles", EntryFee: 1000}
	require.NoError(t, store.Categories().Create(ctx, category))
	partner := uint(22)
	registration := &models.Registration{
		TournamentID:  tournament.ID,
		CategoryID:    category.ID,
		PlayerID:      player.ID,
		PartnerID:     &partner,
		Status:        models.RegistrationPending,
		PaymentStatus: models.PaymentPending,
		AmountTotal:   1000,
	}
	require.NoError(t, store.Registrations().Create(ctx, registration))

	ledgerSvc := ledger.NewService(store, nil)
	payoutSvc := payout.NewService(store, ledgerSvc, nil, payout.Config{PlatformFeePercent: split.DefaultPlatformFeePercent})
	clock := func() time.Time { return start.Add(-10 * 24 * time.Hour) }
	return &fixture{
		store:        store,
		ledger:       ledgerSvc,
		verification: verification.NewService(store, ledgerSvc, payoutSvc),
		svc:          NewService(store, ledgerSvc, payoutSvc, policy).WithClock(clock),
		tournament:   tournament,
		registration: registration,
	}
}

// pay settles the registration's entry fee.
func (f *fixture) pay(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	v, err := f.verification.Submit(ctx, player, f.registration.ID, "uploads/proof.png", 1000)
	require.NoError(t, err)
	_, err = f.verification.Approve(ctx, reviewer, v.ID)
	require.NoError(t, err)
}

func (f *fixture) request(t *testing.T) *models.CancellationRequest {
	t.Helper()
	request, err := f.svc.Request(context.Background(), player, RequestInput{
		RegistrationID: f.registration.ID,
		Reason:         "Work travel clashes with the event",
		RefundUpiID:    "player21@okaxis",
	})
	require.NoError(t, err)
	return request
}

func TestCancellationScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.pay(t)

	request := f.request(t)
	assert.Equal(t, int64(1000), request.RefundAmount)
	assert.Equal(t, models.RegistrationConfirmed, request.PriorStatus)

	reg, err := f.store.Registrations().GetByID(ctx, f.registration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancellationRequested, reg.Status)

	decided, err := f.svc.Decide(ctx, reviewer, request.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CancellationApproved, decided.Status)
	require.NotNil(t, decided.FinalRefundAmount)
	assert.Equal(t, int64(1000), *decided.FinalRefundAmount)

	reg, err = f.store.Registrations().GetByID(ctx, f.registration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, reg.Status)
	assert.Equal(t, models.PaymentRefunded, reg.PaymentStatus)
	assert.Equal(t, models.RefundStatusRefunded, reg.RefundStatus)

	entries, _, err := f.ledger.History(ctx, models.AccountTournament, f.tournament.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryDebit, entries[0].Type)
	assert.Equal(t, models.LedgerRefund, entries[0].Category)
	assert.Equal(t, int64(1000), entries[0].Amount)
	assert.Zero(t, entries[0].BalanceAfter)

	p, err := f.store.TournamentPayments().GetByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, p.TotalCollected)
	assert.Equal(t, int64(1000), p.TotalRefunded)
	assert.Zero(t, p.Payout1Amount)
	assert.Zero(t, p.Payout2Amount)

	_, err = f.svc.Decide(ctx, reviewer, request.ID, false, nil)
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyFinalized))

	logs, _, err := f.store.AuditLogs().List(ctx, repositories.AuditFilter{EntityType: models.EntityCancellationRequest}, 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditCancellationRequest, logs[0].Action)
	assert.Equal(t, models.AuditCancellationApprove, logs[1].Action)
}

func TestDecide_RejectRestoresPriorStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	request := f.request(t)
	assert.Zero(t, request.RefundAmount)
	assert.Equal(t, models.RegistrationPending, request.PriorStatus)

	decided, err := f.svc.Decide(ctx, reviewer, request.ID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CancellationRejected, decided.Status)

	reg, err := f.store.Registrations().GetByID(ctx, f.registration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, reg.Status)

	// The player may ask again.
	again := f.request(t)
	assert.NotEqual(t, request.ID, again.ID)
}

func TestDecide_AdjustedRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.pay(t)
	request := f.request(t)

	tooMuch := int64(1001)
	_, err := f.svc.Decide(ctx, reviewer, request.ID, true, &tooMuch)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidAmount))

	negative := int64(-1)
	_, err = f.svc.Decide(ctx, reviewer, request.ID, true, &negative)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidAmount))

	partial := int64(400)
	decided, err := f.svc.Decide(ctx, reviewer, request.ID, true, &partial)
	require.NoError(t, err)
	assert.Equal(t, int64(400), *decided.FinalRefundAmount)

	balance, err := f.ledger.Balance(ctx, models.AccountTournament, f.tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)

	p, err := f.store.TournamentPayments().GetByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), p.TotalCollected)
	assert.Equal(t, int64(570), p.OrganizerShare)
}

func TestDecide_UnpaidRegistrationRefundsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	request := f.request(t)

	amount := int64(500)
	_, err := f.svc.Decide(ctx, reviewer, request.ID, true, &amount)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidAmount))

	decided, err := f.svc.Decide(ctx, reviewer, request.ID, true, nil)
	require.NoError(t, err)
	assert.Zero(t, *decided.FinalRefundAmount)

	rec, err := f.ledger.Reconcile(ctx, models.AccountTournament, f.tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, rec.EntryCount)

	reg, err := f.store.Registrations().GetByID(ctx, f.registration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, reg.Status)
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
}

func TestRequest_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	valid := RequestInput{RegistrationID: f.registration.ID, Reason: "Work travel clashes with the event", RefundUpiID: "player21@okaxis"}

	in := valid
	in.Reason = "sick"
	_, err := f.svc.Request(ctx, player, in)
	assert.True(t, errors.Is(err, appErrors.ErrReasonTooShort))

	in = valid
	in.RefundUpiID = "player21"
	_, err = f.svc.Request(ctx, player, in)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidUPI))

	_, err = f.svc.Request(ctx, audit.Actor{ID: 77}, valid)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidRequest))

	// The partner may cancel, and only one request can be open.
	_, err = f.svc.Request(ctx, audit.Actor{ID: 22}, valid)
	require.NoError(t, err)
	_, err = f.svc.Request(ctx, player, valid)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestRequest_OnBehalfOfPlayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	target := player.ID
	request, err := f.svc.Request(ctx, audit.Actor{ID: 1, OnBehalfOf: &target}, RequestInput{
		RegistrationID: f.registration.ID,
		Reason:         "Player called support to cancel",
		RefundUpiID:    "player21@okaxis",
	})
	require.NoError(t, err)
	assert.Equal(t, player.ID, request.PlayerID)

	logs, _, err := f.store.AuditLogs().List(ctx, repositories.AuditFilter{Actions: []string{models.AuditCancellationRequest}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint(1), logs[0].ActorID)
	require.NotNil(t, logs[0].OnBehalfOf)
	assert.Equal(t, player.ID, *logs[0].OnBehalfOf)
}

func TestSlidingScalePolicy(t *testing.T) {
	policy := NewSlidingScalePolicy(Tier{MinDaysBefore: 2, Percent: 50}, Tier{MinDaysBefore: 7, Percent: 100})
	tournament := &models.Tournament{StartDate: start}
	paid := &models.Registration{PaymentStatus: models.PaymentCompleted, AmountTotal: 999}

	assert.Equal(t, int64(999), policy.RefundAmount(paid, tournament, start.Add(-8*24*time.Hour)))
	assert.Equal(t, int64(500), policy.RefundAmount(paid, tournament, start.Add(-3*24*time.Hour)))
	assert.Zero(t, policy.RefundAmount(paid, tournament, start.Add(-time.Hour)))
	assert.Zero(t, policy.RefundAmount(paid, tournament, start.Add(time.Hour)))

	unpaid := &models.Registration{PaymentStatus: models.PaymentSubmitted, AmountTotal: 999}
	assert.Zero(t, policy.RefundAmount(unpaid, tournament, start.Add(-30*24*time.Hour)))
}

func TestDaysBefore(t *testing.T) {
	assert.Equal(t, 3, DaysBefore(start, start.Add(-3*24*time.Hour)))
	assert.Equal(t, 0, DaysBefore(start, start.Add(-time.Hour)))
	assert.Equal(t, -1, DaysBefore(start, start.Add(time.Hour)))
}
