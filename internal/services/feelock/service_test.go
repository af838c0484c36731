package feelock

import (
	"context"
	"errors"
	"testing"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/repositories/memory"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/services/registration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var organizer = audit.Actor{ID: 50, IP: "10.0.0.1"}

func seedCategory(t *testing.T, store *memory.Store, fee int64) *models.Category {
	t.Helper()
	ctx := context.Background()
	tournament := &models.Tournament{Name: "City Open", OrganizerID: organizer.ID}
	require.NoError(t, store.Tournaments().Create(ctx, tournament))
	category := &models.Category{TournamentID: tournament.ID, Name: "Men's Doubles", EntryFee: fee}
	require.NoError(t, store.Categories().Create(ctx, category))
	return category
}

func ptr[T any](v T) *T { return &v }

func TestFeeLock_Scenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store)
	category := seedCategory(t, store, 100)

	// No registrations: the fee moves freely.
	decision, err := svc.CanChangeFee(ctx, category.ID, 150)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	updated, err := svc.UpdateCategory(ctx, organizer, category.ID, CategoryUpdate{EntryFee: ptr(int64(150))})
	require.NoError(t, err)
	assert.Equal(t, int64(150), updated.EntryFee)

	reg, err := registration.NewService(store).Register(ctx, category.ID, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(150), reg.AmountTotal)

	decision, err = svc.CanChangeFee(ctx, category.ID, 200)
	var locked *appErrors.FeeLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, int64(150), locked.CurrentFee)
	assert.Equal(t, int64(200), locked.AttemptedFee)
	assert.Equal(t, int64(1), locked.RegistrationCount)
	require.NotNil(t, decision)
	assert.False(t, decision.Allowed)

	_, err = svc.UpdateCategory(ctx, organizer, category.ID, CategoryUpdate{EntryFee: ptr(int64(200)), Name: ptr("Renamed")})
	assert.True(t, errors.Is(err, appErrors.ErrFeeLocked))

	// The rejected update changed nothing.
	current, err := store.Categories().GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), current.EntryFee)
	assert.Equal(t, "Men's Doubles", current.Name)

	// Re-submitting the current fee is not a change.
	decision, err = svc.CanChangeFee(ctx, category.ID, 150)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	updated, err = svc.UpdateCategory(ctx, organizer, category.ID, CategoryUpdate{Name: ptr("Open Doubles"), MaxParticipants: ptr(32)})
	require.NoError(t, err)
	assert.Equal(t, "Open Doubles", updated.Name)
	assert.Equal(t, 32, updated.MaxParticipants)
	assert.Equal(t, int64(150), updated.EntryFee)

	entries, _, err := store.AuditLogs().List(ctx, repositories.AuditFilter{Actions: []string{models.AuditCategoryFeeChange}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, organizer.ID, entries[0].ActorID)
}

func TestFeeLock_CancelledRegistrationsDoNotLock(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store)
	category := seedCategory(t, store, 100)

	require.NoError(t, store.Registrations().Create(ctx, &models.Registration{
		TournamentID: category.TournamentID, CategoryID: category.ID, PlayerID: 3,
		Status: models.RegistrationCancelled, AmountTotal: 100,
	}))

	decision, err := svc.CanChangeFee(ctx, category.ID, 250)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.RegistrationCount)
}

func TestFeeLock_Rejects(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store)
	category := seedCategory(t, store, 100)

	_, err := svc.CanChangeFee(ctx, category.ID, -1)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidAmount))

	_, err = svc.CanChangeFee(ctx, 999, 100)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.UpdateCategory(ctx, organizer, category.ID, CategoryUpdate{Name: ptr("  ")})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidRequest))

	_, err = svc.UpdateCategory(ctx, organizer, category.ID, CategoryUpdate{MaxParticipants: ptr(-2)})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidRequest))
}

func TestFeeLock_AuditFailureRollsBackFeeChange(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store)
	category := seedCategory(t, store, 100)

	store.FailAuditAppends(errors.New("audit down"))
	_, err := svc.UpdateCategory(ctx, organizer, category.ID, CategoryUpdate{EntryFee: ptr(int64(300))})
	assert.Error(t, err)

	current, err := store.Categories().GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), current.EntryFee)
}
