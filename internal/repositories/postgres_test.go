package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"tourneypay/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errRollback = errors.New("rollback")

// withPostgres runs fn inside a transaction on TEST_DATABASE_DSN that is
// always rolled back. The test is skipped when no database is configured.
func withPostgres(t *testing.T, fn func(ctx context.Context, store Store)) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx := context.Background()
	err = NewStore(db).ExecuteInTransaction(ctx, func(tx Store) error {
		fn(ctx, tx)
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
}

func seedTournament(t *testing.T, ctx context.Context, store Store) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		Name:        "District Open",
		OrganizerID: 5,
		StartDate:   time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 6, 3, 18, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Tournaments().Create(ctx, tournament))
	return tournament
}

func TestPostgres_MarkInstallmentPaid(t *testing.T) {
	withPostgres(t, func(ctx context.Context, store Store) {
		tournament := seedTournament(t, ctx, store)
		repo := store.TournamentPayments()

		p, err := repo.GetOrCreateForUpdate(ctx, tournament.ID, tournament.OrganizerID, "0")
		require.NoError(t, err)
		assert.Equal(t, "0", p.PlatformFeePercent)

		again, err := repo.GetOrCreateForUpdate(ctx, tournament.ID, tournament.OrganizerID, "5")
		require.NoError(t, err)
		assert.Equal(t, p.ID, again.ID)
		assert.Equal(t, "0", again.PlatformFeePercent)

		paidAt := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
		won, err := repo.MarkInstallmentPaid(ctx, tournament.ID, 2, paidAt, 1, "NEFT 88")
		require.NoError(t, err)
		assert.True(t, won)

		won, err = repo.MarkInstallmentPaid(ctx, tournament.ID, 2, paidAt, 1, "again")
		require.NoError(t, err)
		assert.False(t, won)

		stored, err := repo.GetByTournament(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PayoutPending, stored.Payout1Status)
		assert.Equal(t, models.PayoutPaid, stored.Payout2Status)
		assert.Equal(t, "NEFT 88", stored.Payout2Notes)
		require.NotNil(t, stored.Payout2PaidBy)
		assert.Equal(t, uint(1), *stored.Payout2PaidBy)

		pending, err := repo.ListWithPendingPayouts(ctx)
		require.NoError(t, err)
		found := false
		for _, pp := range pending {
			found = found || pp.TournamentID == tournament.ID
		}
		assert.True(t, found)
	})
}

func TestPostgres_CountActiveByCategory(t *testing.T) {
	withPostgres(t, func(ctx context.Context, store Store) {
		tournament := seedTournament(t, ctx, store)
		category := &models.Category{TournamentID: tournament.ID, Name: "Doubles", EntryFee: 500}
		require.NoError(t, store.Categories().Create(ctx, category))

		for i, status := range []string{models.RegistrationPending, models.RegistrationConfirmed, models.RegistrationCancelled, models.RegistrationRejected} {
			require.NoError(t, store.Registrations().Create(ctx, &models.Registration{
				TournamentID:  tournament.ID,
				CategoryID:    category.ID,
				PlayerID:      uint(100 + i),
				Status:        status,
				PaymentStatus: models.PaymentPending,
				AmountTotal:   500,
			}))
		}

		count, err := store.Registrations().CountActiveByCategory(ctx, category.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		locked, err := store.Categories().GetForUpdate(ctx, category.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), locked.EntryFee)
	})
}

func TestPostgres_LedgerAccountSeeding(t *testing.T) {
	withPostgres(t, func(ctx context.Context, store Store) {
		tournament := seedTournament(t, ctx, store)
		repo := store.Ledger()

		account, err := repo.GetAccountForUpdate(ctx, models.AccountTournament, tournament.ID)
		require.NoError(t, err)
		assert.Zero(t, account.Balance)

		same, err := repo.GetAccountForUpdate(ctx, models.AccountTournament, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, account.ID, same.ID)

		tid := tournament.ID
		for _, e := range []models.LedgerEntry{
			{Type: models.EntryCredit, Amount: 1000, BalanceAfter: 1000},
			{Type: models.EntryDebit, Amount: 285, BalanceAfter: 715},
		} {
			e.Reference = uuid.NewString()
			e.AccountType = models.AccountTournament
			e.OwnerID = tid
			e.Category = models.LedgerEntryFee
			e.TournamentID = &tid
			require.NoError(t, repo.CreateEntry(ctx, &e))
		}
		account.Balance = 715
		require.NoError(t, repo.UpdateAccountBalance(ctx, account))

		sum, err := repo.SumEntries(ctx, models.AccountTournament, tid)
		require.NoError(t, err)
		assert.Equal(t, int64(715), sum)

		latest, err := repo.LatestEntry(ctx, models.AccountTournament, tid)
		require.NoError(t, err)
		assert.Equal(t, int64(715), latest.BalanceAfter)

		entries, total, err := repo.ListEntries(ctx, models.AccountTournament, tid, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, entries, 1)
	})
}

func TestPostgres_AuditFilter(t *testing.T) {
	withPostgres(t, func(ctx context.Context, store Store) {
		actor := uint(4242)
		base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
		for i, action := range []string{models.AuditPaymentApprove, models.AuditPayoutMarkedPaid, models.AuditCancellationRequest} {
			require.NoError(t, store.AuditLogs().Append(ctx, &models.AuditLogEntry{
				ActorID:    actor,
				Action:     action,
				EntityType: models.EntityTournamentPayment,
				EntityID:   uint(i + 1),
				Details:    map[string]interface{}{"amount": 1000},
				CreatedAt:  base.Add(time.Duration(i) * time.Hour),
			}))
		}

		entries, total, err := store.AuditLogs().List(ctx, AuditFilter{
			ActorID: actor,
			Actions: []string{models.AuditPaymentApprove, models.AuditCancellationRequest},
		}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 2)
		assert.Equal(t, models.AuditPaymentApprove, entries[0].Action)
		assert.EqualValues(t, 1000, entries[0].Details["amount"])

		entries, _, err = store.AuditLogs().List(ctx, AuditFilter{ActorID: actor, From: base.Add(time.Hour), To: base.Add(2 * time.Hour)}, 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.AuditPayoutMarkedPaid, entries[0].Action)
	})
}
