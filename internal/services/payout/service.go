// Package payout tracks the two organizer payout installments of a tournament.
package payout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/services/ledger"
	"tourneypay/internal/validation"
)

type Service struct {
	store  repositories.Store
	ledger *ledger.Service
	cache  SummaryCache
	cfg    Config
}

// NewService builds the payout service. cache may be nil.
func NewService(store repositories.Store, ledgerSvc *ledger.Service, cache SummaryCache, cfg Config) *Service {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{store: store, ledger: ledgerSvc, cache: cache, cfg: cfg}
}

// MarkPaid records that installment (1 or 2) was paid out to the organizer.
// An installment with nothing to pay cannot be marked paid.
func (s *Service) MarkPaid(ctx context.Context, actor audit.Actor, tournamentID uint, installment int, notes string) (*models.TournamentPayment, error) {
	if installment != 1 && installment != 2 {
		return nil, appErrors.ErrInvalidInstallment
	}
	if err := validation.ValidateNotes(notes); err != nil {
		return nil, err
	}

	now := s.cfg.Now()
	var result *models.TournamentPayment

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return appErrors.NotFound("tournament", tournamentID)
			}
			return err
		}

		payment, err := tx.TournamentPayments().GetOrCreateForUpdate(ctx, tournament.ID, tournament.OrganizerID, s.cfg.PlatformFeePercent.String())
		if err != nil {
			return err
		}
		if payment.InstallmentStatus(installment) == models.PayoutPaid {
			return appErrors.ErrAlreadyPaid.WithMessage("installment %d of tournament %d is already paid", installment, tournamentID)
		}

		dueAt := dueDate(tournament, installment)
		if now.Before(dueAt) {
			return appErrors.ErrNotYetDue.WithMessage("installment %d of tournament %d is due at %s", installment, tournamentID, dueAt.Format(time.RFC3339))
		}

		amount := payment.InstallmentAmount(installment)
		if amount <= 0 {
			return appErrors.ErrInvalidState.WithMessage("installment %d of tournament %d has nothing to pay (amount %d)", installment, tournamentID, amount)
		}

		won, err := tx.TournamentPayments().MarkInstallmentPaid(ctx, tournamentID, installment, now, actor.ID, notes)
		if err != nil {
			return err
		}
		if !won {
			return appErrors.ErrAlreadyPaid.WithMessage("installment %d of tournament %d is already paid", installment, tournamentID)
		}

		tid := tournament.ID
		desc := fmt.Sprintf("Payout installment %d of tournament %d", installment, tid)
		if _, err := s.ledger.Post(ctx, tx, ledger.PostRequest{
			AccountType:  models.AccountTournament,
			OwnerID:      tid,
			Type:         models.EntryDebit,
			Amount:       amount,
			Category:     models.LedgerPayout,
			Description:  desc,
			TournamentID: &tid,
		}); err != nil {
			return err
		}
		if _, err := s.ledger.Post(ctx, tx, ledger.PostRequest{
			AccountType:  models.AccountUser,
			OwnerID:      payment.OrganizerID,
			Type:         models.EntryCredit,
			Amount:       amount,
			Category:     models.LedgerPayout,
			Description:  desc,
			TournamentID: &tid,
		}); err != nil {
			return err
		}

		if err := audit.Record(ctx, tx, actor, audit.Entry{
			Action:     models.AuditPayoutMarkedPaid,
			EntityType: models.EntityTournamentPayment,
			EntityID:   payment.ID,
			Details: map[string]interface{}{
				"tournament_id": tournamentID,
				"installment":   installment,
				"amount":        amount,
				"notes":         notes,
			},
		}, now); err != nil {
			return err
		}

		result, err = tx.TournamentPayments().GetByTournament(ctx, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateSummary(ctx, tournamentID)
	log.Printf("✅ Payout installment %d of tournament %d marked paid by %d", installment, tournamentID, actor.ID)
	return result, nil
}

// ListOverdue lists pending installments past their due date at asOf.
// Installments with nothing to pay are skipped.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]OverduePayout, error) {
	payments, err := s.store.TournamentPayments().ListWithPendingPayouts(ctx)
	if err != nil {
		return nil, err
	}

	overdue := []OverduePayout{}
	for i := range payments {
		p := &payments[i]
		tournament, err := s.store.Tournaments().GetByID(ctx, p.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				log.Printf("⚠️ Tournament payment %d references missing tournament %d", p.ID, p.TournamentID)
				continue
			}
			return nil, err
		}

		for _, installment := range []int{1, 2} {
			if p.InstallmentStatus(installment) != models.PayoutPending || p.InstallmentAmount(installment) <= 0 {
				continue
			}
			dueAt := dueDate(tournament, installment)
			if installment == 2 {
				dueAt = dueAt.Add(s.cfg.GracePeriod)
			}
			if !asOf.After(dueAt) {
				continue
			}
			overdue = append(overdue, OverduePayout{
				TournamentID:   tournament.ID,
				TournamentName: tournament.Name,
				OrganizerID:    p.OrganizerID,
				Installment:    installment,
				Amount:         p.InstallmentAmount(installment),
				DueAt:          dueAt,
				DaysOverdue:    int(asOf.Sub(dueAt).Hours() / 24),
			})
		}
	}
	return overdue, nil
}

// Summary returns the settlement aggregate of a tournament.
func (s *Service) Summary(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTournamentPayment(ctx, tournamentID); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			log.Printf("⚠️ Failed to read tournament payment %d from cache: %v", tournamentID, err)
		}
	}

	payment, err := s.store.TournamentPayments().GetByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, appErrors.NotFound("tournament payment", tournamentID)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheTournamentPayment(ctx, payment); err != nil {
			log.Printf("⚠️ Failed to cache tournament payment %d: %v", tournamentID, err)
		}
	}
	return payment, nil
}

// InvalidateSummary drops the cached aggregate. Call it after commit.
func (s *Service) InvalidateSummary(ctx context.Context, tournamentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTournamentPayment(ctx, tournamentID); err != nil {
		log.Printf("⚠️ Failed to invalidate tournament payment %d: %v", tournamentID, err)
	}
}

func dueDate(t *models.Tournament, installment int) time.Time {
	if installment == 1 {
		return t.StartDate
	}
	return t.EndDate
}
