// Package verification turns submitted proof-of-payment screenshots into
// approved or rejected registration payments.
//
// A verification moves from pending to exactly one terminal state. Approval
// settles the payment: the registration is confirmed, the amount is credited
// to the tournament ledger account and the tournament aggregate is restaged,
// all in one transaction together with the audit record.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/services/ledger"
	"tourneypay/internal/services/payout"
	"tourneypay/internal/validation"
)

type Service struct {
	store  repositories.Store
	ledger *ledger.Service
	payout *payout.Service
	now    func() time.Time
}

func NewService(store repositories.Store, ledgerSvc *ledger.Service, payoutSvc *payout.Service) *Service {
	return &Service{store: store, ledger: ledgerSvc, payout: payoutSvc, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit records a proof of payment for a registration of the acting player
// or partner.
func (s *Service) Submit(ctx context.Context, actor audit.Actor, registrationID uint, screenshotRef string, amount int64) (*models.PaymentVerification, error) {
	screenshotRef = strings.TrimSpace(screenshotRef)
	if screenshotRef == "" {
		return nil, appErrors.ErrInvalidRequest.WithMessage("screenshot reference is required")
	}
	if len(screenshotRef) > validation.MaxScreenshotRefLength {
		return nil, appErrors.ErrInvalidRequest.WithMessage("screenshot reference must not exceed %d characters", validation.MaxScreenshotRefLength)
	}
	if amount <= 0 {
		return nil, appErrors.ErrInvalidAmount.WithMessage("payment amount must be positive")
	}

	var created *models.PaymentVerification
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		registration, err := tx.Registrations().GetForUpdate(ctx, registrationID)
		if err != nil {
			return notFound(err, "registration", registrationID)
		}
		if userID := actor.EffectiveUserID(); !registration.HasParticipant(userID) {
			return appErrors.ErrInvalidRequest.WithMessage("user %d is not part of registration %d", userID, registrationID)
		}

		switch registration.Status {
		case models.RegistrationCancelled, models.RegistrationRejected, models.RegistrationCancellationRequested:
			return appErrors.ErrInvalidState.WithMessage("registration %d is %s", registrationID, registration.Status)
		}
		if registration.PaymentStatus == models.PaymentCompleted {
			return appErrors.ErrAlreadyPaid.WithMessage("registration %d is already paid", registrationID)
		}

		pending, err := tx.Verifications().HasPending(ctx, registrationID)
		if err != nil {
			return err
		}
		if pending {
			return appErrors.ErrVerificationPending
		}

		// Compared against the fee snapshot, never the category's current fee.
		if amount != registration.AmountTotal {
			return appErrors.ErrAmountMismatch.WithMessage("amount %d does not match registration amount %d", amount, registration.AmountTotal)
		}

		verification := &models.PaymentVerification{
			RegistrationID: registration.ID,
			TournamentID:   registration.TournamentID,
			ScreenshotRef:  screenshotRef,
			Amount:         amount,
			Status:         models.VerificationPending,
			SubmittedAt:    s.now(),
		}
		if err := tx.Verifications().Create(ctx, verification); err != nil {
			return err
		}

		registration.PaymentStatus = models.PaymentSubmitted
		if err := tx.Registrations().Update(ctx, registration); err != nil {
			return err
		}

		created = verification
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Approve settles a pending verification.
func (s *Service) Approve(ctx context.Context, actor audit.Actor, verificationID uint) (*models.PaymentVerification, error) {
	now := s.now()
	var approved *models.PaymentVerification
	var tournamentID uint

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		verification, err := tx.Verifications().GetByID(ctx, verificationID)
		if err != nil {
			return notFound(err, "payment verification", verificationID)
		}
		if verification.IsTerminal() {
			return finalized(verification)
		}

		registration, err := tx.Registrations().GetForUpdate(ctx, verification.RegistrationID)
		if err != nil {
			return notFound(err, "registration", verification.RegistrationID)
		}
		switch registration.Status {
		case models.RegistrationCancelled, models.RegistrationRejected, models.RegistrationCancellationRequested:
			return appErrors.ErrInvalidState.WithMessage("registration %d is %s", registration.ID, registration.Status)
		}

		tournament, err := tx.Tournaments().GetByID(ctx, registration.TournamentID)
		if err != nil {
			return notFound(err, "tournament", registration.TournamentID)
		}

		verifier := actor.ID
		verification.Status = models.VerificationApproved
		verification.VerifiedAt = &now
		verification.VerifiedBy = &verifier
		won, err := tx.Verifications().UpdateIfStatus(ctx, verification, models.VerificationPending)
		if err != nil {
			return err
		}
		if !won {
			return appErrors.ErrAlreadyFinalized.WithMessage("payment verification %d is already finalized", verificationID)
		}

		registration.Status = models.RegistrationConfirmed
		registration.PaymentStatus = models.PaymentCompleted
		if err := tx.Registrations().Update(ctx, registration); err != nil {
			return err
		}

		regID, tid := registration.ID, tournament.ID
		if _, err := s.ledger.Post(ctx, tx, ledger.PostRequest{
			AccountType:    models.AccountTournament,
			OwnerID:        tid,
			Type:           models.EntryCredit,
			Amount:         verification.Amount,
			Category:       models.LedgerEntryFee,
			Description:    fmt.Sprintf("Entry fee for registration %d", regID),
			RegistrationID: &regID,
			TournamentID:   &tid,
		}); err != nil {
			return err
		}

		payment, err := s.payout.ApplyCollected(ctx, tx, tournament, verification.Amount, 0)
		if err != nil {
			return err
		}

		if err := audit.Record(ctx, tx, actor, audit.Entry{
			Action:     models.AuditPaymentApprove,
			EntityType: models.EntityPaymentVerification,
			EntityID:   verification.ID,
			Details: map[string]interface{}{
				"registration_id": regID,
				"tournament_id":   tid,
				"amount":          verification.Amount,
				"total_collected": payment.TotalCollected,
			},
		}, now); err != nil {
			return err
		}

		approved = verification
		tournamentID = tid
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.payout.InvalidateSummary(ctx, tournamentID)
	log.Printf("✅ Payment verification %d approved by %d", verificationID, actor.ID)
	return approved, nil
}

// Reject finalizes a pending verification as rejected. The registration keeps
// its status and may submit again.
func (s *Service) Reject(ctx context.Context, actor audit.Actor, verificationID uint, reason string) (*models.PaymentVerification, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.ErrMissingReason
	}

	now := s.now()
	var rejected *models.PaymentVerification

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		verification, err := tx.Verifications().GetByID(ctx, verificationID)
		if err != nil {
			return notFound(err, "payment verification", verificationID)
		}
		if verification.IsTerminal() {
			return finalized(verification)
		}

		registration, err := tx.Registrations().GetForUpdate(ctx, verification.RegistrationID)
		if err != nil {
			return notFound(err, "registration", verification.RegistrationID)
		}

		verifier := actor.ID
		verification.Status = models.VerificationRejected
		verification.VerifiedAt = &now
		verification.VerifiedBy = &verifier
		verification.RejectionReason = reason
		won, err := tx.Verifications().UpdateIfStatus(ctx, verification, models.VerificationPending)
		if err != nil {
			return err
		}
		if !won {
			return appErrors.ErrAlreadyFinalized.WithMessage("payment verification %d is already finalized", verificationID)
		}

		if registration.PaymentStatus == models.PaymentSubmitted {
			registration.PaymentStatus = models.PaymentFailed
			if err := tx.Registrations().Update(ctx, registration); err != nil {
				return err
			}
		}

		if err := audit.Record(ctx, tx, actor, audit.Entry{
			Action:     models.AuditPaymentReject,
			EntityType: models.EntityPaymentVerification,
			EntityID:   verification.ID,
			Details: map[string]interface{}{
				"registration_id": registration.ID,
				"amount":          verification.Amount,
				"reason":          reason,
			},
		}, now); err != nil {
			return err
		}

		rejected = verification
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Payment verification %d rejected by %d", verificationID, actor.ID)
	return rejected, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.PaymentVerification, error) {
	verification, err := s.store.Verifications().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "payment verification", id)
	}
	return verification, nil
}

// ListPending returns the reviewer queue of a tournament, oldest first.
func (s *Service) ListPending(ctx context.Context, tournamentID uint) ([]models.PaymentVerification, error) {
	return s.store.Verifications().ListPending(ctx, tournamentID)
}

func finalized(v *models.PaymentVerification) error {
	return appErrors.ErrAlreadyFinalized.WithMessage("payment verification %d is already %s", v.ID, v.Status)
}

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return appErrors.NotFound(entity, id)
	}
	return err
}
