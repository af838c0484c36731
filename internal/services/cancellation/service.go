// Package cancellation handles player cancellation requests and the
// reviewer decision that refunds them.
package cancellation

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

type RequestInput struct {
	RegistrationID uint
	Reason         string
	RefundUpiID    string
	QRRef          string
}

type Service struct {
	store  repositories.Store
	ledger *ledger.Service
	payout *payout.Service
	policy RefundPolicy
	now    func() time.Time
}

// NewService builds the service. A nil policy refunds the full amount.
func NewService(store repositories.Store, ledgerSvc *ledger.Service, payoutSvc *payout.Service, policy RefundPolicy) *Service {
	if policy == nil {
		policy = FullRefundPolicy{}
	}
	return &Service{store: store, ledger: ledgerSvc, payout: payoutSvc, policy: policy, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Request opens a cancellation for a pending or confirmed registration of
// the acting player.
func (s *Service) Request(ctx context.Context, actor audit.Actor, in RequestInput) (*models.CancellationRequest, error) {
	if err := validation.ValidateCancellationRequest(in.Reason, in.RefundUpiID); err != nil {
		return nil, err
	}

	now := s.now()
	playerID := actor.EffectiveUserID()
	var created *models.CancellationRequest

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		registration, err := tx.Registrations().GetForUpdate(ctx, in.RegistrationID)
		if err != nil {
			return notFound(err, "registration", in.RegistrationID)
		}
		if !registration.HasParticipant(playerID) {
			return appErrors.ErrInvalidRequest.WithMessage("user %d is not part of registration %d", playerID, registration.ID)
		}
		if registration.Status != models.RegistrationPending && registration.Status != models.RegistrationConfirmed {
			return appErrors.ErrInvalidState.WithMessage("registration %d is %s", registration.ID, registration.Status)
		}

		tournament, err := tx.Tournaments().GetByID(ctx, registration.TournamentID)
		if err != nil {
			return notFound(err, "tournament", registration.TournamentID)
		}

		request := &models.CancellationRequest{
			RegistrationID: registration.ID,
			TournamentID:   registration.TournamentID,
			PlayerID:       playerID,
			Reason:         strings.TrimSpace(in.Reason),
			RefundUpiID:    strings.TrimSpace(in.RefundUpiID),
			QRRef:          in.QRRef,
			RefundAmount:   s.policy.RefundAmount(registration, tournament, now),
			PriorStatus:    registration.Status,
			Status:         models.CancellationRequested,
			CreatedAt:      now,
		}
		if err := tx.Cancellations().Create(ctx, request); err != nil {
			return err
		}

		registration.Status = models.RegistrationCancellationRequested
		if err := tx.Registrations().Update(ctx, registration); err != nil {
			return err
		}

		if err := audit.Record(ctx, tx, actor, audit.Entry{
			Action:     models.AuditCancellationRequest,
			EntityType: models.EntityCancellationRequest,
			EntityID:   request.ID,
			Details: map[string]interface{}{
				"registration_id": registration.ID,
				"refund_amount":   request.RefundAmount,
				"prior_status":    request.PriorStatus,
			},
		}, now); err != nil {
			return err
		}

		created = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Cancellation requested for registration %d (tentative refund %d)", in.RegistrationID, created.RefundAmount)
	return created, nil
}

// Decide approves or rejects a requested cancellation. On approval the
// refund defaults to the tentative amount and must lie in [0, AmountTotal];
// a registration whose payment never completed refunds nothing.
func (s *Service) Decide(ctx context.Context, actor audit.Actor, requestID uint, approve bool, finalRefundAmount *int64) (*models.CancellationRequest, error) {
	if finalRefundAmount != nil && *finalRefundAmount < 0 {
		return nil, appErrors.ErrInvalidAmount.WithMessage("refund amount must not be negative")
	}

	now := s.now()
	var decided *models.CancellationRequest
	var tournamentID uint

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		request, err := tx.Cancellations().GetByID(ctx, requestID)
		if err != nil {
			return notFound(err, "cancellation request", requestID)
		}
		if request.Status != models.CancellationRequested {
			return appErrors.ErrAlreadyFinalized.WithMessage("cancellation request %d is already %s", requestID, request.Status)
		}

		registration, err := tx.Registrations().GetForUpdate(ctx, request.RegistrationID)
		if err != nil {
			return notFound(err, "registration", request.RegistrationID)
		}

		reviewer := actor.ID
		request.ReviewedBy = &reviewer
		request.ReviewedAt = &now

		if !approve {
			request.Status = models.CancellationRejected
			if err := s.finalize(ctx, tx, request); err != nil {
				return err
			}
			registration.Status = request.PriorStatus
			if err := tx.Registrations().Update(ctx, registration); err != nil {
				return err
			}
			decided = request
			return audit.Record(ctx, tx, actor, audit.Entry{
				Action:     models.AuditCancellationReject,
				EntityType: models.EntityCancellationRequest,
				EntityID:   request.ID,
				Details: map[string]interface{}{
					"registration_id": registration.ID,
					"restored_status": registration.Status,
				},
			}, now)
		}

		amount := request.RefundAmount
		if finalRefundAmount != nil {
			amount = *finalRefundAmount
		}
		if amount > registration.AmountTotal {
			return appErrors.ErrInvalidAmount.WithMessage("refund %d exceeds registration amount %d", amount, registration.AmountTotal)
		}
		if amount > 0 && registration.PaymentStatus != models.PaymentCompleted {
			return appErrors.ErrInvalidAmount.WithMessage("registration %d has no completed payment to refund", registration.ID)
		}

		request.Status = models.CancellationApproved
		request.FinalRefundAmount = &amount
		if err := s.finalize(ctx, tx, request); err != nil {
			return err
		}

		registration.Status = models.RegistrationCancelled
		if amount > 0 {
			tournament, err := tx.Tournaments().GetByID(ctx, registration.TournamentID)
			if err != nil {
				return notFound(err, "tournament", registration.TournamentID)
			}

			regID, tid := registration.ID, tournament.ID
			if _, err := s.ledger.Post(ctx, tx, ledger.PostRequest{
				AccountType:    models.AccountTournament,
				OwnerID:        tid,
				Type:           models.EntryDebit,
				Amount:         amount,
				Category:       models.LedgerRefund,
				Description:    fmt.Sprintf("Refund for registration %d to %s", regID, request.RefundUpiID),
				RegistrationID: &regID,
				TournamentID:   &tid,
			}); err != nil {
				return err
			}
			if _, err := s.payout.ApplyCollected(ctx, tx, tournament, -amount, amount); err != nil {
				return err
			}

			registration.PaymentStatus = models.PaymentRefunded
			registration.RefundStatus = models.RefundStatusRefunded
			tournamentID = tid
		}
		if err := tx.Registrations().Update(ctx, registration); err != nil {
			return err
		}

		decided = request
		return audit.Record(ctx, tx, actor, audit.Entry{
			Action:     models.AuditCancellationApprove,
			EntityType: models.EntityCancellationRequest,
			EntityID:   request.ID,
			Details: map[string]interface{}{
				"registration_id":     registration.ID,
				"tentative_amount":    request.RefundAmount,
				"final_refund_amount": amount,
			},
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if tournamentID != 0 {
		s.payout.InvalidateSummary(ctx, tournamentID)
	}
	log.Printf("Cancellation request %d %s by %d", requestID, decided.Status, actor.ID)
	return decided, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.CancellationRequest, error) {
	request, err := s.store.Cancellations().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "cancellation request", id)
	}
	return request, nil
}

func (s *Service) finalize(ctx context.Context, tx repositories.Store, request *models.CancellationRequest) error {
	won, err := tx.Cancellations().UpdateIfStatus(ctx, request, models.CancellationRequested)
	if err != nil {
		return err
	}
	if !won {
		return appErrors.ErrAlreadyFinalized.WithMessage("cancellation request %d is already finalized", request.ID)
	}
	return nil
}

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return appErrors.NotFound(entity, id)
	}
	return err
}
