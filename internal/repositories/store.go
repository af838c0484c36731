package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Store groups the repositories of the settlement engine. A Store obtained
// inside ExecuteInTransaction is bound to that transaction.
type Store interface {
	Tournaments() TournamentRepository
	Categories() CategoryRepository
	Registrations() RegistrationRepository
	Verifications() VerificationRepository
	Ledger() LedgerRepository
	TournamentPayments() TournamentPaymentRepository
	Cancellations() CancellationRepository
	AuditLogs() AuditRepository

	// ExecuteInTransaction runs fn atomically. Any error returned by fn rolls
	// back every write made through the Store passed to it.
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Tournaments() TournamentRepository {
	return &tournamentRepository{db: s.db}
}

func (s *gormStore) Categories() CategoryRepository {
	return &categoryRepository{db: s.db}
}

func (s *gormStore) Registrations() RegistrationRepository {
	return &registrationRepository{db: s.db}
}

func (s *gormStore) Verifications() VerificationRepository {
	return &verificationRepository{db: s.db}
}

func (s *gormStore) Ledger() LedgerRepository {
	return &ledgerRepository{db: s.db}
}

func (s *gormStore) TournamentPayments() TournamentPaymentRepository {
	return &tournamentPaymentRepository{db: s.db}
}

func (s *gormStore) Cancellations() CancellationRepository {
	return &cancellationRepository{db: s.db}
}

func (s *gormStore) AuditLogs() AuditRepository {
	return &auditRepository{db: s.db}
}

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	if err != nil {
		return err
	}
	return nil
}

// forUpdate adds SELECT ... FOR UPDATE to the query.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
