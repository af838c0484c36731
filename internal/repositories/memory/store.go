// Package memory is an in-process implementation of repositories.Store.
// Transactions are serialized and work on a copy of the data set that is
// swapped in on commit, so a failed transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
)

type dataset struct {
	nextID        uint
	tournaments   map[uint]models.Tournament
	categories    map[uint]models.Category
	registrations map[uint]models.Registration
	verifications map[uint]models.PaymentVerification
	accounts      map[string]models.LedgerAccount
	entries       []models.LedgerEntry
	payments      map[uint]models.TournamentPayment
	cancellations map[uint]models.CancellationRequest
	audit         []models.AuditLogEntry
}

func newDataset() *dataset {
	return &dataset{
		tournaments:   map[uint]models.Tournament{},
		categories:    map[uint]models.Category{},
		registrations: map[uint]models.Registration{},
		verifications: map[uint]models.PaymentVerification{},
		accounts:      map[string]models.LedgerAccount{},
		payments:      map[uint]models.TournamentPayment{},
		cancellations: map[uint]models.CancellationRequest{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		nextID:        d.nextID,
		tournaments:   make(map[uint]models.Tournament, len(d.tournaments)),
		categories:    make(map[uint]models.Category, len(d.categories)),
		registrations: make(map[uint]models.Registration, len(d.registrations)),
		verifications: make(map[uint]models.PaymentVerification, len(d.verifications)),
		accounts:      make(map[string]models.LedgerAccount, len(d.accounts)),
		entries:       append([]models.LedgerEntry(nil), d.entries...),
		payments:      make(map[uint]models.TournamentPayment, len(d.payments)),
		cancellations: make(map[uint]models.CancellationRequest, len(d.cancellations)),
		audit:         append([]models.AuditLogEntry(nil), d.audit...),
	}
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.registrations {
		c.registrations[k] = v
	}
	for k, v := range d.verifications {
		c.verifications[k] = v
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	for k, v := range d.cancellations {
		c.cancellations[k] = v
	}
	return c
}

func (d *dataset) id() uint {
	d.nextID++
	return d.nextID
}

type shared struct {
	mu       sync.Mutex
	data     *dataset
	auditErr error
}

type Store struct {
	shared *shared
	data   *dataset
	inTx   bool
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{shared: &shared{data: newDataset()}}
}

// FailAuditAppends makes every following audit append return err. Pass nil to reset.
func (s *Store) FailAuditAppends(err error) {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	s.shared.auditErr = err
}

func (s *Store) view(fn func(d *dataset) error) error {
	if s.inTx {
		return fn(s.data)
	}
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	return fn(s.shared.data)
}

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()

	work := s.shared.data.clone()
	if err := fn(&Store{shared: s.shared, data: work, inTx: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.shared.data = work
	return nil
}

func (s *Store) Tournaments() repositories.TournamentRepository { return tournamentRepo{s} }
func (s *Store) Categories() repositories.CategoryRepository    { return categoryRepo{s} }
func (s *Store) Registrations() repositories.RegistrationRepository {
	return registrationRepo{s}
}
func (s *Store) Verifications() repositories.VerificationRepository {
	return verificationRepo{s}
}
func (s *Store) Ledger() repositories.LedgerRepository { return ledgerRepo{s} }
func (s *Store) TournamentPayments() repositories.TournamentPaymentRepository {
	return paymentRepo{s}
}
func (s *Store) Cancellations() repositories.CancellationRepository { return cancellationRepo{s} }
func (s *Store) AuditLogs() repositories.AuditRepository            { return auditRepo{s} }

func stamp(created *time.Time) {
	if created.IsZero() {
		*created = time.Now()
	}
}

type tournamentRepo struct{ s *Store }

func (r tournamentRepo) GetByID(_ context.Context, id uint) (*models.Tournament, error) {
	var out models.Tournament
	err := r.s.view(func(d *dataset) error {
		t, ok := d.tournaments[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r tournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	return r.s.view(func(d *dataset) error {
		if t.ID == 0 {
			t.ID = d.id()
		}
		stamp(&t.CreatedAt)
		t.UpdatedAt = t.CreatedAt
		d.tournaments[t.ID] = *t
		return nil
	})
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) GetByID(_ context.Context, id uint) (*models.Category, error) {
	var out models.Category
	err := r.s.view(func(d *dataset) error {
		c, ok := d.categories[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r categoryRepo) GetForUpdate(ctx context.Context, id uint) (*models.Category, error) {
	return r.GetByID(ctx, id)
}

func (r categoryRepo) Create(_ context.Context, c *models.Category) error {
	return r.s.view(func(d *dataset) error {
		if c.ID == 0 {
			c.ID = d.id()
		}
		stamp(&c.CreatedAt)
		c.UpdatedAt = c.CreatedAt
		d.categories[c.ID] = *c
		return nil
	})
}

func (r categoryRepo) Update(_ context.Context, c *models.Category) error {
	return r.s.view(func(d *dataset) error {
		if _, ok := d.categories[c.ID]; !ok {
			return repositories.ErrNotFound
		}
		c.UpdatedAt = time.Now()
		d.categories[c.ID] = *c
		return nil
	})
}

type registrationRepo struct{ s *Store }

func (r registrationRepo) GetByID(_ context.Context, id uint) (*models.Registration, error) {
	var out models.Registration
	err := r.s.view(func(d *dataset) error {
		reg, ok := d.registrations[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r registrationRepo) GetForUpdate(ctx context.Context, id uint) (*models.Registration, error) {
	return r.GetByID(ctx, id)
}

func (r registrationRepo) Create(_ context.Context, reg *models.Registration) error {
	return r.s.view(func(d *dataset) error {
		if reg.ID == 0 {
			reg.ID = d.id()
		}
		stamp(&reg.CreatedAt)
		reg.UpdatedAt = reg.CreatedAt
		d.registrations[reg.ID] = *reg
		return nil
	})
}

func (r registrationRepo) Update(_ context.Context, reg *models.Registration) error {
	return r.s.view(func(d *dataset) error {
		if _, ok := d.registrations[reg.ID]; !ok {
			return repositories.ErrNotFound
		}
		reg.UpdatedAt = time.Now()
		d.registrations[reg.ID] = *reg
		return nil
	})
}

func (r registrationRepo) CountActiveByCategory(_ context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.s.view(func(d *dataset) error {
		for _, reg := range d.registrations {
			if reg.CategoryID == categoryID && reg.IsActive() {
				count++
			}
		}
		return nil
	})
	return count, err
}

type verificationRepo struct{ s *Store }

func (r verificationRepo) GetByID(_ context.Context, id uint) (*models.PaymentVerification, error) {
	var out models.PaymentVerification
	err := r.s.view(func(d *dataset) error {
		v, ok := d.verifications[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r verificationRepo) Create(_ context.Context, v *models.PaymentVerification) error {
	return r.s.view(func(d *dataset) error {
		if v.ID == 0 {
			v.ID = d.id()
		}
		stamp(&v.SubmittedAt)
		d.verifications[v.ID] = *v
		return nil
	})
}

func (r verificationRepo) HasPending(_ context.Context, registrationID uint) (bool, error) {
	found := false
	err := r.s.view(func(d *dataset) error {
		for _, v := range d.verifications {
			if v.RegistrationID == registrationID && v.Status == models.VerificationPending {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r verificationRepo) UpdateIfStatus(_ context.Context, v *models.PaymentVerification, expected string) (bool, error) {
	applied := false
	err := r.s.view(func(d *dataset) error {
		cur, ok := d.verifications[v.ID]
		if !ok || cur.Status != expected {
			return nil
		}
		cur.Status = v.Status
		cur.VerifiedAt = v.VerifiedAt
		cur.VerifiedBy = v.VerifiedBy
		cur.RejectionReason = v.RejectionReason
		cur.UpdatedAt = time.Now()
		d.verifications[v.ID] = cur
		applied = true
		return nil
	})
	return applied, err
}

func (r verificationRepo) ListPending(_ context.Context, tournamentID uint) ([]models.PaymentVerification, error) {
	var out []models.PaymentVerification
	err := r.s.view(func(d *dataset) error {
		for _, v := range d.verifications {
			if v.TournamentID == tournamentID && v.Status == models.VerificationPending {
				out = append(out, v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, err
}

func accountKey(accountType string, ownerID uint) string {
	return fmt.Sprintf("%s:%d", accountType, ownerID)
}

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) GetAccountForUpdate(_ context.Context, accountType string, ownerID uint) (*models.LedgerAccount, error) {
	var out models.LedgerAccount
	err := r.s.view(func(d *dataset) error {
		key := accountKey(accountType, ownerID)
		acc, ok := d.accounts[key]
		if !ok {
			acc = models.LedgerAccount{ID: d.id(), AccountType: accountType, OwnerID: ownerID}
			stamp(&acc.CreatedAt)
			d.accounts[key] = acc
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r ledgerRepo) GetAccount(_ context.Context, accountType string, ownerID uint) (*models.LedgerAccount, error) {
	var out models.LedgerAccount
	err := r.s.view(func(d *dataset) error {
		acc, ok := d.accounts[accountKey(accountType, ownerID)]
		if !ok {
			return repositories.ErrNotFound
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r ledgerRepo) UpdateAccountBalance(_ context.Context, account *models.LedgerAccount) error {
	return r.s.view(func(d *dataset) error {
		key := accountKey(account.AccountType, account.OwnerID)
		cur, ok := d.accounts[key]
		if !ok {
			return repositories.ErrNotFound
		}
		cur.Balance = account.Balance
		cur.UpdatedAt = time.Now()
		d.accounts[key] = cur
		return nil
	})
}

func (r ledgerRepo) CreateEntry(_ context.Context, e *models.LedgerEntry) error {
	return r.s.view(func(d *dataset) error {
		e.ID = d.id()
		stamp(&e.CreatedAt)
		d.entries = append(d.entries, *e)
		return nil
	})
}

func (r ledgerRepo) ListEntries(_ context.Context, accountType string, ownerID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var matched []models.LedgerEntry
	err := r.s.view(func(d *dataset) error {
		for i := len(d.entries) - 1; i >= 0; i-- {
			e := d.entries[i]
			if e.AccountType == accountType && e.OwnerID == ownerID {
				matched = append(matched, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r ledgerRepo) SumEntries(_ context.Context, accountType string, ownerID uint) (int64, error) {
	var sum int64
	err := r.s.view(func(d *dataset) error {
		for i := range d.entries {
			e := &d.entries[i]
			if e.AccountType == accountType && e.OwnerID == ownerID {
				sum += e.Signed()
			}
		}
		return nil
	})
	return sum, err
}

func (r ledgerRepo) LatestEntry(_ context.Context, accountType string, ownerID uint) (*models.LedgerEntry, error) {
	var out *models.LedgerEntry
	err := r.s.view(func(d *dataset) error {
		for i := len(d.entries) - 1; i >= 0; i-- {
			e := d.entries[i]
			if e.AccountType == accountType && e.OwnerID == ownerID {
				out = &e
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) GetByTournament(_ context.Context, tournamentID uint) (*models.TournamentPayment, error) {
	var out models.TournamentPayment
	err := r.s.view(func(d *dataset) error {
		p, ok := d.payments[tournamentID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r paymentRepo) GetForUpdate(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error) {
	return r.GetByTournament(ctx, tournamentID)
}

func (r paymentRepo) GetOrCreateForUpdate(_ context.Context, tournamentID, organizerID uint, platformFeePercent string) (*models.TournamentPayment, error) {
	var out models.TournamentPayment
	err := r.s.view(func(d *dataset) error {
		p, ok := d.payments[tournamentID]
		if !ok {
			p = models.TournamentPayment{
				ID:                 d.id(),
				TournamentID:       tournamentID,
				OrganizerID:        organizerID,
				PlatformFeePercent: platformFeePercent,
				Payout1Status:      models.PayoutPending,
				Payout2Status:      models.PayoutPending,
			}
			stamp(&p.CreatedAt)
			p.UpdatedAt = p.CreatedAt
			d.payments[tournamentID] = p
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r paymentRepo) Create(_ context.Context, p *models.TournamentPayment) error {
	return r.s.view(func(d *dataset) error {
		if _, ok := d.payments[p.TournamentID]; ok {
			return fmt.Errorf("tournament payment for tournament %d already exists", p.TournamentID)
		}
		p.ID = d.id()
		stamp(&p.CreatedAt)
		p.UpdatedAt = p.CreatedAt
		d.payments[p.TournamentID] = *p
		return nil
	})
}

func (r paymentRepo) Update(_ context.Context, p *models.TournamentPayment) error {
	return r.s.view(func(d *dataset) error {
		if _, ok := d.payments[p.TournamentID]; !ok {
			return repositories.ErrNotFound
		}
		p.UpdatedAt = time.Now()
		d.payments[p.TournamentID] = *p
		return nil
	})
}

func (r paymentRepo) MarkInstallmentPaid(_ context.Context, tournamentID uint, installment int, paidAt time.Time, paidBy uint, notes string) (bool, error) {
	applied := false
	err := r.s.view(func(d *dataset) error {
		p, ok := d.payments[tournamentID]
		if !ok {
			return nil
		}
		at, by := paidAt, paidBy
		switch {
		case installment == 1 && p.Payout1Status == models.PayoutPending:
			p.Payout1Status, p.Payout1PaidAt, p.Payout1PaidBy, p.Payout1Notes = models.PayoutPaid, &at, &by, notes
		case installment == 2 && p.Payout2Status == models.PayoutPending:
			p.Payout2Status, p.Payout2PaidAt, p.Payout2PaidBy, p.Payout2Notes = models.PayoutPaid, &at, &by, notes
		default:
			return nil
		}
		p.UpdatedAt = time.Now()
		d.payments[tournamentID] = p
		applied = true
		return nil
	})
	return applied, err
}

func (r paymentRepo) ListWithPendingPayouts(_ context.Context) ([]models.TournamentPayment, error) {
	var out []models.TournamentPayment
	err := r.s.view(func(d *dataset) error {
		for _, p := range d.payments {
			if p.Payout1Status == models.PayoutPending || p.Payout2Status == models.PayoutPending {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].TournamentID < out[j].TournamentID })
	return out, err
}

type cancellationRepo struct{ s *Store }

func (r cancellationRepo) GetByID(_ context.Context, id uint) (*models.CancellationRequest, error) {
	var out models.CancellationRequest
	err := r.s.view(func(d *dataset) error {
		c, ok := d.cancellations[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r cancellationRepo) Create(_ context.Context, c *models.CancellationRequest) error {
	return r.s.view(func(d *dataset) error {
		c.ID = d.id()
		stamp(&c.CreatedAt)
		c.UpdatedAt = c.CreatedAt
		d.cancellations[c.ID] = *c
		return nil
	})
}

func (r cancellationRepo) UpdateIfStatus(_ context.Context, c *models.CancellationRequest, expected string) (bool, error) {
	applied := false
	err := r.s.view(func(d *dataset) error {
		cur, ok := d.cancellations[c.ID]
		if !ok || cur.Status != expected {
			return nil
		}
		cur.Status = c.Status
		cur.FinalRefundAmount = c.FinalRefundAmount
		cur.ReviewedBy = c.ReviewedBy
		cur.ReviewedAt = c.ReviewedAt
		cur.UpdatedAt = time.Now()
		d.cancellations[c.ID] = cur
		applied = true
		return nil
	})
	return applied, err
}

type auditRepo struct{ s *Store }

func (r auditRepo) Append(_ context.Context, e *models.AuditLogEntry) error {
	return r.s.view(func(d *dataset) error {
		if r.s.shared.auditErr != nil {
			return r.s.shared.auditErr
		}
		e.ID = d.id()
		stamp(&e.CreatedAt)
		d.audit = append(d.audit, *e)
		return nil
	})
}

func (r auditRepo) List(_ context.Context, filter repositories.AuditFilter, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	var matched []models.AuditLogEntry
	err := r.s.view(func(d *dataset) error {
		for i := range d.audit {
			if filter.Matches(&d.audit[i]) {
				matched = append(matched, d.audit[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return page(matched, limit, offset), int64(len(matched)), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
