package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

// Store is an in-memory entity store backing tests and local runs without
// Postgres. The domain repositories are exposed through the Campaigns,
// Donations, Memberships and Users views. Campaign total updates are
// serialized per campaign so concurrent donations to the same campaign never
// lose an increment.
type Store struct {
	mu          sync.RWMutex
	campaigns   map[string]domain.Campaign
	donations   map[string]domain.Donation
	order       []string // donation ids in insertion order
	memberships map[string]domain.Membership
	users       map[string]domain.User

	lockMu    sync.Mutex
	campLocks map[string]*sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		campaigns:   make(map[string]domain.Campaign),
		donations:   make(map[string]domain.Donation),
		memberships: make(map[string]domain.Membership),
		users:       make(map[string]domain.User),
		campLocks:   make(map[string]*sync.Mutex),
	}
}

// Campaigns returns the campaign repository view.
func (s *Store) Campaigns() domain.CampaignRepository { return campaignRepo{s} }

// Donations returns the donation repository view.
func (s *Store) Donations() domain.DonationRepository { return donationRepo{s} }

// Memberships returns the membership repository view.
func (s *Store) Memberships() domain.MembershipRepository { return membershipRepo{s} }

// Users returns the user repository view.
func (s *Store) Users() domain.UserRepository { return userRepo{s} }

// PutUser seeds a user record.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
}

func (s *Store) campaignLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if _, ok := s.campLocks[id]; !ok {
		s.campLocks[id] = &sync.Mutex{}
	}
	return s.campLocks[id]
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type campaignRepo struct{ s *Store }

func (r campaignRepo) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *campaign
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.s.campaigns[c.ID] = c
	return &c, nil
}

func (r campaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r campaignRepo) List(ctx context.Context) ([]domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(r.s.campaigns))
	for _, c := range r.s.campaigns {
		out = append(out, c)
	}
	return out, nil
}

// ResetTotal applies the compare-and-swap repair used by the reconciler: the
// write lands only while the stored total still equals seen.
func (r campaignRepo) ResetTotal(ctx context.Context, id string, seen, total decimal.Decimal) (bool, error) {
	lock := r.s.campaignLock(id)
	lock.Lock()
	defer lock.Unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !c.CurrentAmount.Equal(seen) {
		return false, nil
	}
	c.CurrentAmount = total
	c.UpdatedAt = time.Now().UTC()
	r.s.campaigns[id] = c
	return true, nil
}

type donationRepo struct{ s *Store }

// CreateWithTotal inserts the donation and applies the campaign increment
// under the campaign's lock, mirroring the single-transaction guarantee of
// the Postgres store.
func (r donationRepo) CreateWithTotal(ctx context.Context, donation *domain.Donation) (*domain.Donation, error) {
	lock := r.s.campaignLock(donation.CampaignID)
	lock.Lock()
	defer lock.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[donation.CampaignID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d := *donation
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	r.s.donations[d.ID] = d
	r.s.order = append(r.s.order, d.ID)
	if d.Status.Counted() {
		c.CurrentAmount = c.CurrentAmount.Add(d.Amount)
		c.UpdatedAt = d.CreatedAt
		r.s.campaigns[c.ID] = c
	}
	return &d, nil
}

func (r donationRepo) SetStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	r.s.mu.RLock()
	d, ok := r.s.donations[id]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	lock := r.s.campaignLock(d.CampaignID)
	lock.Lock()
	defer lock.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok = r.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Status == status {
		return &d, nil
	}
	c, ok := r.s.campaigns[d.CampaignID]
	if !ok {
		return nil, domain.ErrConsistency
	}
	wasCounted, isCounted := d.Status.Counted(), status.Counted()
	switch {
	case wasCounted && !isCounted:
		c.CurrentAmount = c.CurrentAmount.Sub(d.Amount)
	case !wasCounted && isCounted:
		c.CurrentAmount = c.CurrentAmount.Add(d.Amount)
	}
	c.UpdatedAt = time.Now().UTC()
	r.s.campaigns[c.ID] = c
	d.Status = status
	r.s.donations[id] = d
	return &d, nil
}

func (r donationRepo) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r donationRepo) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Donation
	for i := len(r.s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.s.donations[r.s.order[i]])
	}
	return out, nil
}

func (r donationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Donation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Donation
	for i := len(r.s.order) - 1; i >= 0 && len(out) < limit; i-- {
		d := r.s.donations[r.s.order[i]]
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r donationRepo) SumByCampaign(ctx context.Context, campaignID string) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, d := range r.s.donations {
		if d.CampaignID == campaignID && d.Status.Counted() {
			sum = sum.Add(d.Amount)
		}
	}
	return sum, nil
}

type membershipRepo struct{ s *Store }

func (r membershipRepo) Ensure(ctx context.Context, membership *domain.Membership) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := membership.CampaignID + "/" + membership.UserID
	if _, ok := r.s.memberships[key]; ok {
		return false, nil
	}
	m := *membership
	m.CreatedAt = time.Now().UTC()
	r.s.memberships[key] = m
	return true, nil
}

func (r membershipRepo) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Membership
	for _, m := range r.s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}
