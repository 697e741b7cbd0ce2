package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/adapter/repo/memory"
	"server/internal/domain"
)

func newTestLedger(t *testing.T, store *memory.Store) *Ledger {
	t.Helper()
	return NewLedger(Deps{
		Campaigns:   store.Campaigns(),
		Donations:   store.Donations(),
		Memberships: store.Memberships(),
		Users:       store.Users(),
		Logger:      zerolog.Nop(),
	})
}

func adminActor() *domain.User {
	return &domain.User{ID: "admin-1", Role: domain.UserRoleAdmin}
}

func seedCampaign(t *testing.T, store *memory.Store, target string) *domain.Campaign {
	t.Helper()
	c, err := store.Campaigns().Create(context.Background(), &domain.Campaign{
		Name:         "Winter Relief",
		Description:  "warm clothes and heaters",
		TargetAmount: decimal.RequireFromString(target),
		Status:       domain.CampaignStatusActive,
	})
	if err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return c
}

func TestRecordDonationHappyPath(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "1000")
	ledger := newTestLedger(t, store)

	d, err := ledger.RecordDonation(context.Background(), adminActor(), RecordDonationInput{
		CampaignID: c.ID,
		UserID:     "u1",
		Amount:     decimal.RequireFromString("250"),
	})
	if err != nil {
		t.Fatalf("RecordDonation() error: %v", err)
	}
	if d.ID == "" || d.CreatedAt.IsZero() {
		t.Fatalf("RecordDonation() missing server-assigned fields: %+v", d)
	}
	if d.Status != domain.DonationStatusCompleted {
		t.Fatalf("RecordDonation() status = %q, want completed", d.Status)
	}

	got, err := store.Campaigns().GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.CurrentAmount.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("current_amount = %s, want 250", got.CurrentAmount)
	}

	members, err := store.Memberships().ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(members) != 1 || members[0].Role != domain.MembershipRoleMember {
		t.Fatalf("expected one member membership, got %+v", members)
	}
}

func TestRecordDonationPreconditions(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "1000")
	ledger := newTestLedger(t, store)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RecordDonationInput
		want error
	}{
		{"missing campaign", RecordDonationInput{CampaignID: "nope", UserID: "u1", Amount: decimal.NewFromInt(10)}, domain.ErrNotFound},
		{"missing user", RecordDonationInput{CampaignID: c.ID, UserID: "nope", Amount: decimal.NewFromInt(10)}, domain.ErrNotFound},
		{"zero amount", RecordDonationInput{CampaignID: c.ID, UserID: "u1", Amount: decimal.Zero}, domain.ErrInvalidArgument},
		{"negative amount", RecordDonationInput{CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(-5)}, domain.ErrInvalidArgument},
		{"bad status", RecordDonationInput{CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(5), Status: "refunded"}, domain.ErrInvalidArgument},
		{"empty campaign id", RecordDonationInput{UserID: "u1", Amount: decimal.NewFromInt(5)}, domain.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ledger.RecordDonation(ctx, adminActor(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("RecordDonation() error = %v, want %v", err, tc.want)
			}
		})
	}

	// Precondition failures must write nothing.
	got, err := store.Campaigns().GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.CurrentAmount.IsZero() {
		t.Fatalf("current_amount = %s after failed requests, want 0", got.CurrentAmount)
	}
	if recent, _ := store.Donations().ListRecent(ctx, 10); len(recent) != 0 {
		t.Fatalf("expected no donations, got %d", len(recent))
	}
}

func TestRecordDonationAuthorization(t *testing.T) {
	store := memory.NewStore()
	c := seedCampaign(t, store, "100")
	ledger := newTestLedger(t, store)
	in := RecordDonationInput{CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(10)}

	if _, err := ledger.RecordDonation(context.Background(), nil, in); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("nil actor: error = %v, want ErrUnauthorized", err)
	}
	member := &domain.User{ID: "u2", Role: domain.UserRoleUser}
	if _, err := ledger.RecordDonation(context.Background(), member, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-admin actor: error = %v, want ErrForbidden", err)
	}
}

func TestRecordDonationMembershipIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "1000")
	ledger := newTestLedger(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := ledger.RecordDonation(ctx, adminActor(), RecordDonationInput{
			CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(100),
		}); err != nil {
			t.Fatalf("RecordDonation() #%d error: %v", i+1, err)
		}
	}
	members, err := store.Memberships().ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected exactly one membership, got %d", len(members))
	}
}

func TestConcurrentDonationsSumExactly(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "0")
	ledger := newTestLedger(t, store)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.RecordDonation(ctx, adminActor(), RecordDonationInput{
				CampaignID: c.ID,
				UserID:     "u1",
				Amount:     decimal.NewFromInt(int64(10 * i)),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent RecordDonation() error: %v", err)
		}
	}

	want := decimal.NewFromInt(10 * n * (n + 1) / 2)
	got, err := store.Campaigns().GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.CurrentAmount.Equal(want) {
		t.Fatalf("current_amount = %s after %d concurrent donations, want %s", got.CurrentAmount, n, want)
	}
}

func TestRecordCampaign(t *testing.T) {
	store := memory.NewStore()
	ledger := newTestLedger(t, store)
	ctx := context.Background()

	c, err := ledger.RecordCampaign(ctx, adminActor(), RecordCampaignInput{
		Name:         "Winter Relief",
		Description:  "warm clothes and heaters",
		TargetAmount: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("RecordCampaign() error: %v", err)
	}
	if c.Status != domain.CampaignStatusActive {
		t.Fatalf("status = %q, want active", c.Status)
	}
	if !c.CurrentAmount.IsZero() {
		t.Fatalf("current_amount = %s, want 0", c.CurrentAmount)
	}

	members, err := store.Memberships().ListByUser(ctx, "admin-1")
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(members) != 1 || members[0].Role != domain.MembershipRoleAdmin {
		t.Fatalf("expected creator admin membership, got %+v", members)
	}

	if _, err := ledger.RecordCampaign(ctx, adminActor(), RecordCampaignInput{Name: " ", Description: "x", TargetAmount: decimal.Zero}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("blank name: error = %v, want ErrInvalidArgument", err)
	}
	if _, err := ledger.RecordCampaign(ctx, adminActor(), RecordCampaignInput{Name: "x", Description: "y", TargetAmount: decimal.NewFromInt(-1)}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("negative target: error = %v, want ErrInvalidArgument", err)
	}
}

func TestSetDonationStatusAdjustsTotal(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "1000")
	ledger := newTestLedger(t, store)
	ctx := context.Background()

	d, err := ledger.RecordDonation(ctx, adminActor(), RecordDonationInput{
		CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(250),
	})
	if err != nil {
		t.Fatalf("RecordDonation() error: %v", err)
	}

	if _, err := ledger.SetDonationStatus(ctx, adminActor(), d.ID, domain.DonationStatusVoided); err != nil {
		t.Fatalf("SetDonationStatus(voided) error: %v", err)
	}
	got, _ := store.Campaigns().GetByID(ctx, c.ID)
	if !got.CurrentAmount.IsZero() {
		t.Fatalf("current_amount = %s after void, want 0", got.CurrentAmount)
	}

	// Re-voiding is a no-op.
	if _, err := ledger.SetDonationStatus(ctx, adminActor(), d.ID, domain.DonationStatusVoided); err != nil {
		t.Fatalf("SetDonationStatus(voided, again) error: %v", err)
	}
	got, _ = store.Campaigns().GetByID(ctx, c.ID)
	if !got.CurrentAmount.IsZero() {
		t.Fatalf("current_amount = %s after double void, want 0", got.CurrentAmount)
	}

	if _, err := ledger.SetDonationStatus(ctx, adminActor(), d.ID, domain.DonationStatusCompleted); err != nil {
		t.Fatalf("SetDonationStatus(completed) error: %v", err)
	}
	got, _ = store.Campaigns().GetByID(ctx, c.ID)
	if !got.CurrentAmount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("current_amount = %s after restore, want 250", got.CurrentAmount)
	}

	if _, err := ledger.SetDonationStatus(ctx, adminActor(), "missing", domain.DonationStatusVoided); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing donation: error = %v, want ErrNotFound", err)
	}
}

func TestCampaignProgressEndToEnd(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	ledger := newTestLedger(t, store)
	ctx := context.Background()

	c, err := ledger.RecordCampaign(ctx, adminActor(), RecordCampaignInput{
		Name:         "Winter Relief",
		Description:  "warm clothes and heaters",
		TargetAmount: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("RecordCampaign() error: %v", err)
	}

	for _, amount := range []int64{250, 750} {
		if _, err := ledger.RecordDonation(ctx, adminActor(), RecordDonationInput{
			CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(amount),
		}); err != nil {
			t.Fatalf("RecordDonation(%d) error: %v", amount, err)
		}
	}

	p, err := ledger.CampaignProgress(ctx, c.ID)
	if err != nil {
		t.Fatalf("CampaignProgress() error: %v", err)
	}
	if p.Percent != 100 {
		t.Fatalf("percent = %d, want 100", p.Percent)
	}
	if !p.Raised.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("raised = %s, want 1000", p.Raised)
	}
}

// flakyDonations fails the first CreateWithTotal with a transient fault.
type flakyDonations struct {
	domain.DonationRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyDonations) CreateWithTotal(ctx context.Context, d *domain.Donation) (*domain.Donation, error) {
	f.mu.Lock()
	f.calls++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("connection reset: %w", domain.ErrTransientStore)
	}
	return f.DonationRepository.CreateWithTotal(ctx, d)
}

func TestRecordDonationRetriesTransientOnce(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "100")
	flaky := &flakyDonations{DonationRepository: store.Donations(), failures: 1}
	ledger := NewLedger(Deps{
		Campaigns:   store.Campaigns(),
		Donations:   flaky,
		Memberships: store.Memberships(),
		Users:       store.Users(),
		Logger:      zerolog.Nop(),
	})

	if _, err := ledger.RecordDonation(context.Background(), adminActor(), RecordDonationInput{
		CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("RecordDonation() error after one transient fault: %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("CreateWithTotal called %d times, want 2", flaky.calls)
	}

	// Two consecutive transient faults exhaust the single retry.
	flaky.failures = 2
	flaky.calls = 0
	if _, err := ledger.RecordDonation(context.Background(), adminActor(), RecordDonationInput{
		CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(10),
	}); !errors.Is(err, domain.ErrTransientStore) {
		t.Fatalf("error = %v, want ErrTransientStore", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("CreateWithTotal called %d times, want 2", flaky.calls)
	}
}

// failingMemberships always fails Ensure so the side-effect policy is observable.
type failingMemberships struct{}

func (failingMemberships) Ensure(context.Context, *domain.Membership) (bool, error) {
	return false, errors.New("memberships table unavailable")
}

func (failingMemberships) ListByUser(context.Context, string) ([]domain.Membership, error) {
	return nil, nil
}

func TestMembershipFailureIsNamedSideEffect(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Role: domain.UserRoleUser})
	c := seedCampaign(t, store, "100")

	var seen []SideEffect
	ledger := NewLedger(Deps{
		Campaigns:   store.Campaigns(),
		Donations:   store.Donations(),
		Memberships: failingMemberships{},
		Users:       store.Users(),
		Logger:      zerolog.Nop(),
		SideEffects: func(se SideEffect) { seen = append(seen, se) },
	})

	d, err := ledger.RecordDonation(context.Background(), adminActor(), RecordDonationInput{
		CampaignID: c.ID, UserID: "u1", Amount: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("RecordDonation() error: %v", err)
	}
	if d == nil {
		t.Fatal("donation must succeed despite membership side-effect failure")
	}
	if len(seen) != 1 || seen[0].Name != "membership_ensure" {
		t.Fatalf("side effects = %+v, want one membership_ensure", seen)
	}
}
