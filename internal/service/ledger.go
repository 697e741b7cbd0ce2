package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/events"
)

// SideEffect names a non-fatal secondary write that failed while the primary
// operation succeeded. Membership creation and event publishing are
// best-effort: they are reported through the sink instead of failing the
// request.
type SideEffect struct {
	Name string
	Err  error
}

// SideEffectSink receives failed side effects. The default sink logs them at
// warn level.
type SideEffectSink func(SideEffect)

// Deps wires the ledger to its collaborators. Publisher and SideEffects are
// optional.
type Deps struct {
	Campaigns   domain.CampaignRepository
	Donations   domain.DonationRepository
	Memberships domain.MembershipRepository
	Users       domain.UserRepository
	Publisher   events.Publisher
	SideEffects SideEffectSink
	Logger      zerolog.Logger
}

// Ledger is the single authority for creating donations and keeping each
// campaign's running total consistent with the sum of its counted donations.
type Ledger struct {
	campaigns   domain.CampaignRepository
	donations   domain.DonationRepository
	memberships domain.MembershipRepository
	users       domain.UserRepository
	publisher   events.Publisher
	sideEffects SideEffectSink
	logger      zerolog.Logger
}

// NewLedger creates a ledger service.
func NewLedger(deps Deps) *Ledger {
	l := &Ledger{
		campaigns:   deps.Campaigns,
		donations:   deps.Donations,
		memberships: deps.Memberships,
		users:       deps.Users,
		publisher:   deps.Publisher,
		sideEffects: deps.SideEffects,
		logger:      deps.Logger,
	}
	if l.publisher == nil {
		l.publisher = events.Nop{}
	}
	if l.sideEffects == nil {
		l.sideEffects = func(se SideEffect) {
			l.logger.Warn().Err(se.Err).Str("side_effect", se.Name).Msg("non-fatal side effect failed")
		}
	}
	return l
}

// RecordDonationInput carries the fields of a donation-creation request.
type RecordDonationInput struct {
	CampaignID string
	UserID     string
	Amount     decimal.Decimal
	Status     domain.DonationStatus // defaults to completed
}

// RecordDonation validates the referenced entities, persists the donation and
// increments the owning campaign's total as one atomic unit, then ensures a
// member row for the donor. Requires an admin actor.
func (l *Ledger) RecordDonation(ctx context.Context, actor *domain.User, in RecordDonationInput) (*domain.Donation, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.CampaignID) == "" {
		return nil, domain.InvalidField("campaign_id", "required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, domain.InvalidField("user_id", "required")
	}

	// Preconditions, in order: campaign resolves, user resolves, amount valid.
	if err := l.withRetry(ctx, "campaign lookup", func() error {
		_, err := l.campaigns.GetByID(ctx, in.CampaignID)
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundEntity("campaign")
		}
		return nil, err
	}
	if err := l.withRetry(ctx, "user lookup", func() error {
		_, err := l.users.GetByID(ctx, in.UserID)
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundEntity("user")
		}
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, domain.InvalidField("amount", "must be positive")
	}

	status := in.Status
	if status == "" {
		status = domain.DonationStatusCompleted
	}
	if !status.Valid() {
		return nil, domain.InvalidField("status", "unknown status")
	}

	donation := &domain.Donation{
		CampaignID: in.CampaignID,
		UserID:     in.UserID,
		Amount:     in.Amount,
		Status:     status,
	}
	var created *domain.Donation
	if err := l.withRetry(ctx, "donation create", func() error {
		var err error
		created, err = l.donations.CreateWithTotal(ctx, donation)
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrConsistency) {
			l.logger.Error().Err(err).
				Str("campaign_id", in.CampaignID).
				Msg("ledger consistency fault recording donation")
		}
		return nil, err
	}

	if _, err := l.memberships.Ensure(ctx, &domain.Membership{
		CampaignID: created.CampaignID,
		UserID:     created.UserID,
		Role:       domain.MembershipRoleMember,
	}); err != nil {
		l.sideEffects(SideEffect{Name: "membership_ensure", Err: err})
	}
	l.publish(ctx, "publish_donation_recorded", events.DonationRecorded{
		DonationID: created.ID,
		CampaignID: created.CampaignID,
		UserID:     created.UserID,
		Amount:     created.Amount,
		Status:     string(created.Status),
		OccurredAt: created.CreatedAt,
	})
	return created, nil
}

// RecordCampaignInput carries the fields of a campaign-creation request.
type RecordCampaignInput struct {
	Name         string
	Description  string
	TargetAmount decimal.Decimal
	Status       domain.CampaignStatus // defaults to active
}

// RecordCampaign creates a campaign with a zero running total and makes the
// creator an admin member. Requires an admin actor.
func (l *Ledger) RecordCampaign(ctx context.Context, actor *domain.User, in RecordCampaignInput) (*domain.Campaign, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.InvalidField("name", "required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.InvalidField("description", "required")
	}
	if in.TargetAmount.Sign() < 0 {
		return nil, domain.InvalidField("target_amount", "must be non-negative")
	}
	status := in.Status
	if status == "" {
		status = domain.CampaignStatusActive
	}
	if !status.Valid() {
		return nil, domain.InvalidField("status", "unknown status")
	}

	campaign := &domain.Campaign{
		Name:          in.Name,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Status:        status,
	}
	var created *domain.Campaign
	if err := l.withRetry(ctx, "campaign create", func() error {
		var err error
		created, err = l.campaigns.Create(ctx, campaign)
		return err
	}); err != nil {
		return nil, err
	}

	// Creator membership is best-effort, matching the tolerance the system
	// has always had for this secondary write.
	if _, err := l.memberships.Ensure(ctx, &domain.Membership{
		CampaignID: created.ID,
		UserID:     actor.ID,
		Role:       domain.MembershipRoleAdmin,
	}); err != nil {
		l.sideEffects(SideEffect{Name: "creator_membership", Err: err})
	}
	return created, nil
}

// SetDonationStatus transitions a donation's status. Moving across the voided
// boundary adjusts the campaign total atomically. Requires an admin actor.
func (l *Ledger) SetDonationStatus(ctx context.Context, actor *domain.User, id string, status domain.DonationStatus) (*domain.Donation, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, domain.InvalidField("status", "unknown status")
	}
	var updated *domain.Donation
	err := l.withRetry(ctx, "donation status", func() error {
		var err error
		updated, err = l.donations.SetStatus(ctx, id, status)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundEntity("donation")
		}
		if errors.Is(err, domain.ErrConsistency) {
			l.logger.Error().Err(err).
				Str("donation_id", id).
				Msg("ledger consistency fault transitioning donation")
		}
		return nil, err
	}
	return updated, nil
}

// GetCampaign returns a campaign by id.
func (l *Ledger) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := l.campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundEntity("campaign")
		}
		return nil, err
	}
	return c, nil
}

// ListCampaigns returns all campaigns.
func (l *Ledger) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return l.campaigns.List(ctx)
}

// CampaignProgress reads the authoritative cached aggregate, never a
// client-recomputed sum.
func (l *Ledger) CampaignProgress(ctx context.Context, id string) (domain.Progress, error) {
	c, err := l.GetCampaign(ctx, id)
	if err != nil {
		return domain.Progress{}, err
	}
	return c.Progress(), nil
}

// DonationsByUser lists a user's donations, newest first.
func (l *Ledger) DonationsByUser(ctx context.Context, userID string, limit int) ([]domain.Donation, error) {
	if limit <= 0 {
		limit = 50
	}
	return l.donations.ListByUser(ctx, userID, limit)
}

// MembershipsByUser lists the campaigns a user belongs to.
func (l *Ledger) MembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return l.memberships.ListByUser(ctx, userID)
}

// withRetry runs fn, retrying exactly once on a transient store fault.
func (l *Ledger) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, domain.ErrTransientStore) || ctx.Err() != nil {
		return err
	}
	l.logger.Warn().Err(err).Str("op", op).Msg("transient store fault, retrying once")
	return fn()
}

func (l *Ledger) publish(ctx context.Context, name string, event any) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.sideEffects(SideEffect{Name: name, Err: err})
	}
}
