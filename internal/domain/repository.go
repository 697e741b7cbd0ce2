package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CampaignRepository defines access methods for campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) (*Campaign, error)
	GetByID(ctx context.Context, id string) (*Campaign, error)
	List(ctx context.Context) ([]Campaign, error)
	// ResetTotal repairs the cached running total with a compare-and-swap:
	// the write applies only while the stored value still equals seen.
	ResetTotal(ctx context.Context, id string, seen, total decimal.Decimal) (bool, error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	// CreateWithTotal inserts the donation and applies the campaign total
	// increment as one atomic unit. The increment is performed server-side,
	// never as a read-modify-write through application memory, and is skipped
	// for statuses that do not count toward the total.
	CreateWithTotal(ctx context.Context, donation *Donation) (*Donation, error)
	// SetStatus transitions a donation's status, adjusting the campaign total
	// in the same atomic unit when the transition crosses the counted
	// boundary. It returns the updated donation.
	SetStatus(ctx context.Context, id string, status DonationStatus) (*Donation, error)
	GetByID(ctx context.Context, id string) (*Donation, error)
	ListRecent(ctx context.Context, limit int) ([]Donation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Donation, error)
	// SumByCampaign recomputes the authoritative counted total from donation
	// rows. Used by the reconciler, not by request paths.
	SumByCampaign(ctx context.Context, campaignID string) (decimal.Decimal, error)
}

// MembershipRepository handles campaign membership persistence.
type MembershipRepository interface {
	// Ensure creates the membership if absent. It is idempotent: an existing
	// membership is left untouched, its role is never downgraded. The bool
	// reports whether a row was created.
	Ensure(ctx context.Context, membership *Membership) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]Membership, error)
}

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
