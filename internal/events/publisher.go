package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Publisher emits ledger events to an external broker. Publishing is always
// best-effort from the caller's point of view: a failed publish never fails
// the request that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// DonationRecorded is emitted after a donation and its campaign total update
// have been committed.
type DonationRecorded struct {
	DonationID string          `json:"donation_id"`
	CampaignID string          `json:"campaign_id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// LedgerDrift is emitted when the reconciler finds a campaign whose cached
// total disagrees with the sum of its counted donations.
type LedgerDrift struct {
	CampaignID string          `json:"campaign_id"`
	Cached     decimal.Decimal `json:"cached"`
	Computed   decimal.Decimal `json:"computed"`
	Repaired   bool            `json:"repaired"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, any) error { return nil }
