package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonationStatus enumerates donation states. Amount and campaign are immutable
// after creation; only the status may transition.
type DonationStatus string

const (
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusVoided    DonationStatus = "voided"
)

// Valid reports whether the status is a known donation status.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusCompleted, DonationStatusPending, DonationStatusVoided:
		return true
	}
	return false
}

// Counted reports whether a donation in this status contributes to the owning
// campaign's running total.
func (s DonationStatus) Counted() bool {
	return s != DonationStatusVoided
}

// Donation is a single contribution record against a campaign by a user.
type Donation struct {
	ID         string
	CampaignID string
	UserID     string
	Amount     decimal.Decimal
	Status     DonationStatus
	CreatedAt  time.Time
}
