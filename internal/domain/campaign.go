package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus enumerates campaign lifecycle states.
type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusClosed   CampaignStatus = "closed"
	CampaignStatusArchived CampaignStatus = "archived"
)

// Valid reports whether the status is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusClosed, CampaignStatusArchived:
		return true
	}
	return false
}

// Campaign represents a fundraising effort with a target and a cached running
// total. CurrentAmount must always equal the sum of counted donation amounts
// referencing the campaign.
type Campaign struct {
	ID            string
	Name          string
	Description   string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Status        CampaignStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Progress is the derived read served to dashboards.
type Progress struct {
	Raised  decimal.Decimal
	Target  decimal.Decimal
	Percent int
}

var oneHundred = decimal.NewFromInt(100)

// Progress computes the percentage of the target raised, rounded and clamped
// to 100. A non-positive target yields 0.
func (c Campaign) Progress() Progress {
	p := Progress{Raised: c.CurrentAmount, Target: c.TargetAmount}
	if c.TargetAmount.Sign() <= 0 {
		return p
	}
	pct := c.CurrentAmount.Div(c.TargetAmount).Mul(oneHundred)
	if pct.GreaterThan(oneHundred) {
		pct = oneHundred
	}
	if pct.Sign() < 0 {
		pct = decimal.Zero
	}
	p.Percent = int(pct.Round(0).IntPart())
	return p
}
