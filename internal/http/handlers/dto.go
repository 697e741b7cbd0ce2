package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"server/internal/domain"
)

type campaignDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toCampaignDTO(c *domain.Campaign) campaignDTO {
	return campaignDTO{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		TargetAmount:  c.TargetAmount,
		CurrentAmount: c.CurrentAmount,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
	}
}

type donationDTO struct {
	ID         string          `json:"id"`
	CampaignID string          `json:"campaign_id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toDonationDTO(d *domain.Donation) donationDTO {
	return donationDTO{
		ID:         d.ID,
		CampaignID: d.CampaignID,
		UserID:     d.UserID,
		Amount:     d.Amount,
		Status:     string(d.Status),
		CreatedAt:  d.CreatedAt,
	}
}

type membershipDTO struct {
	CampaignID string    `json:"campaign_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}
