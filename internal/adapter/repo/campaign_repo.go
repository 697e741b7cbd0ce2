package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

const campaignColumns = "id, name, description, target_amount, current_amount, status, created_at, updated_at"

// CampaignRepositoryPG implements domain.CampaignRepository using PostgreSQL.
type CampaignRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository creates a new campaign repo.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepositoryPG {
	return &CampaignRepositoryPG{pool: pool}
}

// Create inserts a new campaign with a server-assigned id and timestamps.
func (r *CampaignRepositoryPG) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO campaigns (id, name, description, target_amount, current_amount, status, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, now(), now())
RETURNING `+campaignColumns+`;
`, campaign.Name, campaign.Description, campaign.TargetAmount, campaign.CurrentAmount, campaign.Status)
	return scanCampaign(row)
}

// GetByID fetches a campaign by id.
func (r *CampaignRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	return scanCampaign(row)
}

// List returns all campaigns, newest first.
func (r *CampaignRepositoryPG) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var items []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return items, nil
}

// ResetTotal repairs the cached total with a compare-and-swap so a concurrent
// donation committed between read and repair is never clobbered.
func (r *CampaignRepositoryPG) ResetTotal(ctx context.Context, id string, seen, total decimal.Decimal) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE campaigns
SET current_amount = $3, updated_at = now()
WHERE id = $1 AND current_amount = $2;
`, id, seen, total)
	if err != nil {
		return false, wrapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var c domain.Campaign
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.TargetAmount, &c.CurrentAmount, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}
