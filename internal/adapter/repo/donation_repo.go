package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

const donationColumns = "id, campaign_id, user_id, amount, status, created_at"

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepositoryPG {
	return &DonationRepositoryPG{pool: pool}
}

// CreateWithTotal inserts the donation and increments the campaign total in
// one transaction. The increment runs server-side against the stored value,
// never through a value read into application memory, so concurrent donations
// to the same campaign cannot lose an update.
func (r *DonationRepositoryPG) CreateWithTotal(ctx context.Context, donation *domain.Donation) (*domain.Donation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
INSERT INTO donations (id, campaign_id, user_id, amount, status, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
RETURNING `+donationColumns+`;
`, donation.CampaignID, donation.UserID, donation.Amount, donation.Status)
	created, err := scanDonation(row)
	if err != nil {
		return nil, err
	}

	if created.Status.Counted() {
		tag, err := tx.Exec(ctx, `
UPDATE campaigns
SET current_amount = current_amount + $2, updated_at = now()
WHERE id = $1;
`, created.CampaignID, created.Amount)
		if err != nil {
			return nil, wrapErr(err)
		}
		if tag.RowsAffected() != 1 {
			return nil, fmt.Errorf("campaign %s total update hit %d rows: %w", created.CampaignID, tag.RowsAffected(), domain.ErrConsistency)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr(err)
	}
	return created, nil
}

// SetStatus transitions a donation's status, adjusting the campaign total in
// the same transaction when the transition crosses the counted boundary.
func (r *DonationRepositoryPG) SetStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
WITH prev AS (
    SELECT status FROM donations WHERE id = $1 FOR UPDATE
)
UPDATE donations d
SET status = $2
FROM prev
WHERE d.id = $1
RETURNING d.id, d.campaign_id, d.user_id, d.amount, d.status, d.created_at, prev.status;
`, id, status)
	var d domain.Donation
	var prevStatus domain.DonationStatus
	if err := row.Scan(&d.ID, &d.CampaignID, &d.UserID, &d.Amount, &d.Status, &d.CreatedAt, &prevStatus); err != nil {
		return nil, wrapErr(err)
	}

	delta := decimal.Zero
	switch {
	case prevStatus.Counted() && !d.Status.Counted():
		delta = d.Amount.Neg()
	case !prevStatus.Counted() && d.Status.Counted():
		delta = d.Amount
	}
	if !delta.IsZero() {
		tag, err := tx.Exec(ctx, `
UPDATE campaigns
SET current_amount = current_amount + $2, updated_at = now()
WHERE id = $1;
`, d.CampaignID, delta)
		if err != nil {
			return nil, wrapErr(err)
		}
		if tag.RowsAffected() != 1 {
			return nil, fmt.Errorf("campaign %s total update hit %d rows: %w", d.CampaignID, tag.RowsAffected(), domain.ErrConsistency)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr(err)
	}
	return &d, nil
}

// GetByID fetches a donation by id.
func (r *DonationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	return scanDonation(row)
}

// ListRecent returns the latest donations across all campaigns.
func (r *DonationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+donationColumns+`
FROM donations
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return collectDonations(rows)
}

// ListByUser returns a user's donations, newest first.
func (r *DonationRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+donationColumns+`
FROM donations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`, userID, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return collectDonations(rows)
}

// SumByCampaign recomputes the counted total from donation rows.
func (r *DonationRepositoryPG) SumByCampaign(ctx context.Context, campaignID string) (decimal.Decimal, error) {
	row := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(amount), 0)
FROM donations
WHERE campaign_id = $1 AND status <> 'voided';
`, campaignID)
	var sum decimal.Decimal
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, wrapErr(err)
	}
	return sum, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	if err := row.Scan(&d.ID, &d.CampaignID, &d.UserID, &d.Amount, &d.Status, &d.CreatedAt); err != nil {
		return nil, wrapErr(err)
	}
	return &d, nil
}

func collectDonations(rows pgx.Rows) ([]domain.Donation, error) {
	var items []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return items, nil
}
