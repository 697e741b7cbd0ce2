package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// MembershipRepositoryPG implements domain.MembershipRepository using PostgreSQL.
type MembershipRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository creates a new membership repo.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepositoryPG {
	return &MembershipRepositoryPG{pool: pool}
}

// Ensure upserts the membership keyed on (campaign_id, user_id). An existing
// row is left untouched so a donor who is already an admin member is never
// downgraded.
func (r *MembershipRepositoryPG) Ensure(ctx context.Context, membership *domain.Membership) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO campaign_members (campaign_id, user_id, role, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (campaign_id, user_id) DO NOTHING;
`, membership.CampaignID, membership.UserID, membership.Role)
	if err != nil {
		return false, wrapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns the memberships of a user.
func (r *MembershipRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	rows, err := r.pool.Query(ctx, `
SELECT campaign_id, user_id, role, created_at
FROM campaign_members
WHERE user_id = $1
ORDER BY created_at DESC;
`, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var items []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.CampaignID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, wrapErr(err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return items, nil
}
