package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// GetByID fetches a user by id.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, email, name, locale, role, created_at, updated_at
FROM users
WHERE id = $1;
`, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Locale, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, wrapErr(err)
	}
	return &u, nil
}
