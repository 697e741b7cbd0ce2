package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an authenticated account within the platform.
type User struct {
	ID        string
	Email     string
	Name      string
	Locale    string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user may invoke privileged ledger operations.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
