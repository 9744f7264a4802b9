package domain

import "time"

// AccountRole distinguishes asset owners (admin) from tenants (user).
type AccountRole string

const (
	RoleAdmin AccountRole = "admin"
	RoleUser  AccountRole = "user"
)

// Account identifies an owner or tenant. The booking core only ever treats
// accounts as foreign-key targets; identity management lives elsewhere.
type Account struct {
	ID        int64       `db:"id" json:"id"`
	Email     string      `db:"email" json:"email"`
	Username  string      `db:"username" json:"username"`
	FullName  string      `db:"full_name" json:"fullName,omitempty"`
	Role      AccountRole `db:"role" json:"role"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}
