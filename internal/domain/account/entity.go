package account

import "time"

// Roles an account can hold.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// IsValidRole reports whether r names a known role.
func IsValidRole(r string) bool {
	return r == RoleAdmin || r == RoleMember
}

// Account represents an authenticated API account.
type Account struct {
	ID           int64     // ID is the unique identifier for the account
	Email        string    // Email is the unique login email
	PasswordHash string    // PasswordHash is the bcrypt hash of the password
	Role         string    // Role is either admin or member
	CreatedAt    time.Time // CreatedAt is when the account was registered
}
