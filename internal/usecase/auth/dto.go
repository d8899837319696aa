package auth

import "time"

// RegisterRequest represents the request payload for account registration.
// Role defaults to member. The HTTP layer only forwards Role=admin when the
// caller is an admin; bootstrap admins are seeded from configuration.
type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
	Role     string `validate:"omitempty,oneof=admin member"`
}

// RegisterResponse represents the response payload after registration.
type RegisterResponse struct {
	ID   int64
	Role string
}

// LoginRequest represents the request payload for credential login.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
	Role      string
}
