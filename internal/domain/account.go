package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict covers duplicate identities; ErrEmailTaken,
	// ErrUsernameTaken and ErrAlreadyVerified wrap it so callers can
	// branch on either level.
	ErrConflict        = errors.New("conflict")
	ErrEmailTaken      = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameTaken   = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrAlreadyVerified = fmt.Errorf("%w: email already verified", ErrConflict)

	ErrAccountNotFound = errors.New("account not found")

	// ErrUnauthorized is the single error surfaced to clients for bad
	// credentials and invalid, stale, or expired tokens. ErrTokenExpired
	// wraps it so logs can tell expiry from forgery.
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrUnauthorized)

	ErrActionTokenInvalid = errors.New("action token is invalid or expired")

	// ErrStoreUnavailable marks transient store failures (timeouts,
	// connectivity); safe to retry, unlike the validation errors above.
	ErrStoreUnavailable = errors.New("account store unavailable")
)

// ActionTokenKind tags the single pending action token on an account.
type ActionTokenKind string

const (
	ActionVerifyEmail   ActionTokenKind = "verify-email"
	ActionResetPassword ActionTokenKind = "reset-password"
)

// Account is the identity aggregate. Token material on it is only ever a
// digest (action token) or the currently live signed value (refresh token);
// the password exists solely as a bcrypt hash.
type Account struct {
	ID              string
	Email           string
	Username        string
	PasswordHash    string
	IsEmailVerified bool

	// RefreshToken holds the one live refresh token value, or nil.
	// Rotation overwrites it; logout clears it.
	RefreshToken *string

	// At most one pending action token per account, shared across kinds.
	ActionTokenDigest *string
	ActionTokenKind   *ActionTokenKind
	ActionTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicAccount is the sanitized view returned to clients. It never
// carries digests or token values.
type PublicAccount struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// Public returns the sanitized view of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:              a.ID,
		Email:           a.Email,
		Username:        a.Username,
		IsEmailVerified: a.IsEmailVerified,
		CreatedAt:       a.CreatedAt,
	}
}
