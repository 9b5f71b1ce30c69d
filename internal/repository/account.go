package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
)

// AccountRepository is the account store contract. Implementations must
// enforce unique email/username and make the rotation and redemption
// operations atomic; the usecases rely on that for their single-use
// guarantees.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.Account, error)
	FindByRefreshToken(ctx context.Context, value string) (*domain.Account, error)

	// SetRefreshToken overwrites the stored refresh token value,
	// immediately invalidating any previously issued one.
	SetRefreshToken(ctx context.Context, id, value string) error

	// RotateRefreshToken is a compare-and-swap: it replaces current with
	// next only if current is still the stored value. A stale current
	// (already rotated away, or cleared by logout) returns
	// domain.ErrUnauthorized.
	RotateRefreshToken(ctx context.Context, id, current, next string) error

	ClearRefreshToken(ctx context.Context, id string) error

	// SetActionToken writes digest, kind and expiry together, overwriting
	// any pending action token of either kind.
	SetActionToken(ctx context.Context, id, digest string, kind domain.ActionTokenKind, expiry time.Time) error

	// RedeemActionToken atomically finds the account whose pending token
	// matches digest and kind and has not expired, clears the token slot
	// (and flips the verified flag for verify-email), and returns the
	// account. No match returns domain.ErrActionTokenInvalid.
	RedeemActionToken(ctx context.Context, digest string, kind domain.ActionTokenKind, now time.Time) (*domain.Account, error)

	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// ClearExpiredActionTokens removes expired pending tokens in bulk.
	// Purely housekeeping: redemption already checks expiry.
	ClearExpiredActionTokens(ctx context.Context, now time.Time) (int64, error)
}
