package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, email, username, password_hash, is_email_verified,
	refresh_token, action_token_digest, action_token_kind, action_token_expiry,
	created_at, updated_at`

// AccountRepository is the pgx-backed account store. Every call is bounded
// by the configured timeout; deadline hits surface as
// domain.ErrStoreUnavailable so callers can tell transient store trouble
// from validation failures.
type AccountRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewAccountRepository(pool *pgxpool.Pool, timeout time.Duration) *AccountRepository {
	return &AccountRepository{pool: pool, timeout: timeout}
}

func (r *AccountRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStoreUnavailable
	}
	return err
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, username, password_hash, is_email_verified,
			action_token_digest, action_token_kind, action_token_expiry, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Email, a.Username, a.PasswordHash, a.IsEmailVerified,
		a.ActionTokenDigest, a.ActionTokenKind, a.ActionTokenExpiry, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return domain.ErrUsernameTaken
			}
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", mapStoreErr(err))
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.Account, error) {
	return r.findOne(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1 OR username = $2`,
		email, username)
}

func (r *AccountRepository) FindByRefreshToken(ctx context.Context, value string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE refresh_token = $1`, value)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, mapStoreErr(err)
	}
	return a, nil
}

func (r *AccountRepository) SetRefreshToken(ctx context.Context, id, value string) error {
	return r.exec(ctx, "set refresh token",
		`UPDATE accounts SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, value)
}

func (r *AccountRepository) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Compare-and-swap: of two concurrent rotations presenting the same
	// token, exactly one matches the stored value and wins.
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = $3, updated_at = now()
		 WHERE id = $1 AND refresh_token = $2`,
		id, current, next,
	)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", mapStoreErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnauthorized
	}
	return nil
}

func (r *AccountRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx, "clear refresh token",
		`UPDATE accounts SET refresh_token = NULL, updated_at = now() WHERE id = $1`, id)
}

func (r *AccountRepository) SetActionToken(ctx context.Context, id, digest string, kind domain.ActionTokenKind, expiry time.Time) error {
	return r.exec(ctx, "set action token",
		`UPDATE accounts
		 SET action_token_digest = $2, action_token_kind = $3, action_token_expiry = $4, updated_at = now()
		 WHERE id = $1`,
		id, digest, string(kind), expiry)
}

func (r *AccountRepository) RedeemActionToken(ctx context.Context, digest string, kind domain.ActionTokenKind, now time.Time) (*domain.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Match-and-clear in one statement so a token can be consumed once.
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET action_token_digest = NULL, action_token_kind = NULL, action_token_expiry = NULL,
		     is_email_verified = CASE WHEN $2 = 'verify-email' THEN TRUE ELSE is_email_verified END,
		     updated_at = now()
		 WHERE action_token_digest = $1 AND action_token_kind = $2 AND action_token_expiry > $3
		 RETURNING `+accountColumns,
		digest, string(kind), now,
	)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrActionTokenInvalid
		}
		return nil, mapStoreErr(err)
	}
	return a, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *AccountRepository) ClearExpiredActionTokens(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts
		 SET action_token_digest = NULL, action_token_kind = NULL, action_token_expiry = NULL
		 WHERE action_token_expiry <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired action tokens: %w", mapStoreErr(err))
	}
	return tag.RowsAffected(), nil
}

func (r *AccountRepository) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, mapStoreErr(err))
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var kind *string
	err := row.Scan(
		&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.IsEmailVerified,
		&a.RefreshToken, &a.ActionTokenDigest, &kind, &a.ActionTokenExpiry,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if kind != nil {
		k := domain.ActionTokenKind(*kind)
		a.ActionTokenKind = &k
	}
	return &a, nil
}
