package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/ErlanBelekov/account-service/internal/hash"
	"github.com/ErlanBelekov/account-service/internal/metrics"
	"github.com/ErlanBelekov/account-service/internal/repository"
	"github.com/ErlanBelekov/account-service/internal/token"
	"github.com/google/uuid"
)

// TokenPair is what login and refresh hand back to the transport layer.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionUsecase orchestrates registration, login, logout, refresh
// rotation, and access-token authorization against the account store.
type SessionUsecase struct {
	accounts repository.AccountRepository
	tokens   *token.Manager
	actions  *ActionTokenUsecase
	logger   *slog.Logger
}

func NewSessionUsecase(accounts repository.AccountRepository, tokens *token.Manager, actions *ActionTokenUsecase, logger *slog.Logger) *SessionUsecase {
	return &SessionUsecase{
		accounts: accounts,
		tokens:   tokens,
		actions:  actions,
		logger:   logger.With("component", "session_usecase"),
	}
}

// Register creates an unverified account and kicks off email verification.
// The verification email is best-effort: a mail outage must not fail the
// registration, the user can ask for a resend.
func (u *SessionUsecase) Register(ctx context.Context, email, username, password string) (domain.PublicAccount, error) {
	existing, err := u.accounts.FindByEmailOrUsername(ctx, email, username)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.PublicAccount{}, fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		if existing.Email == email {
			return domain.PublicAccount{}, domain.ErrEmailTaken
		}
		return domain.PublicAccount{}, domain.ErrUsernameTaken
	}

	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return domain.PublicAccount{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return domain.PublicAccount{}, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return domain.PublicAccount{}, fmt.Errorf("create account: %w", err)
	}

	if err := u.actions.sendVerification(ctx, account); err != nil {
		u.logger.ErrorContext(ctx, "send verification after register", "account_id", account.ID, "error", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	return account.Public(), nil
}

// Login checks credentials, issues a fresh token pair, and persists the
// refresh token value. Overwriting the stored value invalidates any
// previously issued refresh token immediately.
func (u *SessionUsecase) Login(ctx context.Context, email, password string) (TokenPair, domain.PublicAccount, error) {
	account, err := u.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			return TokenPair{}, domain.PublicAccount{}, domain.ErrAccountNotFound
		}
		return TokenPair{}, domain.PublicAccount{}, fmt.Errorf("find account: %w", err)
	}

	if !hash.VerifyPassword(password, account.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		return TokenPair{}, domain.PublicAccount{}, domain.ErrUnauthorized
	}

	pair, err := u.issuePair(account.ID)
	if err != nil {
		return TokenPair{}, domain.PublicAccount{}, err
	}
	if err := u.accounts.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, domain.PublicAccount{}, fmt.Errorf("store refresh token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return pair, account.Public(), nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// value. A token that fails verification, or that is not byte-equal to the
// stored value (already rotated away, logged out, or forged), is rejected.
// The store-level compare-and-swap guarantees that of two concurrent
// refreshes with the same token exactly one wins.
func (u *SessionUsecase) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	accountID, err := u.tokens.Verify(presented, token.KindRefresh)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("invalid").Inc()
		return TokenPair{}, err
	}

	pair, err := u.issuePair(accountID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := u.accounts.RotateRefreshToken(ctx, accountID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			metrics.RefreshRotationsTotal.WithLabelValues("stale").Inc()
			u.logger.WarnContext(ctx, "refresh token reuse detected", "account_id", accountID)
			return TokenPair{}, domain.ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	metrics.RefreshRotationsTotal.WithLabelValues("ok").Inc()
	return pair, nil
}

// Logout clears the stored refresh token, making any outstanding refresh
// token unusable regardless of its expiry.
func (u *SessionUsecase) Logout(ctx context.Context, accountID string) error {
	if err := u.accounts.ClearRefreshToken(ctx, accountID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// Authorize verifies an access token and returns the sanitized profile of
// its subject. Any verification failure collapses to ErrUnauthorized.
func (u *SessionUsecase) Authorize(ctx context.Context, raw string) (domain.PublicAccount, error) {
	accountID, err := u.tokens.Verify(raw, token.KindAccess)
	if err != nil {
		return domain.PublicAccount{}, err
	}

	account, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.PublicAccount{}, domain.ErrUnauthorized
		}
		return domain.PublicAccount{}, fmt.Errorf("load account: %w", err)
	}
	return account.Public(), nil
}

// ChangePassword verifies the old password and stores a hash of the new one.
func (u *SessionUsecase) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}

	if !hash.VerifyPassword(oldPassword, account.PasswordHash) {
		return domain.ErrUnauthorized
	}

	newHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.accounts.UpdatePassword(ctx, accountID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (u *SessionUsecase) issuePair(accountID string) (TokenPair, error) {
	access, err := u.tokens.Issue(token.KindAccess, accountID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := u.tokens.Issue(token.KindRefresh, accountID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
