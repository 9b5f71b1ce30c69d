package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/ErlanBelekov/account-service/internal/email"
	"github.com/ErlanBelekov/account-service/internal/hash"
	"github.com/ErlanBelekov/account-service/internal/metrics"
	"github.com/ErlanBelekov/account-service/internal/repository"
)

// ActionTokenUsecase issues and redeems the single-use, time-boxed tokens
// delivered by email for verifying an address or resetting a password.
// An account holds at most one pending token across both kinds; issuing a
// new one overwrites whatever was pending.
type ActionTokenUsecase struct {
	accounts  repository.AccountRepository
	sender    email.Sender
	verifyTTL time.Duration
	resetTTL  time.Duration
	baseURL   string
	logger    *slog.Logger
}

func NewActionTokenUsecase(accounts repository.AccountRepository, sender email.Sender, verifyTTL, resetTTL time.Duration, baseURL string, logger *slog.Logger) *ActionTokenUsecase {
	return &ActionTokenUsecase{
		accounts:  accounts,
		sender:    sender,
		verifyTTL: verifyTTL,
		resetTTL:  resetTTL,
		baseURL:   baseURL,
		logger:    logger.With("component", "action_token_usecase"),
	}
}

// RequestEmailVerification re-issues a verification token for an account
// that has not verified yet. Used by the authenticated resend endpoint.
func (u *ActionTokenUsecase) RequestEmailVerification(ctx context.Context, accountID string) error {
	account, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account.IsEmailVerified {
		return domain.ErrAlreadyVerified
	}
	return u.sendVerification(ctx, account)
}

// RequestPasswordReset issues a reset-password token and emails the link.
// Delivery failure is logged, not propagated: a mail outage must not turn
// the request into an error response.
func (u *ActionTokenUsecase) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	account, err := u.accounts.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	raw, err := u.issue(ctx, account.ID, domain.ActionResetPassword, u.resetTTL)
	if err != nil {
		return err
	}

	link := u.baseURL + "/api/v1/auth/reset-password/" + raw
	subject, body := email.PasswordResetBody(account.Username, link)
	u.deliver(ctx, account.Email, subject, body)
	return nil
}

// VerifyEmail redeems a verify-email token: single use, expiry and kind
// checked atomically at the store. Returns the updated sanitized account.
func (u *ActionTokenUsecase) VerifyEmail(ctx context.Context, raw string) (domain.PublicAccount, error) {
	digest := hash.DigestActionToken(raw)

	account, err := u.accounts.RedeemActionToken(ctx, digest, domain.ActionVerifyEmail, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrActionTokenInvalid) {
			metrics.ActionTokenRedemptionsTotal.WithLabelValues(string(domain.ActionVerifyEmail), "invalid").Inc()
			return domain.PublicAccount{}, domain.ErrActionTokenInvalid
		}
		return domain.PublicAccount{}, fmt.Errorf("redeem verification token: %w", err)
	}

	metrics.ActionTokenRedemptionsTotal.WithLabelValues(string(domain.ActionVerifyEmail), "ok").Inc()
	return account.Public(), nil
}

// ResetPassword redeems a reset-password token and stores the new password
// hash. Outstanding sessions are invalidated: whoever requested the reset
// should be the only one left logged in.
func (u *ActionTokenUsecase) ResetPassword(ctx context.Context, raw, newPassword string) error {
	digest := hash.DigestActionToken(raw)

	account, err := u.accounts.RedeemActionToken(ctx, digest, domain.ActionResetPassword, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrActionTokenInvalid) {
			metrics.ActionTokenRedemptionsTotal.WithLabelValues(string(domain.ActionResetPassword), "invalid").Inc()
			return domain.ErrActionTokenInvalid
		}
		return fmt.Errorf("redeem reset token: %w", err)
	}

	newHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := u.accounts.ClearRefreshToken(ctx, account.ID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	metrics.ActionTokenRedemptionsTotal.WithLabelValues(string(domain.ActionResetPassword), "ok").Inc()
	return nil
}

// sendVerification issues a verify-email token and emails the link.
// Called on registration and on resend.
func (u *ActionTokenUsecase) sendVerification(ctx context.Context, account *domain.Account) error {
	raw, err := u.issue(ctx, account.ID, domain.ActionVerifyEmail, u.verifyTTL)
	if err != nil {
		return err
	}

	link := u.baseURL + "/api/v1/auth/verify-email/" + raw
	subject, body := email.VerificationBody(account.Username, link)
	u.deliver(ctx, account.Email, subject, body)
	return nil
}

// issue generates a fresh token and persists digest, kind and expiry in
// one store write. Only the raw value leaves the process, by email.
func (u *ActionTokenUsecase) issue(ctx context.Context, accountID string, kind domain.ActionTokenKind, ttl time.Duration) (string, error) {
	raw, digest, expiry, err := hash.GenerateActionToken(ttl)
	if err != nil {
		return "", err
	}
	if err := u.accounts.SetActionToken(ctx, accountID, digest, kind, expiry); err != nil {
		return "", fmt.Errorf("store action token: %w", err)
	}
	return raw, nil
}

func (u *ActionTokenUsecase) deliver(ctx context.Context, to, subject, body string) {
	if err := u.sender.Send(ctx, to, subject, body); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("error").Inc()
		u.logger.ErrorContext(ctx, "send email", "subject", subject, "error", err)
		return
	}
	metrics.EmailsSentTotal.WithLabelValues("ok").Inc()
}
