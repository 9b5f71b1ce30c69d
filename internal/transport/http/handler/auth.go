package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/ErlanBelekov/account-service/internal/transport/http/middleware"
	"github.com/ErlanBelekov/account-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// sessionUsecaser is the subset of SessionUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type sessionUsecaser interface {
	Register(ctx context.Context, email, username, password string) (domain.PublicAccount, error)
	Login(ctx context.Context, email, password string) (usecase.TokenPair, domain.PublicAccount, error)
	Refresh(ctx context.Context, presented string) (usecase.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

type actionTokenUsecaser interface {
	RequestEmailVerification(ctx context.Context, accountID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, raw string) (domain.PublicAccount, error)
	ResetPassword(ctx context.Context, raw, newPassword string) error
}

type AuthHandler struct {
	sessions   sessionUsecaser
	actions    actionTokenUsecaser
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewAuthHandler(sessions sessionUsecaser, actions actionTokenUsecaser, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		actions:    actions,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,lowercase"`
	Password string `json:"password" binding:"required,min=8"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.sessions.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": account})
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/auth/login
// Sets the token cookies and returns the pair in the body as well.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, account, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":          account,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/v1/auth/refresh-token
// The refresh token comes from the cookie, or from the body for clients
// that don't hold cookies.
func (h *AuthHandler) Refresh(c *gin.Context) {
	presented, err := c.Cookie(refreshCookie)
	if err != nil || presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), presented)
	if err != nil {
		respondError(c, h.logger, "refresh", err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	if err := h.sessions.Logout(c.Request.Context(), account.ID); err != nil {
		respondError(c, h.logger, "logout", err)
		return
	}

	clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /api/v1/auth/current-user
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.AccountFromContext(c)})
}

// GET /api/v1/auth/verify-email/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	raw := c.Param("token")
	if raw == "" {
		c.JSON(http.StatusGone, gin.H{"error": errTokenInvalid})
		return
	}

	account, err := h.actions.VerifyEmail(c.Request.Context(), raw)
	if err != nil {
		respondError(c, h.logger, "verify email", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified", "user": account})
}

// POST /api/v1/auth/resend-email-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	if err := h.actions.RequestEmailVerification(c.Request.Context(), account.ID); err != nil {
		respondError(c, h.logger, "resend verification", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.actions.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, "forgot password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// POST /api/v1/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	raw := c.Param("token")

	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.actions.ResetPassword(c.Request.Context(), raw, req.NewPassword); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.ChangePassword(c.Request.Context(), account.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, "change password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair usecase.TokenPair) {
	c.SetCookie(accessCookie, pair.AccessToken, int(h.accessTTL.Seconds()), "/", "", true, true)
	c.SetCookie(refreshCookie, pair.RefreshToken, int(h.refreshTTL.Seconds()), "/", "", true, true)
}

func clearTokenCookies(c *gin.Context) {
	c.SetCookie(accessCookie, "", -1, "/", "", true, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", true, true)
}
