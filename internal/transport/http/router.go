package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/ErlanBelekov/account-service/internal/health"
	"github.com/ErlanBelekov/account-service/internal/transport/http/handler"
	"github.com/ErlanBelekov/account-service/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// authorizer matches what middleware.Auth needs; the concrete value is the
// session usecase.
type authorizer interface {
	Authorize(ctx context.Context, raw string) (domain.PublicAccount, error)
}

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, sessions authorizer, checker *health.Checker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(sessions)

	v1 := r.Group("/api/v1")

	v1.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Liveness(c.Request.Context()))
	})

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/verify-email/:token", authHandler.VerifyEmail)
	auth.POST("/refresh-token", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)

	// Protected routes
	auth.POST("/logout", authMW, authHandler.Logout)
	auth.GET("/current-user", authMW, authHandler.CurrentUser)
	auth.POST("/change-password", authMW, authHandler.ChangePassword)
	auth.POST("/resend-email-verification", authMW, authHandler.ResendVerification)

	return r
}
