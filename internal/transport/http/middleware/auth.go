package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errUnauthorized = "Unauthorized"

	accessCookie = "accessToken"
	accountKey   = "account"
)

// authorizer is the subset of SessionUsecase the middleware needs.
type authorizer interface {
	Authorize(ctx context.Context, raw string) (domain.PublicAccount, error)
}

// Auth extracts the access token (the accessToken cookie wins over the
// Authorization header), verifies it, and stores the sanitized account in
// the gin context for handlers.
func Auth(sessions authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractAccessToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		account, err := sessions.Authorize(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessCookie); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// AccountFromContext returns the account set by Auth. Zero value if the
// middleware did not run.
func AccountFromContext(c *gin.Context) domain.PublicAccount {
	account, _ := c.Get(accountKey)
	if a, ok := account.(domain.PublicAccount); ok {
		return a
	}
	return domain.PublicAccount{}
}
