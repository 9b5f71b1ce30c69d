package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects a token family. Each family signs with its own secret, so a
// refresh token can never verify as an access token or vice versa.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

// Claims is the signed claim set carried by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues and verifies the signed token families. Secrets and TTLs
// are immutable after construction.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *Manager) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return m.refreshSecret
	}
	return m.accessSecret
}

func (m *Manager) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

// Issue signs a token of the given family for accountID.
func (m *Manager) Issue(kind Kind, accountID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl(kind))),
			// iat/exp have second resolution; the jti keeps two tokens
			// issued back to back from being byte-identical, which the
			// rotation check depends on.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret(kind))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry against the family secret and returns
// the subject account ID. It never consults the account store; binding a
// refresh token to its stored value is the session manager's job.
func (m *Manager) Verify(raw string, kind Kind) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrUnauthorized
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
