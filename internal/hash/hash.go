package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const actionTokenBytes = 32

// HashPassword produces a bcrypt digest with a per-call random salt.
// Hashing the same plaintext twice yields different digests.
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword reports whether plain matches the bcrypt digest.
// A malformed digest verifies as false, never as an error.
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// DigestActionToken returns the deterministic SHA-256 hex digest of a raw
// action token. No salt: the server must be able to recompute the digest
// from the raw value presented in an email link.
func DigestActionToken(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// GenerateActionToken creates a high-entropy raw token, its digest, and an
// expiry of now+ttl. Only the digest is ever persisted.
func GenerateActionToken(ttl time.Duration) (raw, digest string, expiry time.Time, err error) {
	buf := make([]byte, actionTokenBytes)
	if _, err = io.ReadFull(rand.Reader, buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate action token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, DigestActionToken(raw), time.Now().Add(ttl), nil
}
