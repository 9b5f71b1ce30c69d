package hash

import (
	"testing"
	"time"
)

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	first, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same plaintext are identical; salt missing")
	}
	if !VerifyPassword("password123", first) {
		t.Error("first digest does not verify against its plaintext")
	}
	if !VerifyPassword("password123", second) {
		t.Error("second digest does not verify against its plaintext")
	}
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	digest, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if VerifyPassword("password124", digest) {
		t.Error("wrong password verified")
	}
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	if VerifyPassword("password123", "not-a-bcrypt-digest") {
		t.Error("malformed digest verified")
	}
	if VerifyPassword("password123", "") {
		t.Error("empty digest verified")
	}
}

func TestDigestActionToken_Deterministic(t *testing.T) {
	if DigestActionToken("abc") != DigestActionToken("abc") {
		t.Error("same raw value produced different digests")
	}
	if DigestActionToken("abc") == DigestActionToken("abd") {
		t.Error("different raw values produced the same digest")
	}
}

func TestGenerateActionToken(t *testing.T) {
	before := time.Now()
	raw, digest, expiry, err := GenerateActionToken(time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 32 random bytes, hex encoded.
	if len(raw) != 64 {
		t.Errorf("raw token length = %d, want 64", len(raw))
	}
	if digest != DigestActionToken(raw) {
		t.Error("digest is not the digest of the raw token")
	}
	if !expiry.After(before.Add(59 * time.Minute)) {
		t.Errorf("expiry %v not ~1h in the future", expiry)
	}

	raw2, _, _, err := GenerateActionToken(time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == raw2 {
		t.Error("two generated tokens are identical")
	}
}
