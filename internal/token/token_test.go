package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
)

const (
	testAccessSecret  = "access-secret-at-least-32-chars!!!!"
	testRefreshSecret = "refresh-secret-at-least-32-chars!!!"
)

func newManager() *Manager {
	return NewManager([]byte(testAccessSecret), []byte(testRefreshSecret), 15*time.Minute, 30*24*time.Hour)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newManager()

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		raw, err := m.Issue(kind, "acc-1")
		if err != nil {
			t.Fatalf("Issue(%v): %v", kind, err)
		}
		if strings.Count(raw, ".") != 2 {
			t.Errorf("token %q is not a JWT", raw)
		}

		sub, err := m.Verify(raw, kind)
		if err != nil {
			t.Fatalf("Verify(%v): %v", kind, err)
		}
		if sub != "acc-1" {
			t.Errorf("subject = %q, want %q", sub, "acc-1")
		}
	}
}

func TestVerify_CrossFamilyFails(t *testing.T) {
	m := newManager()

	access, err := m.Issue(KindAccess, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Verify(access, KindRefresh); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("access token verified as refresh: err = %v", err)
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	m := newManager()
	other := NewManager([]byte("another-secret-also-32-chars-long!!"), []byte(testRefreshSecret), time.Minute, time.Minute)

	raw, err := m.Issue(KindAccess, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := other.Verify(raw, KindAccess); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("token signed with a different secret verified: err = %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager([]byte(testAccessSecret), []byte(testRefreshSecret), -time.Minute, -time.Minute)

	raw, err := m.Issue(KindAccess, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = newManager().Verify(raw, KindAccess)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
	// Expiry still collapses to unauthorized for callers.
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("ErrTokenExpired does not match ErrUnauthorized: %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := newManager()
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Verify(raw, KindAccess); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Verify(%q) = %v, want ErrUnauthorized", raw, err)
		}
	}
}
