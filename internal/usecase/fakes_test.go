package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/account-service/internal/domain"
)

// memRepo is an in-memory account store with the same atomicity guarantees
// as the postgres implementation: rotation is compare-and-swap, redemption
// is match-and-clear. Good enough to exercise the replay and single-use
// invariants without a database.
type memRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: make(map[string]*domain.Account)}
}

func (r *memRepo) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return domain.ErrEmailTaken
		}
		if existing.Username == a.Username {
			return domain.ErrUsernameTaken
		}
	}
	clone := *a
	r.accounts[a.ID] = &clone
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email || a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memRepo) FindByRefreshToken(_ context.Context, value string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.RefreshToken != nil && *a.RefreshToken == value {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memRepo) SetRefreshToken(_ context.Context, id, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.RefreshToken = &value
	return nil
}

func (r *memRepo) RotateRefreshToken(_ context.Context, id, current, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.RefreshToken == nil || *a.RefreshToken != current {
		return domain.ErrUnauthorized
	}
	a.RefreshToken = &next
	return nil
}

func (r *memRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.RefreshToken = nil
	}
	return nil
}

func (r *memRepo) SetActionToken(_ context.Context, id, digest string, kind domain.ActionTokenKind, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.ActionTokenDigest = &digest
	a.ActionTokenKind = &kind
	a.ActionTokenExpiry = &expiry
	return nil
}

func (r *memRepo) RedeemActionToken(_ context.Context, digest string, kind domain.ActionTokenKind, now time.Time) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ActionTokenDigest == nil || *a.ActionTokenDigest != digest {
			continue
		}
		if a.ActionTokenKind == nil || *a.ActionTokenKind != kind {
			continue
		}
		if a.ActionTokenExpiry == nil || !a.ActionTokenExpiry.After(now) {
			continue
		}
		a.ActionTokenDigest = nil
		a.ActionTokenKind = nil
		a.ActionTokenExpiry = nil
		if kind == domain.ActionVerifyEmail {
			a.IsEmailVerified = true
		}
		clone := *a
		return &clone, nil
	}
	return nil, domain.ErrActionTokenInvalid
}

func (r *memRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (r *memRepo) ClearExpiredActionTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.accounts {
		if a.ActionTokenExpiry != nil && !a.ActionTokenExpiry.After(now) {
			a.ActionTokenDigest = nil
			a.ActionTokenKind = nil
			a.ActionTokenExpiry = nil
			n++
		}
	}
	return n, nil
}

// captureSender records sent emails; fail makes every send error.
type captureSender struct {
	mu     sync.Mutex
	bodies []string
	fail   error
}

func (s *captureSender) Send(_ context.Context, _, _, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.bodies = append(s.bodies, body)
	return nil
}

func (s *captureSender) lastBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bodies) == 0 {
		return ""
	}
	return s.bodies[len(s.bodies)-1]
}
