package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

type refreshTokensRepo struct {
	s *store
}

func (r *refreshTokensRepo) Create(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tokens[token] = &models.RefreshToken{
		ID:        r.s.nextID(),
		UserID:    userID,
		Token:     token,
		Expires:   expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *refreshTokensRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *refreshTokensRepo) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, token)
	return nil
}

func (r *refreshTokensRepo) DeleteByUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

// ExpireRefreshToken moves the stored expiry of token into the past.
func (m *InMemoryRepositoryManager) ExpireRefreshToken(token string) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if t, ok := m.s.tokens[token]; ok {
		t.Expires = time.Now().Add(-time.Minute)
	}
}

type otpsRepo struct {
	s *store
}

func (r *otpsRepo) Create(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := r.s.nextID()
	r.s.otps[id] = &models.Otp{ID: id, UserID: userID, Token: code, Expires: expiresAt}
	return nil
}

func (r *otpsRepo) DeleteByUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, o := range r.s.otps {
		if o.UserID == userID {
			delete(r.s.otps, id)
		}
	}
	return nil
}

func (r *otpsRepo) FindByEmailAndCode(_ context.Context, email, code string) (*models.Otp, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.otps {
		u, ok := r.s.users[o.UserID]
		if ok && u.Email == email && o.Token == code {
			c := *o
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *otpsRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.otps, id)
	return nil
}

// ExpireOtps moves the expiry of every stored code into the past.
func (m *InMemoryRepositoryManager) ExpireOtps() {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, o := range m.s.otps {
		o.Expires = time.Now().Add(-time.Minute)
	}
}

// OtpCount returns the number of stored codes of userID.
func (m *InMemoryRepositoryManager) OtpCount(userID int64) int {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	n := 0
	for _, o := range m.s.otps {
		if o.UserID == userID {
			n++
		}
	}
	return n
}
