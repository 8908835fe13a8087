// Package memory is an in-process RepositoryManager. It keeps every table in
// maps behind one mutex and ignores the DBTX it is handed, so transactions
// opened by services are accepted but not isolated.
//
// It is a test double, not a production backend: nothing outside _test.go
// files imports it. It lives in a regular package so the services and rest
// tests can share one implementation.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/otps"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
)

type store struct {
	mu sync.Mutex

	users    map[int64]*models.User
	tokens   map[string]*models.RefreshToken
	otps     map[int64]*models.Otp
	sequence int64
}

func (s *store) nextID() int64 {
	s.sequence++
	return s.sequence
}

type InMemoryRepositoryManager struct {
	s *store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{s: &store{
		users:  map[int64]*models.User{},
		tokens: map[string]*models.RefreshToken{},
		otps:   map[int64]*models.Otp{},
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return &usersRepo{s: m.s}
}

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &refreshTokensRepo{s: m.s}
}

func (m *InMemoryRepositoryManager) Otps(dbx.DBTX) otps.Repository {
	return &otpsRepo{s: m.s}
}
