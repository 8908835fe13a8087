package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/otps"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func nopLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.OTPLength = 8
	return cfg
}

func testHasher() auth.PasswordHasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

func testValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New(5 << 20)
	require.NoError(t, err)
	return v
}

// seedUser stores a user with the given plain password and returns it.
func seedUser(t *testing.T, rm *fakeRepoManager, name, email, password string) *models.User {
	t.Helper()
	hash, err := testHasher().Hash(password)
	require.NoError(t, err)
	u, err := rm.mem.Users(nil).Create(context.Background(), &models.User{
		Name: name, Email: email, Password: hash, Status: models.UserStatusActive,
	})
	require.NoError(t, err)
	return u
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendHTML(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

// faults maps "Repo.Method" to the error that call returns.
type faults map[string]error

// fakeRepoManager serves in-memory repositories, failing the calls named
// in faults.
type fakeRepoManager struct {
	mem *memory.InMemoryRepositoryManager
	f   faults
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{mem: memory.NewInMemoryRepositoryManager(), f: faults{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	return &faultyUsers{Repository: m.mem.Users(db), f: m.f}
}

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &faultyRefresh{Repository: m.mem.RefreshTokens(db), f: m.f}
}

func (m *fakeRepoManager) Otps(db dbx.DBTX) otps.Repository {
	return &faultyOtps{Repository: m.mem.Otps(db), f: m.f}
}

type faultyUsers struct {
	users.Repository
	f faults
}

func (r *faultyUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := r.f["Users.Create"]; err != nil {
		return nil, err
	}
	return r.Repository.Create(ctx, u)
}

func (r *faultyUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := r.f["Users.GetByEmail"]; err != nil {
		return nil, err
	}
	return r.Repository.GetByEmail(ctx, email)
}

func (r *faultyUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := r.f["Users.GetByID"]; err != nil {
		return nil, err
	}
	return r.Repository.GetByID(ctx, id)
}

func (r *faultyUsers) List(ctx context.Context, limit int) ([]*models.User, error) {
	if err := r.f["Users.List"]; err != nil {
		return nil, err
	}
	return r.Repository.List(ctx, limit)
}

func (r *faultyUsers) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	if err := r.f["Users.EmailTaken"]; err != nil {
		return false, err
	}
	return r.Repository.EmailTaken(ctx, email, excludeID)
}

func (r *faultyUsers) Update(ctx context.Context, id int64, p *models.UserPatch) (bool, error) {
	if err := r.f["Users.Update"]; err != nil {
		return false, err
	}
	return r.Repository.Update(ctx, id, p)
}

func (r *faultyUsers) Delete(ctx context.Context, id int64) (bool, error) {
	if err := r.f["Users.Delete"]; err != nil {
		return false, err
	}
	return r.Repository.Delete(ctx, id)
}

type faultyRefresh struct {
	refreshtokens.Repository
	f faults
}

func (r *faultyRefresh) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if err := r.f["RefreshTokens.Create"]; err != nil {
		return err
	}
	return r.Repository.Create(ctx, userID, token, expiresAt)
}

func (r *faultyRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if err := r.f["RefreshTokens.Find"]; err != nil {
		return nil, err
	}
	return r.Repository.Find(ctx, token)
}

func (r *faultyRefresh) Delete(ctx context.Context, token string) error {
	if err := r.f["RefreshTokens.Delete"]; err != nil {
		return err
	}
	return r.Repository.Delete(ctx, token)
}

func (r *faultyRefresh) DeleteByUser(ctx context.Context, userID int64) error {
	if err := r.f["RefreshTokens.DeleteByUser"]; err != nil {
		return err
	}
	return r.Repository.DeleteByUser(ctx, userID)
}

type faultyOtps struct {
	otps.Repository
	f faults
}

func (r *faultyOtps) Create(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	if err := r.f["Otps.Create"]; err != nil {
		return err
	}
	return r.Repository.Create(ctx, userID, code, expiresAt)
}

func (r *faultyOtps) DeleteByUser(ctx context.Context, userID int64) error {
	if err := r.f["Otps.DeleteByUser"]; err != nil {
		return err
	}
	return r.Repository.DeleteByUser(ctx, userID)
}

func (r *faultyOtps) FindByEmailAndCode(ctx context.Context, email, code string) (*models.Otp, error) {
	if err := r.f["Otps.FindByEmailAndCode"]; err != nil {
		return nil, err
	}
	return r.Repository.FindByEmailAndCode(ctx, email, code)
}

func (r *faultyOtps) Delete(ctx context.Context, id int64) error {
	if err := r.f["Otps.Delete"]; err != nil {
		return err
	}
	return r.Repository.Delete(ctx, id)
}
