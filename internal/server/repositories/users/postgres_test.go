package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var fullColumns = []string{"id", "name", "email", "password", "dob", "avatar", "status", "created_at", "updated_at"}

const (
	insertQ     = `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password,\s*dob,\s*avatar,\s*status\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id\s*$`
	byEmailQ    = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	byIDQ       = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	listQ       = `(?s)^SELECT\s+id,\s*name,\s*email,\s*dob,\s*avatar,\s*status,\s*created_at,\s*updated_at\s+FROM\s+users\s+ORDER\s+BY\s+id\s+LIMIT\s+\$1\s*$`
	emailTakenQ = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+AND\s+id\s*<>\s*\$2\)$`
	deleteQ     = `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "a@b.com", "hash", dob, nil, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	u := &models.User{Name: "alice", Email: "a@b.com", Password: "hash", Dob: &dob, Status: models.UserStatusActive}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "alice", Email: "a@b.com", Password: "hash", Status: 1})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(byEmailQ).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(fullColumns).
			AddRow(int64(1), "alice", "a@b.com", "hash", nil, "uploads/x.png", int64(1), now, now))

	got, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "hash", got.Password)
	assert.Nil(t, got.Dob)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, "uploads/x.png", *got.Avatar)
	assert.Equal(t, models.UserStatusActive, got.Status)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQ).WithArgs("ghost@b.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@b.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_FoundWithDob(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	dob := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(byIDQ).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(fullColumns).
			AddRow(int64(7), "bob", "b@b.com", "hash", dob, nil, int64(2), now, now))

	got, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got.Dob)
	assert.True(t, dob.Equal(*got.Dob))
	assert.Nil(t, got.Avatar)
	assert.Equal(t, models.UserStatusInactive, got.Status)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQ).WithArgs(int64(7)).WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), 7)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(listQ).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "dob", "avatar", "status", "created_at", "updated_at"}).
			AddRow(int64(1), "alice", "a@b.com", nil, nil, int64(1), now, now).
			AddRow(int64(2), "bob", "b@b.com", nil, nil, int64(1), now, now))

	got, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[1].Name)
	assert.Empty(t, got[0].Password)
}

func TestList_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(listQ).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "dob", "avatar", "status", "created_at", "updated_at"}).
			AddRow(int64(1), "alice", "a@b.com", nil, nil, int64(1), now, now).
			RowError(0, errors.New("broken row")))

	_, err := repo.List(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken row")
}

func TestEmailTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(emailTakenQ).
		WithArgs("a@b.com", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.EmailTaken(context.Background(), "a@b.com", 3)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUpdate_BuildsSetClause(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	name := "carol"
	status := models.UserStatusInactive
	q := `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$1,\s*status\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$3$`

	mock.ExpectExec(q).
		WithArgs("carol", int64(2), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Update(context.Background(), 5, &models.UserPatch{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	pw := "hash"
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$1`).
		WithArgs("hash", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Update(context.Background(), 9, &models.UserPatch{Password: &pw})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_EmptyPatch(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Update(context.Background(), 1, &models.UserPatch{})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs(int64(4)).WillReturnError(errors.New("db err"))

	_, err := repo.Delete(context.Background(), 4)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
