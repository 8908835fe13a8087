package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func nopLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenPair, error) {
	args := m.Called(ctx, req)
	pair, _ := args.Get(0).(*dto.TokenPair)
	return pair, args.Error(1)
}

func (m *mockAuth) RefreshToken(ctx context.Context, token string) (*dto.TokenPair, error) {
	args := m.Called(ctx, token)
	pair, _ := args.Get(0).(*dto.TokenPair)
	return pair, args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuth) ChangePassword(ctx context.Context, userID int64, req dto.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockAuth) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuth) ForgotPasswordChange(ctx context.Context, req dto.ForgotPasswordChangeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuth) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(*auth.Claims)
	return c, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) List(ctx context.Context) ([]*dto.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*dto.User)
	return users, args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, encID string) (*dto.User, error) {
	args := m.Called(ctx, encID)
	u, _ := args.Get(0).(*dto.User)
	return u, args.Error(1)
}

func (m *mockUsers) Create(ctx context.Context, req dto.CreateUserRequest, upload *models.Upload) (*dto.User, error) {
	args := m.Called(ctx, req, upload)
	u, _ := args.Get(0).(*dto.User)
	return u, args.Error(1)
}

func (m *mockUsers) Update(ctx context.Context, encID string, req dto.UpdateUserRequest, upload *models.Upload) error {
	return m.Called(ctx, encID, req, upload).Error(0)
}

func (m *mockUsers) Delete(ctx context.Context, encID string) error {
	return m.Called(ctx, encID).Error(0)
}

type testAPI struct {
	handler http.Handler
	auth    *mockAuth
	users   *mockUsers
	tempDir string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	tempDir := t.TempDir()
	up, err := NewUploader(tempDir, 1<<20)
	require.NoError(t, err)

	a, u := &mockAuth{}, &mockUsers{}
	h := NewHandlers(a, u, up, nopLogger())
	t.Cleanup(func() {
		a.AssertExpectations(t)
		u.AssertExpectations(t)
	})
	return &testAPI{
		handler: NewRouter(h, RouterOptions{AllowedOrigins: []string{"http://localhost:8080"}}),
		auth:    a,
		users:   u,
		tempDir: tempDir,
	}
}

// authorize makes Authenticate accept token as the access token of userID.
func (api *testAPI) authorize(token string, userID int64) {
	api.auth.On("Authenticate", mock.Anything, token).
		Return(&auth.Claims{UserClaims: auth.UserClaims{ID: userID}}, nil)
}

type response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body response
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, rr.Code, body.Code)
	}
	return rr, body
}

func jsonRequest(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type filePart struct {
	name, mime string
	content    []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *filePart, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="avatar"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.mime)
		pw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
