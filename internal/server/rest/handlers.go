// Package rest is the HTTP surface of the account service: a chi router
// that decodes requests, calls the services and writes the
// {code, message, data} envelope.
package rest

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// AuthService is the part of services.AuthService the handlers use.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenPair, error)
	RefreshToken(ctx context.Context, token string) (*dto.TokenPair, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID int64, req dto.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error
	ForgotPasswordChange(ctx context.Context, req dto.ForgotPasswordChangeRequest) error
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	List(ctx context.Context) ([]*dto.User, error)
	Get(ctx context.Context, encID string) (*dto.User, error)
	Create(ctx context.Context, req dto.CreateUserRequest, upload *models.Upload) (*dto.User, error)
	Update(ctx context.Context, encID string, req dto.UpdateUserRequest, upload *models.Upload) error
	Delete(ctx context.Context, encID string) error
}

type Handlers struct {
	auth    AuthService
	users   UserService
	uploads *Uploader
	log     logging.Logger
}

func NewHandlers(a AuthService, u UserService, uploads *Uploader, log logging.Logger) *Handlers {
	return &Handlers{auth: a, users: u, uploads: uploads, log: log.With("module", "http")}
}
