// Package services contains the server-side business logic: the
// authentication flows, the OTP manager and user management.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/mailer"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"
)

// Mailer delivers HTML mail.
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, html string) error
}

// AuthService implements login, session refresh and logout, and both
// password flows. Every flow validates its input before touching storage.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
	hasher      auth.PasswordHasher
	otps        *OTPManager
	mailer      Mailer
	validator   *validation.Validator
	log         logging.Logger

	now func() time.Time
}

func NewAuthService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	cfg *config.Config,
	hasher auth.PasswordHasher,
	mail Mailer,
	v *validation.Validator,
	log logging.Logger,
) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens: auth.NewTokenIssuer(
			cfg.AccessTokenSecret,
			cfg.RefreshTokenSecret,
			cfg.AccessTokenValidityDuration,
			cfg.RefreshTokenValidityDuration,
		),
		hasher:    hasher,
		otps:      NewOTPManager(db, m, cfg.OTPLength, cfg.OTPValidityDuration),
		mailer:    mail,
		validator: v,
		log:       log.With("module", "auth"),
		now:       time.Now,
	}
}

// Login verifies credentials and starts a session. An unknown email and a
// wrong password give the same answer.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized("Invalid credentials")
		}
		return nil, s.internal(ctx, "login: find user", err)
	}

	if !s.hasher.Verify(req.Password, user.Password) {
		return nil, common.Unauthorized("Invalid credentials")
	}

	claims := claimsOf(user)

	access, err := s.tokens.IssueAccessToken(claims)
	if err != nil {
		return nil, s.internal(ctx, "login: access token", err)
	}
	refresh, err := s.issueRefreshToken(ctx, claims)
	if err != nil {
		return nil, s.internal(ctx, "login: refresh token", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshToken mints a new access token from a stored refresh token. The
// refresh token itself is returned unchanged.
func (s *AuthService) RefreshToken(ctx context.Context, token string) (*dto.TokenPair, error) {
	if token == "" {
		return nil, common.Unauthorized("Token is required")
	}

	repo := s.repomanager.RefreshTokens(s.db)

	stored, err := repo.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Validation("Invalid token")
		}
		return nil, s.internal(ctx, "refresh: find token", err)
	}

	if stored.IsExpired(s.now()) {
		return nil, s.revoke(ctx, token, common.Validation("Invalid token"))
	}

	claims, err := s.tokens.VerifyRefreshToken(token)
	if err != nil {
		return nil, s.revoke(ctx, token, common.Validation("Token expired"))
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserClaims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.revoke(ctx, token, common.Validation("Invalid token"))
		}
		return nil, s.internal(ctx, "refresh: find user", err)
	}

	access, err := s.tokens.IssueAccessToken(claimsOf(user))
	if err != nil {
		return nil, s.internal(ctx, "refresh: access token", err)
	}

	return &dto.TokenPair{AccessToken: access, RefreshToken: token}, nil
}

// Logout deletes the stored refresh token. Unknown tokens are accepted.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return common.Unauthorized("Refresh token is required")
	}

	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, token); err != nil {
		return s.internal(ctx, "logout: delete token", err)
	}
	return nil
}

// ChangePassword replaces the password of userID after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if req.OldPassword == req.NewPassword {
		return common.Validation("password and old password should be different")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound("User not found")
		}
		return s.internal(ctx, "change password: find user", err)
	}

	if !s.hasher.Verify(req.OldPassword, user.Password) {
		return common.Unauthorized("Invalid credential")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return s.internal(ctx, "change password: hash", err)
	}

	ok, err := repo.Update(ctx, userID, &models.UserPatch{Password: &hash})
	if err != nil {
		return s.internal(ctx, "change password: update", err)
	}
	if !ok {
		return common.NotFound("User not found")
	}

	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// ForgotPassword mails a reset code when the email belongs to a user. The
// caller sees the same success either way.
func (s *AuthService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return s.internal(ctx, "forgot password: find user", err)
	}

	code, err := s.otps.Issue(ctx, user.ID)
	if err != nil {
		return s.internal(ctx, "forgot password: issue otp", err)
	}

	body, err := mailer.RenderOTP(user.Name, code, s.otps.TTL())
	if err != nil {
		return s.internal(ctx, "forgot password: render mail", err)
	}

	if err := s.mailer.SendHTML(ctx, user.Email, mailer.OTPSubject, body); err != nil {
		return s.internal(ctx, "forgot password: send mail", err)
	}

	s.log.Info(ctx, "otp sent", "user_id", user.ID)
	return nil
}

// ForgotPasswordChange sets a new password using a mailed code and ends
// every session of the user.
func (s *AuthService) ForgotPasswordChange(ctx context.Context, req dto.ForgotPasswordChangeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	userID, err := s.otps.Consume(ctx, req.Email, req.Otp)
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return common.Validation("Invalid token")
	case errors.Is(err, common.ErrTokenExpired):
		return common.Validation("Token expired")
	case err != nil:
		return s.internal(ctx, "reset password: consume otp", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return s.internal(ctx, "reset password: hash", err)
	}

	var updated bool
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repomanager.Users(tx).Update(ctx, userID, &models.UserPatch{Password: &hash})
		if err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if !ok {
			return nil
		}
		updated = true
		if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.internal(ctx, "reset password", err)
	}
	if !updated {
		return common.NotFound("User not found")
	}

	s.log.Info(ctx, "password reset", "user_id", userID)
	return nil
}

// Authenticate checks a bearer access token and returns its claims.
func (s *AuthService) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.Unauthorized("Token is required")
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, common.Forbidden("Invalid access token")
	}
	return claims, nil
}

// --- helpers below ---

func (s *AuthService) issueRefreshToken(ctx context.Context, claims auth.UserClaims) (string, error) {
	token, expiresAt, err := s.tokens.IssueRefreshToken(claims)
	if err != nil {
		return "", err
	}
	if err := s.repomanager.RefreshTokens(s.db).Create(ctx, claims.ID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// revoke deletes token and returns reply, or an internal error when the
// delete itself fails.
func (s *AuthService) revoke(ctx context.Context, token string, reply error) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, token); err != nil {
		return s.internal(ctx, "refresh: delete token", err)
	}
	return reply
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return common.Internal(fmt.Errorf("%s: %w", op, err))
}

func claimsOf(u *models.User) auth.UserClaims {
	c := auth.UserClaims{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Status: int16(u.Status),
	}
	if u.Dob != nil {
		d := u.Dob.Format(models.DateLayout)
		c.Dob = &d
	}
	return c
}
