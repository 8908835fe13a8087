package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/filex"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/storage"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"
)

const emailTakenMessage = "email already exist"

// UserService manages user profiles and their avatars. Ids leave the
// service encrypted and come back encrypted.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	ids         *cryptox.IDCipher
	avatars     storage.AvatarStore
	validator   *validation.Validator
	log         logging.Logger
	listLimit   int
}

func NewUserService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	cfg *config.Config,
	hasher auth.PasswordHasher,
	ids *cryptox.IDCipher,
	avatars storage.AvatarStore,
	v *validation.Validator,
	log logging.Logger,
) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		ids:         ids,
		avatars:     avatars,
		validator:   v,
		log:         log.With("module", "users"),
		listLimit:   cfg.UserListLimit,
	}
}

// List returns the first page of users.
func (s *UserService) List(ctx context.Context) ([]*dto.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx, s.listLimit)
	if err != nil {
		return nil, s.internal(ctx, "list users", err)
	}
	if len(users) == 0 {
		return nil, common.NotFound("User not found")
	}

	out := make([]*dto.User, 0, len(users))
	for _, u := range users {
		v, err := s.view(u)
		if err != nil {
			return nil, s.internal(ctx, "list users: encrypt id", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, encID string) (*dto.User, error) {
	id, err := s.ids.Decrypt(encID)
	if err != nil {
		return nil, common.NotFound("User not found")
	}

	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User not found")
		}
		return nil, s.internal(ctx, "get user", err)
	}

	v, err := s.view(u)
	if err != nil {
		return nil, s.internal(ctx, "get user: encrypt id", err)
	}
	return v, nil
}

// Create registers a user. upload, when not nil, is an avatar already
// written to the temp directory; it never outlives a failed call.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, upload *models.Upload) (*dto.User, error) {
	defer s.dropTemp(ctx, upload)

	req.Avatar = dto.AvatarOf(upload)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	taken, err := repo.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return nil, s.internal(ctx, "create user: check email", err)
	}
	if taken {
		return nil, common.Validation(emailTakenMessage)
	}

	user := &models.User{
		Name:   req.Name,
		Email:  req.Email,
		Status: models.UserStatusActive,
	}
	if req.Status != "" {
		user.Status = parseStatus(req.Status)
	}
	if req.Dob != "" {
		dob, _ := time.Parse(models.DateLayout, req.Dob)
		user.Dob = &dob
	}

	user.Password, err = s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal(ctx, "create user: hash", err)
	}

	stored, err := s.storeAvatar(ctx, upload)
	if err != nil {
		return nil, s.internal(ctx, "create user: store avatar", err)
	}
	if stored != "" {
		user.Avatar = &stored
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		s.dropStored(ctx, stored)
		if dbx.IsUniqueViolation(err) {
			return nil, common.Validation(emailTakenMessage)
		}
		return nil, s.internal(ctx, "create user", err)
	}

	v, err := s.view(created)
	if err != nil {
		return nil, s.internal(ctx, "create user: encrypt id", err)
	}

	s.log.Info(ctx, "user created", "user_id", created.ID)
	return v, nil
}

// Update changes the given profile fields and, with an upload, replaces the
// avatar.
func (s *UserService) Update(ctx context.Context, encID string, req dto.UpdateUserRequest, upload *models.Upload) error {
	defer s.dropTemp(ctx, upload)

	req.Avatar = dto.AvatarOf(upload)
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	id, err := s.ids.Decrypt(encID)
	if err != nil {
		return common.NotFound("User not updated")
	}

	repo := s.repomanager.Users(s.db)

	if req.Email != "" {
		taken, err := repo.EmailTaken(ctx, req.Email, id)
		if err != nil {
			return s.internal(ctx, "update user: check email", err)
		}
		if taken {
			return common.Validation(emailTakenMessage)
		}
	}

	current, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound("User not updated")
		}
		return s.internal(ctx, "update user: find", err)
	}

	patch := &models.UserPatch{}
	if req.Name != "" {
		patch.Name = &req.Name
	}
	if req.Email != "" {
		patch.Email = &req.Email
	}
	if req.Status != "" {
		st := parseStatus(req.Status)
		patch.Status = &st
	}
	if req.Dob != "" {
		dob, _ := time.Parse(models.DateLayout, req.Dob)
		patch.Dob = &dob
	}

	stored, err := s.storeAvatar(ctx, upload)
	if err != nil {
		return s.internal(ctx, "update user: store avatar", err)
	}
	if stored != "" {
		patch.Avatar = &stored
	}

	ok, err := repo.Update(ctx, id, patch)
	if err != nil {
		s.dropStored(ctx, stored)
		if dbx.IsUniqueViolation(err) {
			return common.Validation(emailTakenMessage)
		}
		return s.internal(ctx, "update user", err)
	}
	if !ok {
		s.dropStored(ctx, stored)
		return common.NotFound("User not updated")
	}

	if stored != "" && current.Avatar != nil {
		s.dropStored(ctx, *current.Avatar)
	}

	s.log.Info(ctx, "user updated", "user_id", id)
	return nil
}

// Delete removes a user together with its sessions and reset codes, then
// its avatar.
func (s *UserService) Delete(ctx context.Context, encID string) error {
	id, err := s.ids.Decrypt(encID)
	if err != nil {
		return common.NotFound("User not deleted")
	}

	var avatar *string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		u, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		avatar = u.Avatar

		if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}
		if err := s.repomanager.Otps(tx).DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("error deleting otps: %w", err)
		}
		ok, err := users.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		if !ok {
			return common.ErrorNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound("User not deleted")
		}
		return s.internal(ctx, "delete user", err)
	}

	if avatar != nil {
		s.dropStored(ctx, *avatar)
	}

	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// --- helpers below ---

func (s *UserService) view(u *models.User) (*dto.User, error) {
	encID, err := s.ids.Encrypt(u.ID)
	if err != nil {
		return nil, err
	}
	v := &dto.User{
		ID:     encID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Status: int16(u.Status),
	}
	if u.Dob != nil {
		d := u.Dob.Format(models.DateLayout)
		v.Dob = &d
	}
	return v, nil
}

func (s *UserService) storeAvatar(ctx context.Context, upload *models.Upload) (string, error) {
	if upload == nil {
		return "", nil
	}
	return s.avatars.Save(ctx, upload.TempPath, upload.FileName)
}

// dropTemp removes the temp file of upload, if it is still there.
func (s *UserService) dropTemp(ctx context.Context, upload *models.Upload) {
	if upload == nil {
		return
	}
	if err := filex.RemoveIfExists(upload.TempPath); err != nil {
		s.log.Warn(ctx, "remove temp upload", "path", upload.TempPath, "error", err)
	}
}

func (s *UserService) dropStored(ctx context.Context, stored string) {
	if stored == "" {
		return
	}
	if err := s.avatars.Remove(ctx, stored); err != nil {
		s.log.Warn(ctx, "remove avatar", "path", stored, "error", err)
	}
}

func (s *UserService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return common.Internal(fmt.Errorf("%s: %w", op, err))
}

func parseStatus(s dto.Status) models.UserStatus {
	n, _ := strconv.Atoi(string(s))
	return models.UserStatus(n)
}
