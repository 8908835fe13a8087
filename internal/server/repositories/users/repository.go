// Package users declares the repository contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts u and sets u.ID from the generated key.
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// List returns at most limit users ordered by id, without password hashes.
	List(ctx context.Context, limit int) ([]*models.User, error)
	// EmailTaken reports whether another user than excludeID owns email.
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	// Update applies patch and reports whether a row was changed.
	Update(ctx context.Context, id int64, patch *models.UserPatch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
