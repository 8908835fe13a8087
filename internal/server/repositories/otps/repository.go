// Package otps stores the one-time codes of the password-reset flow.
package otps

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	DeleteByUser(ctx context.Context, userID int64) error
	// FindByEmailAndCode returns the code row owned by the user with email.
	// It returns common.ErrorNotFound when there is none.
	FindByEmailAndCode(ctx context.Context, email, code string) (*models.Otp, error)
	Delete(ctx context.Context, id int64) error
}
