package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
)

// OTPManager issues and consumes password-reset codes. A user has at most
// one live code: issuing replaces any earlier one.
type OTPManager struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	length      int
	ttl         time.Duration

	now func() time.Time
}

func NewOTPManager(db *sql.DB, m repomanager.RepositoryManager, length int, ttl time.Duration) *OTPManager {
	return &OTPManager{
		db:          db,
		repomanager: m,
		length:      length,
		ttl:         ttl,
		now:         time.Now,
	}
}

// TTL is how long an issued code stays valid.
func (o *OTPManager) TTL() time.Duration { return o.ttl }

// Issue generates a new code for userID, dropping its earlier codes in the
// same transaction.
func (o *OTPManager) Issue(ctx context.Context, userID int64) (string, error) {
	code, err := common.GenerateNumericCode(o.length)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	expiresAt := o.now().Add(o.ttl)

	err = dbx.WithTx(ctx, o.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := o.repomanager.Otps(tx)
		if err := repo.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error deleting otps: %w", err)
		}
		if err := repo.Create(ctx, userID, code, expiresAt); err != nil {
			return fmt.Errorf("error creating otp: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Consume checks code for the user owning email and deletes it. It returns
// the user id, common.ErrInvalidToken for an unknown code, or
// common.ErrTokenExpired for a stale one (which is deleted as well).
func (o *OTPManager) Consume(ctx context.Context, email, code string) (int64, error) {
	repo := o.repomanager.Otps(o.db)

	otp, err := repo.FindByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrInvalidToken
		}
		return 0, fmt.Errorf("error searching otp: %w", err)
	}

	if err := repo.Delete(ctx, otp.ID); err != nil {
		return 0, fmt.Errorf("error deleting otp: %w", err)
	}

	if otp.IsExpired(o.now()) {
		return 0, common.ErrTokenExpired
	}

	return otp.UserID, nil
}
