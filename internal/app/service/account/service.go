// Package account is the narrow adapter over the persisted account
// table. The webhook pipeline reads accounts here and writes them back
// exclusively through field-level partial updates.
package account

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/memberhub/internal/models"
)

// ErrAccountNotFound identifies lookups for accounts this service does
// not know. The message is part of the webhook response contract.
var ErrAccountNotFound = errors.New("Account not found")

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Get loads one account by its provider app_user_id.
func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	var acct models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}
	return &acct, nil
}

// Update applies a partial column update to one account. It never
// replaces the full record, so concurrent writers of unrelated columns
// are not clobbered. The single UPDATE statement is atomic per account.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update account %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return nil
}
