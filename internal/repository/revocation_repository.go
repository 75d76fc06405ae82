//go:generate mockery --name RevocationRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"

	"gorm.io/gorm"
)

// RevocationRepository は失効トークン集合のストアです。
// 検証のたびに照会されるため、失効はプロセス再起動をまたいで有効です。
type RevocationRepository interface {
	Add(ctx context.Context, db *gorm.DB, revoked *model.RevokedCredential) error
	IsRevoked(ctx context.Context, db *gorm.DB, credentialID string) (bool, error)
	PruneExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

type gormRevocationRepository struct{}

func NewGormRevocationRepository() RevocationRepository {
	return &gormRevocationRepository{}
}

func (r *gormRevocationRepository) Add(ctx context.Context, db *gorm.DB, revoked *model.RevokedCredential) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(revoked)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			// 二重失効は冪等に成功扱い
			return nil
		}
		logger.Error("Error adding revoked credential in DB",
			"error", result.Error,
			"credential_id", revoked.CredentialID,
		)
		return fmt.Errorf("gormRevocationRepository.Add: %w", result.Error)
	}
	return nil
}

func (r *gormRevocationRepository) IsRevoked(ctx context.Context, db *gorm.DB, credentialID string) (bool, error) {
	var revoked model.RevokedCredential
	result := db.WithContext(ctx).
		Where("credential_id = ?", credentialID).
		First(&revoked)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("gormRevocationRepository.IsRevoked: %w", result.Error)
	}
	return true, nil
}

// PruneExpired は自然満了したエントリを掃除します
func (r *gormRevocationRepository) PruneExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.RevokedCredential{})
	if result.Error != nil {
		logger.Error("Error pruning revoked credentials in DB", "error", result.Error)
		return 0, fmt.Errorf("gormRevocationRepository.PruneExpired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
