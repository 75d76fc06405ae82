//go:generate mockery --name IdentityRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityRepository はテナント内のログイン主体のストアです。
// 検索は常に tenant_id で限定され、テナント横断のルックアップ経路はありません。
type IdentityRepository interface {
	Create(ctx context.Context, db *gorm.DB, identity *model.Identity) error
	FindByEmail(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, email string) (*model.Identity, error)
	DeleteByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) error
}

type gormIdentityRepository struct{}

func NewGormIdentityRepository() IdentityRepository {
	return &gormIdentityRepository{}
}

func (r *gormIdentityRepository) Create(ctx context.Context, db *gorm.DB, identity *model.Identity) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(identity)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate identity for tenant",
				"tenant_id", identity.TenantID.String(),
				"email", identity.Email,
			)
			return model.ErrConflict
		}
		logger.Error("Error creating identity in DB",
			"error", result.Error,
			"tenant_id", identity.TenantID.String(),
		)
		return fmt.Errorf("gormIdentityRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormIdentityRepository) FindByEmail(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, email string) (*model.Identity, error) {
	var identity model.Identity
	result := db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		First(&identity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormIdentityRepository.FindByEmail: %w", result.Error)
	}
	return &identity, nil
}

func (r *gormIdentityRepository) DeleteByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&model.Identity{})
	if result.Error != nil {
		logger.Error("Error deleting identities in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return fmt.Errorf("gormIdentityRepository.DeleteByTenant: %w", result.Error)
	}
	return nil
}
