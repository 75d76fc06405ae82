//go:generate mockery --name TenantRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// TenantRepository はテナントレジストリのストアです。
// ドメイン束縛はレジストリ経由でのみ作成・削除され、暗黙に推測されることはありません。
type TenantRepository interface {
	Create(ctx context.Context, db *gorm.DB, tenant *model.Tenant) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) (*model.Tenant, error)
	FindByDomain(ctx context.Context, db *gorm.DB, hostname string) (*model.Tenant, error)
	List(ctx context.Context, db *gorm.DB) ([]*model.Tenant, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, status model.TenantStatus) error
	AddDomain(ctx context.Context, db *gorm.DB, binding *model.DomainBinding) error
	SetPrimaryDomain(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, hostname string) error
	RemoveDomain(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, hostname string) error
	RemoveAllDomains(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) error
	FindDomain(ctx context.Context, db *gorm.DB, hostname string) (*model.DomainBinding, error)
}

type gormTenantRepository struct{}

func NewGormTenantRepository() TenantRepository {
	return &gormTenantRepository{}
}

// isUniqueViolation はPostgresの一意制約違反(23505)かを判定します。
// テスト用のSQLiteではGORM側のエラー文字列で判定します。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite: "UNIQUE constraint failed: ..."
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *gormTenantRepository) Create(ctx context.Context, db *gorm.DB, tenant *model.Tenant) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(tenant)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate key error on create tenant",
				"error", result.Error,
				"display_name", tenant.DisplayName,
			)
			return model.ErrConflict
		}
		logger.Error("Error creating tenant in DB",
			"error", result.Error,
			"display_name", tenant.DisplayName,
		)
		return fmt.Errorf("gormTenantRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormTenantRepository) FindByID(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) (*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)
	var tenant model.Tenant

	result := db.WithContext(ctx).Preload("Domains").Where("tenant_id = ?", tenantID).First(&tenant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding tenant by ID in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return nil, fmt.Errorf("gormTenantRepository.FindByID: %w", result.Error)
	}
	return &tenant, nil
}

// FindByDomain はホスト名の完全一致でテナントを引きます。部分一致や
// ワイルドカードは使いません。
func (r *gormTenantRepository) FindByDomain(ctx context.Context, db *gorm.DB, hostname string) (*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)

	var binding model.DomainBinding
	result := db.WithContext(ctx).Where("hostname = ?", hostname).First(&binding)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("No domain binding for hostname", "hostname", hostname)
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding domain binding in DB",
			"error", result.Error,
			"hostname", hostname,
		)
		return nil, fmt.Errorf("gormTenantRepository.FindByDomain: %w", result.Error)
	}

	return r.FindByID(ctx, db, binding.TenantID)
}

func (r *gormTenantRepository) List(ctx context.Context, db *gorm.DB) ([]*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)
	var tenants []*model.Tenant

	result := db.WithContext(ctx).Preload("Domains").Order("created_at ASC").Find(&tenants)
	if result.Error != nil {
		logger.Error("Error listing tenants in DB", "error", result.Error)
		return nil, fmt.Errorf("gormTenantRepository.List: %w", result.Error)
	}
	return tenants, nil
}

func (r *gormTenantRepository) UpdateStatus(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, status model.TenantStatus) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Model(&model.Tenant{}).
		Where("tenant_id = ?", tenantID).
		Update("status", status)
	if result.Error != nil {
		logger.Error("Error updating tenant status in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"status", string(status),
		)
		return fmt.Errorf("gormTenantRepository.UpdateStatus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormTenantRepository) AddDomain(ctx context.Context, db *gorm.DB, binding *model.DomainBinding) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(binding)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Hostname already bound",
				"hostname", binding.Hostname,
				"tenant_id", binding.TenantID.String(),
			)
			return model.ErrDomainConflict
		}
		logger.Error("Error creating domain binding in DB",
			"error", result.Error,
			"hostname", binding.Hostname,
		)
		return fmt.Errorf("gormTenantRepository.AddDomain: %w", result.Error)
	}
	return nil
}

// SetPrimaryDomain は指定束縛を主ドメインにし、同一テナントの他の束縛を
// すべて降格させます。主ドメインはテナントにつき高々1つ。
func (r *gormTenantRepository) SetPrimaryDomain(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, hostname string) error {
	logger := middleware.GetLogger(ctx)

	if err := db.WithContext(ctx).Model(&model.DomainBinding{}).
		Where("tenant_id = ? AND hostname <> ?", tenantID, hostname).
		Update("is_primary", false).Error; err != nil {
		logger.Error("Error demoting primary domain bindings in DB",
			"error", err,
			"tenant_id", tenantID.String(),
		)
		return fmt.Errorf("gormTenantRepository.SetPrimaryDomain: %w", err)
	}

	result := db.WithContext(ctx).Model(&model.DomainBinding{}).
		Where("tenant_id = ? AND hostname = ?", tenantID, hostname).
		Update("is_primary", true)
	if result.Error != nil {
		logger.Error("Error promoting domain binding in DB",
			"error", result.Error,
			"hostname", hostname,
		)
		return fmt.Errorf("gormTenantRepository.SetPrimaryDomain: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormTenantRepository) RemoveDomain(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, hostname string) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).
		Where("tenant_id = ? AND hostname = ?", tenantID, hostname).
		Delete(&model.DomainBinding{})
	if result.Error != nil {
		logger.Error("Error deleting domain binding in DB",
			"error", result.Error,
			"hostname", hostname,
		)
		return fmt.Errorf("gormTenantRepository.RemoveDomain: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormTenantRepository) RemoveAllDomains(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&model.DomainBinding{})
	if result.Error != nil {
		logger.Error("Error deleting domain bindings in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return fmt.Errorf("gormTenantRepository.RemoveAllDomains: %w", result.Error)
	}
	return nil
}

func (r *gormTenantRepository) FindDomain(ctx context.Context, db *gorm.DB, hostname string) (*model.DomainBinding, error) {
	var binding model.DomainBinding
	result := db.WithContext(ctx).Where("hostname = ?", hostname).First(&binding)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormTenantRepository.FindDomain: %w", result.Error)
	}
	return &binding, nil
}
