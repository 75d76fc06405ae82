//go:generate mockery --name PartitionRepository --output ./mocks --outpkg mocks --case=underscore
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

// PartitionRepository はパーティション台帳のストアです
type PartitionRepository interface {
	Create(ctx context.Context, db *gorm.DB, p *model.Partition) error
	FindByID(ctx context.Context, db *gorm.DB, partitionID uuid.UUID) (*model.Partition, error)
	FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) (*model.Partition, error)
	List(ctx context.Context, db *gorm.DB, statuses ...model.PartitionStatus) ([]*model.Partition, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, partitionID uuid.UUID, status model.PartitionStatus) error
	Update(ctx context.Context, db *gorm.DB, partitionID uuid.UUID, updates map[string]interface{}) error
}

type gormPartitionRepository struct{}

func NewGormPartitionRepository() PartitionRepository {
	return &gormPartitionRepository{}
}

func (r *gormPartitionRepository) Create(ctx context.Context, db *gorm.DB, p *model.Partition) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(p)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			// tenant_id の一意制約。二重プロビジョニングの競合はここで止まる。
			logger.Warn("Partition already exists for tenant",
				"tenant_id", p.TenantID.String(),
			)
			return model.ErrConflict
		}
		logger.Error("Error creating partition in DB",
			"error", result.Error,
			"tenant_id", p.TenantID.String(),
		)
		return fmt.Errorf("gormPartitionRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormPartitionRepository) FindByID(ctx context.Context, db *gorm.DB, partitionID uuid.UUID) (*model.Partition, error) {
	var p model.Partition
	result := db.WithContext(ctx).Where("partition_id = ?", partitionID).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormPartitionRepository.FindByID: %w", result.Error)
	}
	return &p, nil
}

func (r *gormPartitionRepository) FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) (*model.Partition, error) {
	var p model.Partition
	result := db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormPartitionRepository.FindByTenant: %w", result.Error)
	}
	return &p, nil
}

func (r *gormPartitionRepository) List(ctx context.Context, db *gorm.DB, statuses ...model.PartitionStatus) ([]*model.Partition, error) {
	logger := middleware.GetLogger(ctx)
	var partitions []*model.Partition

	query := db.WithContext(ctx).Order("created_at ASC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	result := query.Find(&partitions)
	if result.Error != nil {
		logger.Error("Error listing partitions in DB", "error", result.Error)
		return nil, fmt.Errorf("gormPartitionRepository.List: %w", result.Error)
	}
	return partitions, nil
}

func (r *gormPartitionRepository) UpdateStatus(ctx context.Context, db *gorm.DB, partitionID uuid.UUID, status model.PartitionStatus) error {
	return r.Update(ctx, db, partitionID, map[string]interface{}{"status": status})
}

func (r *gormPartitionRepository) Update(ctx context.Context, db *gorm.DB, partitionID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Model(&model.Partition{}).
		Where("partition_id = ?", partitionID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating partition in DB",
			"error", result.Error,
			"partition_id", partitionID.String(),
		)
		return fmt.Errorf("gormPartitionRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
