//go:generate mockery --name MigrationRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MigrationRepository はマイグレーション台帳のストアです。
// 台帳は追記専用で、パーティションごとの適用状況を必ず個別に記録します。
type MigrationRepository interface {
	UpsertRecord(ctx context.Context, db *gorm.DB, rec *model.MigrationRecord) error
	FindRecord(ctx context.Context, db *gorm.DB, migrationID int64) (*model.MigrationRecord, error)
	ListRecords(ctx context.Context, db *gorm.DB) ([]*model.MigrationRecord, error)
	SetPartitionStatus(ctx context.Context, db *gorm.DB, pm *model.PartitionMigration) error
	FindPartitionStatus(ctx context.Context, db *gorm.DB, migrationID int64, partitionID uuid.UUID) (*model.PartitionMigration, error)
	ListPartitionStatuses(ctx context.Context, db *gorm.DB, migrationID int64) ([]*model.PartitionMigration, error)
}

type gormMigrationRepository struct{}

func NewGormMigrationRepository() MigrationRepository {
	return &gormMigrationRepository{}
}

func (r *gormMigrationRepository) UpsertRecord(ctx context.Context, db *gorm.DB, rec *model.MigrationRecord) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "migration_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rec)
	if result.Error != nil {
		logger.Error("Error upserting migration record in DB",
			"error", result.Error,
			"migration_id", rec.MigrationID,
		)
		return fmt.Errorf("gormMigrationRepository.UpsertRecord: %w", result.Error)
	}
	return nil
}

func (r *gormMigrationRepository) FindRecord(ctx context.Context, db *gorm.DB, migrationID int64) (*model.MigrationRecord, error) {
	var rec model.MigrationRecord
	result := db.WithContext(ctx).Where("migration_id = ?", migrationID).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormMigrationRepository.FindRecord: %w", result.Error)
	}
	return &rec, nil
}

func (r *gormMigrationRepository) ListRecords(ctx context.Context, db *gorm.DB) ([]*model.MigrationRecord, error) {
	var recs []*model.MigrationRecord
	result := db.WithContext(ctx).Order("migration_id ASC").Find(&recs)
	if result.Error != nil {
		return nil, fmt.Errorf("gormMigrationRepository.ListRecords: %w", result.Error)
	}
	return recs, nil
}

func (r *gormMigrationRepository) SetPartitionStatus(ctx context.Context, db *gorm.DB, pm *model.PartitionMigration) error {
	logger := middleware.GetLogger(ctx)

	if pm.Status == model.MigrationApplied && pm.AppliedAt == nil {
		now := time.Now()
		pm.AppliedAt = &now
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "migration_id"}, {Name: "partition_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "error", "applied_at", "updated_at"}),
	}).Create(pm)
	if result.Error != nil {
		logger.Error("Error recording partition migration status in DB",
			"error", result.Error,
			"migration_id", pm.MigrationID,
			"partition_id", pm.PartitionID.String(),
		)
		return fmt.Errorf("gormMigrationRepository.SetPartitionStatus: %w", result.Error)
	}
	return nil
}

func (r *gormMigrationRepository) FindPartitionStatus(ctx context.Context, db *gorm.DB, migrationID int64, partitionID uuid.UUID) (*model.PartitionMigration, error) {
	var pm model.PartitionMigration
	result := db.WithContext(ctx).
		Where("migration_id = ? AND partition_id = ?", migrationID, partitionID).
		First(&pm)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormMigrationRepository.FindPartitionStatus: %w", result.Error)
	}
	return &pm, nil
}

func (r *gormMigrationRepository) ListPartitionStatuses(ctx context.Context, db *gorm.DB, migrationID int64) ([]*model.PartitionMigration, error) {
	var pms []*model.PartitionMigration
	result := db.WithContext(ctx).
		Where("migration_id = ?", migrationID).
		Order("partition_id ASC").
		Find(&pms)
	if result.Error != nil {
		return nil, fmt.Errorf("gormMigrationRepository.ListPartitionStatuses: %w", result.Error)
	}
	return pms, nil
}
