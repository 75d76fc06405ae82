// internal/service/partition_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/repository"
	"clinic_tenant_core/internal/tenantctx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartitionService はパーティションのライフサイクルを管理します。
// マイグレーションはパーティション単位で適用・記録され、一部の失敗が
// 他パーティションへ波及することはありません。
type PartitionService interface {
	// Provision は新しいパーティションを割り当てます。同一テナントへの
	// 再呼び出しは既存のパーティションを返します（冪等）。
	Provision(ctx context.Context, tenantID, partitionID uuid.UUID) (*model.Partition, error)

	// ApplyMigration は登録済みステップを全対象パーティションへ適用し、
	// パーティション別の結果を返します。一部が失敗した場合は結果と併せて
	// ErrMigrationPartialFailure を返します（成功分はロールバックしません）。
	ApplyMigration(ctx context.Context, migrationID int64) (map[uuid.UUID]model.MigrationResult, error)

	// Decommission はパーティションを新規コンテキストから到達不能にします。
	// 実際の後片付けは猶予期間経過後の ReapRetired が行います。
	Decommission(ctx context.Context, partitionID uuid.UUID) error

	// ReapRetired は猶予期間を過ぎ、かつ束縛中コンテキストがゼロの
	// Retiring パーティションをアーカイブします。
	ReapRetired(ctx context.Context) ([]uuid.UUID, error)

	// Steps は登録済みマイグレーションステップを返します（運用CLI向け）
	Steps() []MigrationStep
}

type partitionService struct {
	db            *gorm.DB
	partitionRepo repository.PartitionRepository
	migrationRepo repository.MigrationRepository
	tenantRepo    repository.TenantRepository
	tracker       *tenantctx.Tracker
	cfg           *config.Config
	steps         []MigrationStep
	maxStepID     int64
	locks         *keyedLocks
}

func NewPartitionService(
	db *gorm.DB,
	partitionRepo repository.PartitionRepository,
	migrationRepo repository.MigrationRepository,
	tenantRepo repository.TenantRepository,
	tracker *tenantctx.Tracker,
	cfg *config.Config,
	steps []MigrationStep,
) PartitionService {
	sorted, maxID := sortSteps(steps)
	return &partitionService{
		db:            db,
		partitionRepo: partitionRepo,
		migrationRepo: migrationRepo,
		tenantRepo:    tenantRepo,
		tracker:       tracker,
		cfg:           cfg,
		steps:         sorted,
		maxStepID:     maxID,
		locks:         newKeyedLocks(),
	}
}

func (s *partitionService) Steps() []MigrationStep {
	return s.steps
}

func (s *partitionService) Provision(ctx context.Context, tenantID, partitionID uuid.UUID) (*model.Partition, error) {
	logger := middleware.GetLogger(ctx)

	unlock := s.locks.Lock("tenant:" + tenantID.String())
	defer unlock()

	// 冪等性: 既存パーティションがあればそれを返す
	existing, err := s.partitionRepo.FindByTenant(ctx, s.db, tenantID)
	if err == nil {
		logger.Debug("Partition already provisioned for tenant",
			"tenant_id", tenantID.String(),
			"partition_id", existing.PartitionID.String(),
		)
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	partition := &model.Partition{
		PartitionID:   partitionID,
		TenantID:      tenantID,
		SchemaName:    model.NewSchemaName(partitionID),
		Status:        model.PartitionReady,
		SchemaVersion: s.maxStepID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.partitionRepo.Create(ctx, tx, partition); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// 並行プロビジョニングに負けた場合も冪等に既存を返す
				return nil
			}
			return err
		}
		// 新規パーティションは現行スキーマのスナップショットで一括構築する。
		// マイグレーション履歴の逐次再生はテナント数と履歴の増加に対して
		// 時間が無制限に伸びるため行わない。
		if err := s.bootstrapPartition(ctx, tx, partition); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to provision partition",
			"error", err,
			"tenant_id", tenantID.String(),
		)
		return nil, err
	}

	// 競合で作成をスキップした場合に備えて読み直す
	created, err := s.partitionRepo.FindByTenant(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	logger.Info("Partition provisioned",
		"tenant_id", tenantID.String(),
		"partition_id", created.PartitionID.String(),
		"schema", created.SchemaName,
	)
	return created, nil
}

// bootstrapPartition は名前空間内の業務テーブルを現行スキーマで作成し、
// 登録済みの全マイグレーションを適用済みとして台帳に記録します。
func (s *partitionService) bootstrapPartition(ctx context.Context, tx *gorm.DB, p *model.Partition) error {
	if err := tx.Table(PartitionTable(p.SchemaName, model.ClinicalRecordBaseTable)).
		AutoMigrate(&model.ClinicalRecord{}); err != nil {
		return fmt.Errorf("bootstrapPartition: %w", err)
	}

	now := time.Now()
	for _, step := range s.steps {
		rec := &model.MigrationRecord{
			MigrationID: step.ID,
			Description: step.Description,
			Status:      model.MigrationApplied,
		}
		if err := s.migrationRepo.UpsertRecord(ctx, tx, rec); err != nil {
			return err
		}
		pm := &model.PartitionMigration{
			MigrationID: step.ID,
			PartitionID: p.PartitionID,
			Status:      model.MigrationApplied,
			AppliedAt:   &now,
		}
		if err := s.migrationRepo.SetPartitionStatus(ctx, tx, pm); err != nil {
			return err
		}
	}
	return nil
}

func (s *partitionService) findStep(migrationID int64) (MigrationStep, bool) {
	for _, step := range s.steps {
		if step.ID == migrationID {
			return step, true
		}
	}
	return MigrationStep{}, false
}

func (s *partitionService) ApplyMigration(ctx context.Context, migrationID int64) (map[uuid.UUID]model.MigrationResult, error) {
	logger := middleware.GetLogger(ctx)

	step, ok := s.findStep(migrationID)
	if !ok {
		return nil, model.NewAppError("UNKNOWN_MIGRATION",
			"指定されたマイグレーションIDは登録されていません。", "migration_id", model.ErrNotFound)
	}

	if err := s.migrationRepo.UpsertRecord(ctx, s.db, &model.MigrationRecord{
		MigrationID: step.ID,
		Description: step.Description,
		Status:      model.MigrationPending,
	}); err != nil {
		return nil, err
	}

	tenants, err := s.tenantRepo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	tenantStatus := make(map[uuid.UUID]model.TenantStatus, len(tenants))
	for _, t := range tenants {
		tenantStatus[t.TenantID] = t.Status
	}

	partitions, err := s.partitionRepo.List(ctx, s.db, model.PartitionReady, model.PartitionMigrating)
	if err != nil {
		return nil, err
	}

	results := make(map[uuid.UUID]model.MigrationResult, len(partitions))
	failed := 0
	for _, p := range partitions {
		switch tenantStatus[p.TenantID] {
		case model.StatusActive:
			// 適用対象
		case model.StatusSuspended:
			results[p.PartitionID] = model.MigrationResult{
				PartitionID: p.PartitionID,
				Outcome:     model.OutcomeSkippedSuspended,
			}
			continue
		default:
			// Provisioning/Decommissioned のパーティションは対象外
			continue
		}

		res := s.applyToPartition(ctx, step, p)
		results[p.PartitionID] = res
		if res.Outcome == model.OutcomeFailed {
			failed++
		}
	}

	// 台帳の集約ステータスを更新。一部失敗なら Failed として残し、
	// 運用者が失敗サブセットだけ再適用できるようにする。
	aggregate := model.MigrationApplied
	if failed > 0 {
		aggregate = model.MigrationFailed
	}
	if err := s.migrationRepo.UpsertRecord(ctx, s.db, &model.MigrationRecord{
		MigrationID: step.ID,
		Description: step.Description,
		Status:      aggregate,
	}); err != nil {
		return results, err
	}

	if failed > 0 {
		logger.Warn("Migration finished with failures",
			"migration_id", step.ID,
			"failed_partitions", failed,
		)
		return results, fmt.Errorf("%w: %d partition(s) failed", model.ErrMigrationPartialFailure, failed)
	}

	logger.Info("Migration applied to all partitions",
		"migration_id", step.ID,
		"partitions", len(results),
	)
	return results, nil
}

// applyToPartition は1パーティションへの適用を行います。適用中は
// パーティションを Migrating にし、新規コンテキストの束縛を止めます。
func (s *partitionService) applyToPartition(ctx context.Context, step MigrationStep, p *model.Partition) model.MigrationResult {
	logger := middleware.GetLogger(ctx)

	unlock := s.locks.Lock("partition:" + p.PartitionID.String())
	defer unlock()

	// 適用済みならスキップ（失敗サブセットのみの再試行を可能にする）
	if pm, err := s.migrationRepo.FindPartitionStatus(ctx, s.db, step.ID, p.PartitionID); err == nil &&
		pm.Status == model.MigrationApplied {
		return model.MigrationResult{PartitionID: p.PartitionID, Outcome: model.OutcomeAlreadyApplied}
	}

	if err := s.partitionRepo.UpdateStatus(ctx, s.db, p.PartitionID, model.PartitionMigrating); err != nil {
		return model.MigrationResult{PartitionID: p.PartitionID, Outcome: model.OutcomeFailed, Error: err.Error()}
	}
	// どの経路で抜けても Ready に戻す。失敗時はステップのトランザクションが
	// ロールバック済みなので、スキーマは適用前の状態に保たれている。
	defer func() {
		if err := s.partitionRepo.UpdateStatus(ctx, s.db, p.PartitionID, model.PartitionReady); err != nil {
			logger.Error("Failed to restore partition status",
				"error", err,
				"partition_id", p.PartitionID.String(),
			)
		}
	}()

	applyErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return step.Apply(tx, p.SchemaName)
	})

	if applyErr != nil {
		logger.Warn("Migration failed on partition",
			"migration_id", step.ID,
			"partition_id", p.PartitionID.String(),
			"error", applyErr,
		)
		_ = s.migrationRepo.SetPartitionStatus(ctx, s.db, &model.PartitionMigration{
			MigrationID: step.ID,
			PartitionID: p.PartitionID,
			Status:      model.MigrationFailed,
			Error:       applyErr.Error(),
		})
		return model.MigrationResult{
			PartitionID: p.PartitionID,
			Outcome:     model.OutcomeFailed,
			Error:       applyErr.Error(),
		}
	}

	if err := s.migrationRepo.SetPartitionStatus(ctx, s.db, &model.PartitionMigration{
		MigrationID: step.ID,
		PartitionID: p.PartitionID,
		Status:      model.MigrationApplied,
	}); err != nil {
		return model.MigrationResult{PartitionID: p.PartitionID, Outcome: model.OutcomeFailed, Error: err.Error()}
	}
	if err := s.partitionRepo.Update(ctx, s.db, p.PartitionID, map[string]interface{}{
		"schema_version": step.ID,
	}); err != nil {
		return model.MigrationResult{PartitionID: p.PartitionID, Outcome: model.OutcomeFailed, Error: err.Error()}
	}

	return model.MigrationResult{PartitionID: p.PartitionID, Outcome: model.OutcomeApplied}
}

func (s *partitionService) Decommission(ctx context.Context, partitionID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	unlock := s.locks.Lock("partition:" + partitionID.String())
	defer unlock()

	now := time.Now()
	if err := s.partitionRepo.Update(ctx, s.db, partitionID, map[string]interface{}{
		"status":     model.PartitionRetiring,
		"retired_at": &now,
	}); err != nil {
		return err
	}

	logger.Info("Partition marked retiring",
		"partition_id", partitionID.String(),
		"grace_period", s.cfg.GracePeriod().String(),
	)
	return nil
}

func (s *partitionService) ReapRetired(ctx context.Context) ([]uuid.UUID, error) {
	logger := middleware.GetLogger(ctx)

	retiring, err := s.partitionRepo.List(ctx, s.db, model.PartitionRetiring)
	if err != nil {
		return nil, err
	}

	var reaped []uuid.UUID
	now := time.Now()
	for _, p := range retiring {
		if p.RetiredAt == nil || now.Sub(*p.RetiredAt) < s.cfg.GracePeriod() {
			continue
		}
		if s.tracker.ActiveCount(p.PartitionID) > 0 {
			logger.Debug("Skipping reap: contexts still bound",
				"partition_id", p.PartitionID.String(),
			)
			continue
		}
		// 保持ポリシーに従いアーカイブ。物理削除は行わず、データは
		// 名前空間付きテーブルに残る（Archived パーティションには
		// 二度とコンテキストが束縛されないため到達不能）。
		if err := s.partitionRepo.UpdateStatus(ctx, s.db, p.PartitionID, model.PartitionArchived); err != nil {
			logger.Error("Failed to archive partition",
				"error", err,
				"partition_id", p.PartitionID.String(),
			)
			continue
		}
		reaped = append(reaped, p.PartitionID)
		logger.Info("Partition archived", "partition_id", p.PartitionID.String())
	}
	return reaped, nil
}
