package service_test

import (
	"context"
	"fmt"
	"testing"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/repository"
	repomocks "clinic_tenant_core/internal/repository/mocks"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/tenantctx"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupEngineDB は管理テーブル込みのインメモリDBを用意します。
// インメモリSQLiteは接続ごとに別DBになるため、接続数を1に固定します。
func setupEngineDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.AutoMigrateEngine(db))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, status model.TenantStatus) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		TenantID:    uuid.New(),
		DisplayName: "テスト病院",
		PartitionID: uuid.New(),
		Status:      status,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func newPartitionService(db *gorm.DB, tracker *tenantctx.Tracker, steps []service.MigrationStep) service.PartitionService {
	cfg := &config.Config{}
	return service.NewPartitionService(
		db,
		repository.NewGormPartitionRepository(),
		repository.NewGormMigrationRepository(),
		repository.NewGormTenantRepository(),
		tracker,
		cfg,
		steps,
	)
}

func TestPartitionService_Provision(t *testing.T) {
	ctx := context.Background()
	db := setupEngineDB(t)
	svc := newPartitionService(db, tenantctx.NewTracker(), service.DefaultMigrationSteps())

	tenant := seedTenant(t, db, model.StatusProvisioning)

	p, err := svc.Provision(ctx, tenant.TenantID, tenant.PartitionID)
	require.NoError(t, err)
	assert.Equal(t, tenant.PartitionID, p.PartitionID)
	assert.Equal(t, model.PartitionReady, p.Status)
	assert.Equal(t, model.NewSchemaName(tenant.PartitionID), p.SchemaName)
	assert.Equal(t, int64(1), p.SchemaVersion)

	// 名前空間付きテーブルが現行スナップショットで構築されている
	table := service.PartitionTable(p.SchemaName, model.ClinicalRecordBaseTable)
	assert.True(t, db.Migrator().HasTable(table))

	// 台帳には全ステップが適用済みで記録される
	var pm model.PartitionMigration
	require.NoError(t, db.Where("migration_id = ? AND partition_id = ?", 1, p.PartitionID).First(&pm).Error)
	assert.Equal(t, model.MigrationApplied, pm.Status)
	assert.NotNil(t, pm.AppliedAt)

	t.Run("再実行は既存パーティションを返す（冪等）", func(t *testing.T) {
		again, err := svc.Provision(ctx, tenant.TenantID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, p.PartitionID, again.PartitionID)
		assert.Equal(t, p.SchemaName, again.SchemaName)

		var count int64
		require.NoError(t, db.Model(&model.Partition{}).Where("tenant_id = ?", tenant.TenantID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("別テナントは別名前空間", func(t *testing.T) {
		other := seedTenant(t, db, model.StatusProvisioning)
		p2, err := svc.Provision(ctx, other.TenantID, other.PartitionID)
		require.NoError(t, err)
		assert.NotEqual(t, p.SchemaName, p2.SchemaName)
	})
}

// 既存判定の NotFound がラップされて返ってきても新規作成へ進む
func TestPartitionService_Provision_WrappedNotFound(t *testing.T) {
	ctx := context.Background()
	db := setupEngineDB(t)
	tenant := seedTenant(t, db, model.StatusProvisioning)

	partitionRepo := new(repomocks.PartitionRepository)
	svc := service.NewPartitionService(
		db,
		partitionRepo,
		repository.NewGormMigrationRepository(),
		repository.NewGormTenantRepository(),
		tenantctx.NewTracker(),
		&config.Config{},
		service.DefaultMigrationSteps(),
	)

	partition := &model.Partition{
		PartitionID: tenant.PartitionID,
		TenantID:    tenant.TenantID,
		SchemaName:  model.NewSchemaName(tenant.PartitionID),
		Status:      model.PartitionReady,
	}
	partitionRepo.On("FindByTenant", ctx, mock.AnythingOfType("*gorm.DB"), tenant.TenantID).
		Return(nil, fmt.Errorf("gormPartitionRepository.FindByTenant: %w", model.ErrNotFound)).Once()
	partitionRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.Partition")).
		Return(nil).Once()
	partitionRepo.On("FindByTenant", ctx, mock.AnythingOfType("*gorm.DB"), tenant.TenantID).
		Return(partition, nil).Once()

	created, err := svc.Provision(ctx, tenant.TenantID, tenant.PartitionID)
	require.NoError(t, err)
	assert.Equal(t, tenant.PartitionID, created.PartitionID)
	partitionRepo.AssertExpectations(t)
}

func TestPartitionService_ApplyMigration_PartialFailure(t *testing.T) {
	ctx := context.Background()
	db := setupEngineDB(t)

	tenantA := seedTenant(t, db, model.StatusActive)
	tenantB := seedTenant(t, db, model.StatusActive)

	provisioner := newPartitionService(db, tenantctx.NewTracker(), service.DefaultMigrationSteps())
	partA, err := provisioner.Provision(ctx, tenantA.TenantID, tenantA.PartitionID)
	require.NoError(t, err)
	partB, err := provisioner.Provision(ctx, tenantB.TenantID, tenantB.PartitionID)
	require.NoError(t, err)

	// ステップ2は特定パーティションでのみ失敗するよう仕込む
	failSchema := partB.SchemaName
	steps := append(service.DefaultMigrationSteps(), service.MigrationStep{
		ID:          2,
		Description: "add allergy column",
		Apply: func(tx *gorm.DB, schema string) error {
			if schema == failSchema {
				return fmt.Errorf("disk full on %s", schema)
			}
			table := service.PartitionTable(schema, model.ClinicalRecordBaseTable)
			return tx.Exec("ALTER TABLE " + table + " ADD COLUMN allergy TEXT").Error
		},
	})
	svc := newPartitionService(db, tenantctx.NewTracker(), steps)

	results, err := svc.ApplyMigration(ctx, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMigrationPartialFailure)

	require.Len(t, results, 2)
	assert.Equal(t, model.OutcomeApplied, results[partA.PartitionID].Outcome)
	assert.Equal(t, model.OutcomeFailed, results[partB.PartitionID].Outcome)
	assert.Contains(t, results[partB.PartitionID].Error, "disk full")

	// 成功側はバージョンが進み、失敗側は進まない
	var a, b model.Partition
	require.NoError(t, db.Where("partition_id = ?", partA.PartitionID).First(&a).Error)
	require.NoError(t, db.Where("partition_id = ?", partB.PartitionID).First(&b).Error)
	assert.Equal(t, int64(2), a.SchemaVersion)
	assert.Equal(t, int64(1), b.SchemaVersion)

	// どちらのパーティションも適用後は Ready に戻る
	assert.Equal(t, model.PartitionReady, a.Status)
	assert.Equal(t, model.PartitionReady, b.Status)

	// 台帳: 失敗は黙って消えず、エラー付きで残る
	var pmB model.PartitionMigration
	require.NoError(t, db.Where("migration_id = ? AND partition_id = ?", 2, partB.PartitionID).First(&pmB).Error)
	assert.Equal(t, model.MigrationFailed, pmB.Status)
	assert.NotEmpty(t, pmB.Error)

	t.Run("再実行は失敗サブセットのみ適用する", func(t *testing.T) {
		failSchema = "" // 以後は失敗しない

		retry, err := svc.ApplyMigration(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeAlreadyApplied, retry[partA.PartitionID].Outcome)
		assert.Equal(t, model.OutcomeApplied, retry[partB.PartitionID].Outcome)

		var rec model.MigrationRecord
		require.NoError(t, db.Where("migration_id = ?", 2).First(&rec).Error)
		assert.Equal(t, model.MigrationApplied, rec.Status)
	})
}

func TestPartitionService_ApplyMigration_SkipsSuspended(t *testing.T) {
	ctx := context.Background()
	db := setupEngineDB(t)

	active := seedTenant(t, db, model.StatusActive)
	suspended := seedTenant(t, db, model.StatusSuspended)

	provisioner := newPartitionService(db, tenantctx.NewTracker(), service.DefaultMigrationSteps())
	partActive, err := provisioner.Provision(ctx, active.TenantID, active.PartitionID)
	require.NoError(t, err)
	partSuspended, err := provisioner.Provision(ctx, suspended.TenantID, suspended.PartitionID)
	require.NoError(t, err)

	steps := append(service.DefaultMigrationSteps(), service.MigrationStep{
		ID:          2,
		Description: "add allergy column",
		Apply: func(tx *gorm.DB, schema string) error {
			table := service.PartitionTable(schema, model.ClinicalRecordBaseTable)
			return tx.Exec("ALTER TABLE " + table + " ADD COLUMN allergy TEXT").Error
		},
	})
	svc := newPartitionService(db, tenantctx.NewTracker(), steps)

	results, err := svc.ApplyMigration(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeApplied, results[partActive.PartitionID].Outcome)
	assert.Equal(t, model.OutcomeSkippedSuspended, results[partSuspended.PartitionID].Outcome)
}

func TestPartitionService_ApplyMigration_UnknownID(t *testing.T) {
	db := setupEngineDB(t)
	svc := newPartitionService(db, tenantctx.NewTracker(), service.DefaultMigrationSteps())

	_, err := svc.ApplyMigration(context.Background(), 999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPartitionService_DecommissionAndReap(t *testing.T) {
	ctx := context.Background()
	db := setupEngineDB(t)
	tracker := tenantctx.NewTracker()
	binder := tenantctx.NewBinder(tracker)
	svc := newPartitionService(db, tracker, service.DefaultMigrationSteps())

	tenant := seedTenant(t, db, model.StatusActive)
	partition, err := svc.Provision(ctx, tenant.TenantID, tenant.PartitionID)
	require.NoError(t, err)

	// まだ Ready のうちにコンテキストを束縛し、リクエスト処理中を再現する
	rc, err := binder.Bind(model.ResolvedTenant{Tenant: tenant, Partition: partition})
	require.NoError(t, err)

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = binder.WithContext(ctx, rc, func(ctx context.Context) error {
			<-holding
			return nil
		})
	}()

	// 束縛数が1になるまで待つ
	require.Eventually(t, func() bool {
		return tracker.ActiveCount(partition.PartitionID) == 1
	}, testWaitTimeout, testWaitTick)

	require.NoError(t, svc.Decommission(ctx, partition.PartitionID))

	var p model.Partition
	require.NoError(t, db.Where("partition_id = ?", partition.PartitionID).First(&p).Error)
	assert.Equal(t, model.PartitionRetiring, p.Status)
	require.NotNil(t, p.RetiredAt)

	// 猶予期間(0秒)は経過しているが、束縛中のコンテキストが残っている間は回収しない
	reaped, err := svc.ReapRetired(ctx)
	require.NoError(t, err)
	assert.Empty(t, reaped)

	close(holding)
	<-done

	reaped, err = svc.ReapRetired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{partition.PartitionID}, reaped)

	require.NoError(t, db.Where("partition_id = ?", partition.PartitionID).First(&p).Error)
	assert.Equal(t, model.PartitionArchived, p.Status)

	// アーカイブは保持であり削除ではない。名前空間テーブルはそのまま残る。
	table := service.PartitionTable(partition.SchemaName, model.ClinicalRecordBaseTable)
	assert.True(t, db.Migrator().HasTable(table))
}
