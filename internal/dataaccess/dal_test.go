package dataaccess_test

import (
	"context"
	"testing"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/dataaccess"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/repository"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/tenantctx"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// boundContext は実パーティションを1つプロビジョニングし、束縛済みの
// RequestContext を返します。
func boundContext(t *testing.T, db *gorm.DB, binder *tenantctx.Binder, tracker *tenantctx.Tracker) tenantctx.RequestContext {
	t.Helper()
	ctx := context.Background()

	tenant := &model.Tenant{
		TenantID:    uuid.New(),
		DisplayName: "テスト病院",
		PartitionID: uuid.New(),
		Status:      model.StatusActive,
	}
	require.NoError(t, db.Create(tenant).Error)

	partitions := service.NewPartitionService(
		db,
		repository.NewGormPartitionRepository(),
		repository.NewGormMigrationRepository(),
		repository.NewGormTenantRepository(),
		tracker,
		&config.Config{},
		service.DefaultMigrationSteps(),
	)
	partition, err := partitions.Provision(ctx, tenant.TenantID, tenant.PartitionID)
	require.NoError(t, err)

	rc, err := binder.Bind(model.ResolvedTenant{Tenant: tenant, Partition: partition})
	require.NoError(t, err)
	return rc
}

func setupDAL(t *testing.T) (dataaccess.RecordStore, tenantctx.RequestContext, tenantctx.RequestContext) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrateEngine(db))

	tracker := tenantctx.NewTracker()
	binder := tenantctx.NewBinder(tracker)

	rcA := boundContext(t, db, binder, tracker)
	rcB := boundContext(t, db, binder, tracker)
	return dataaccess.NewGormRecordStore(db), rcA, rcB
}

// 病院Aと病院Bが同じ record_id で記録を持っても、互いのデータは見えない。
// 分離はテーブル名前空間で成立しており、WHERE句のテナント条件には依存しない。
func TestRecordStore_PartitionIsolation(t *testing.T) {
	ctx := context.Background()
	store, rcA, rcB := setupDAL(t)

	recordID := uuid.New()
	require.NoError(t, store.Insert(ctx, rcA, &model.ClinicalRecord{
		RecordID:    recordID,
		PatientName: "佐藤 花子",
		Note:        "初診。経過観察。",
	}))
	require.NoError(t, store.Insert(ctx, rcB, &model.ClinicalRecord{
		RecordID:    recordID, // 同一IDを意図的に使う
		PatientName: "鈴木 一郎",
		Note:        "定期検診。",
	}))

	gotA, err := store.Get(ctx, rcA, recordID)
	require.NoError(t, err)
	assert.Equal(t, "佐藤 花子", gotA.PatientName)

	gotB, err := store.Get(ctx, rcB, recordID)
	require.NoError(t, err)
	assert.Equal(t, "鈴木 一郎", gotB.PatientName)

	// 片方の更新はもう片方に波及しない
	require.NoError(t, store.Update(ctx, rcA, recordID, map[string]interface{}{"note": "再診予約済み。"}))
	gotB, err = store.Get(ctx, rcB, recordID)
	require.NoError(t, err)
	assert.Equal(t, "定期検診。", gotB.Note)

	// 片方の削除ももう片方に波及しない
	require.NoError(t, store.Delete(ctx, rcA, recordID))
	_, err = store.Get(ctx, rcA, recordID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.Get(ctx, rcB, recordID)
	assert.NoError(t, err)
}

func TestRecordStore_List_ScopedToPartition(t *testing.T) {
	ctx := context.Background()
	store, rcA, rcB := setupDAL(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Insert(ctx, rcA, &model.ClinicalRecord{
			RecordID:    uuid.New(),
			PatientName: "患者A",
		}))
	}
	require.NoError(t, store.Insert(ctx, rcB, &model.ClinicalRecord{
		RecordID:    uuid.New(),
		PatientName: "患者B",
	}))

	listA, err := store.List(ctx, rcA)
	require.NoError(t, err)
	assert.Len(t, listA, 3)

	listB, err := store.List(ctx, rcB)
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, "患者B", listB[0].PatientName)
}

// 束縛の無いコンテキストでの呼び出しは全操作で拒否される。
// 既定パーティションへのフォールバックは存在しない。
func TestRecordStore_UnboundContext(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupDAL(t)
	var unbound tenantctx.RequestContext

	err := store.Insert(ctx, unbound, &model.ClinicalRecord{RecordID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrUnboundContextAccess)

	_, err = store.Get(ctx, unbound, uuid.New())
	assert.ErrorIs(t, err, model.ErrUnboundContextAccess)

	_, err = store.List(ctx, unbound)
	assert.ErrorIs(t, err, model.ErrUnboundContextAccess)

	err = store.Update(ctx, unbound, uuid.New(), map[string]interface{}{"note": "x"})
	assert.ErrorIs(t, err, model.ErrUnboundContextAccess)

	err = store.Delete(ctx, unbound, uuid.New())
	assert.ErrorIs(t, err, model.ErrUnboundContextAccess)
}
