// Package dataaccess は業務エンティティがストレージへ到達する唯一の経路です。
//
// すべての操作は tenantctx.RequestContext を必須の第一引数に取ります。
// RequestContext は tenantctx.Binder だけが生成できるため、リクエスト処理
// コードがパーティション識別子を直接指定してこの層を呼ぶ方法は存在しません。
// 束縛の無い（ゼロ値の）コンテキストでの呼び出しは ErrUnboundContextAccess
// で、既定パーティションへのフォールバックは決して行いません。
package dataaccess

import (
	"context"
	"errors"
	"fmt"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/tenantctx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordStore はパーティション内の診療記録へのアクセスを提供します
type RecordStore interface {
	Insert(ctx context.Context, rc tenantctx.RequestContext, rec *model.ClinicalRecord) error
	Get(ctx context.Context, rc tenantctx.RequestContext, recordID uuid.UUID) (*model.ClinicalRecord, error)
	List(ctx context.Context, rc tenantctx.RequestContext) ([]*model.ClinicalRecord, error)
	Update(ctx context.Context, rc tenantctx.RequestContext, recordID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, rc tenantctx.RequestContext, recordID uuid.UUID) error
}

type gormRecordStore struct {
	db *gorm.DB
}

func NewGormRecordStore(db *gorm.DB) RecordStore {
	return &gormRecordStore{db: db}
}

// table は束縛済みコンテキストをパーティション限定のテーブルハンドルへ
// 変換します。これが (operation, context) → パーティション修飾ストレージ呼び出し
// の変換点で、WHERE 句でのテナント絞り込みには一切依存しません。
func (s *gormRecordStore) table(ctx context.Context, rc tenantctx.RequestContext) (*gorm.DB, error) {
	if !rc.Bound() {
		// プログラミングエラー。高重要度でログしリクエストを中断させる。
		middleware.GetLogger(ctx).Error("Data access without bound request context")
		return nil, model.ErrUnboundContextAccess
	}
	name := fmt.Sprintf("%s_%s", rc.Schema(), model.ClinicalRecordBaseTable)
	return s.db.WithContext(ctx).Table(name), nil
}

func (s *gormRecordStore) Insert(ctx context.Context, rc tenantctx.RequestContext, rec *model.ClinicalRecord) error {
	logger := middleware.GetLogger(ctx)

	tbl, err := s.table(ctx, rc)
	if err != nil {
		return err
	}
	result := tbl.Create(rec)
	if result.Error != nil {
		logger.Error("Error inserting clinical record",
			"error", result.Error,
			"record_id", rec.RecordID.String(),
		)
		return fmt.Errorf("gormRecordStore.Insert: %w", result.Error)
	}
	return nil
}

func (s *gormRecordStore) Get(ctx context.Context, rc tenantctx.RequestContext, recordID uuid.UUID) (*model.ClinicalRecord, error) {
	tbl, err := s.table(ctx, rc)
	if err != nil {
		return nil, err
	}

	var rec model.ClinicalRecord
	result := tbl.Where("record_id = ?", recordID).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormRecordStore.Get: %w", result.Error)
	}
	return &rec, nil
}

func (s *gormRecordStore) List(ctx context.Context, rc tenantctx.RequestContext) ([]*model.ClinicalRecord, error) {
	tbl, err := s.table(ctx, rc)
	if err != nil {
		return nil, err
	}

	var recs []*model.ClinicalRecord
	result := tbl.Order("created_at DESC").Find(&recs)
	if result.Error != nil {
		return nil, fmt.Errorf("gormRecordStore.List: %w", result.Error)
	}
	return recs, nil
}

func (s *gormRecordStore) Update(ctx context.Context, rc tenantctx.RequestContext, recordID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	tbl, err := s.table(ctx, rc)
	if err != nil {
		return err
	}

	result := tbl.Where("record_id = ?", recordID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gormRecordStore.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *gormRecordStore) Delete(ctx context.Context, rc tenantctx.RequestContext, recordID uuid.UUID) error {
	tbl, err := s.table(ctx, rc)
	if err != nil {
		return err
	}

	result := tbl.Where("record_id = ?", recordID).Delete(&model.ClinicalRecord{})
	if result.Error != nil {
		return fmt.Errorf("gormRecordStore.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
