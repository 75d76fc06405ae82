package model

import (
	"time"

	"github.com/google/uuid"
)

// ClinicalRecord はパーティション内に格納される業務エンティティの例です。
// テナントIDカラムを意図的に持ちません。分離はデータアクセス層が解決する
// テーブル名前空間のみに依存し、WHERE句の付け忘れで他テナントの行が
// 混入する余地をなくしています。
type ClinicalRecord struct {
	RecordID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"record_id"`
	PatientName string    `gorm:"not null" json:"patient_name"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClinicalRecordBaseTable はパーティション内でのベーステーブル名です。
// 実テーブル名は "<schema>_clinical_records" になります。
const ClinicalRecordBaseTable = "clinical_records"

// CreateRecordRequest は記録作成APIのリクエストボディ
type CreateRecordRequest struct {
	RecordID    *uuid.UUID `json:"record_id,omitempty"` // 省略時はサーバー側で生成
	PatientName string     `json:"patient_name" validate:"required,min=1,max=200"`
	Note        string     `json:"note" validate:"max=4000"`
}

// UpdateRecordRequest は記録更新APIのリクエストボディ
type UpdateRecordRequest struct {
	PatientName *string `json:"patient_name,omitempty" validate:"omitempty,min=1,max=200"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=4000"`
}
