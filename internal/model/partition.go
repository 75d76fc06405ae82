package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PartitionStatus はパーティションの状態です
type PartitionStatus string

const (
	PartitionReady     PartitionStatus = "ready"
	PartitionMigrating PartitionStatus = "migrating" // マイグレーション適用中は新規コンテキストを拒否
	PartitionRetiring  PartitionStatus = "retiring"  // デコミッション済み。猶予期間経過後にアーカイブ
	PartitionArchived  PartitionStatus = "archived"
)

// Partition は1テナントが所有する分離ストレージ単位です。
// SchemaName がテーブル名前空間のプレフィックスになります。
// PartitionID はテナント廃止後も再利用されません。
type Partition struct {
	PartitionID   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"partition_id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"tenant_id"`
	SchemaName    string          `gorm:"uniqueIndex;not null" json:"schema_name"`
	Status        PartitionStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	SchemaVersion int64           `gorm:"not null;default:0" json:"schema_version"`
	RetiredAt     *time.Time      `json:"retired_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Partition) TableName() string {
	return "partitions"
}

// NewSchemaName はパーティションIDから名前空間プレフィックスを導出します。
// 例: "p_9f86d081a3b4c5d6"
func NewSchemaName(partitionID uuid.UUID) string {
	return fmt.Sprintf("p_%s", strings.ReplaceAll(partitionID.String(), "-", "")[:16])
}
