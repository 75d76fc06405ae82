package model

import (
	"time"

	"github.com/google/uuid"
)

// MigrationStatus はマイグレーションの適用状態です
type MigrationStatus string

const (
	MigrationPending MigrationStatus = "pending"
	MigrationApplied MigrationStatus = "applied"
	MigrationFailed  MigrationStatus = "failed"
)

// MigrationRecord はマイグレーション台帳のエントリです (追記専用)。
// MigrationID はコード側で登録されたステップIDと一致する単調増加値です。
type MigrationRecord struct {
	MigrationID int64           `gorm:"primaryKey" json:"migration_id"`
	Description string          `gorm:"not null" json:"description"`
	Status      MigrationStatus `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (MigrationRecord) TableName() string {
	return "migration_records"
}

// PartitionMigration はパーティションごとの適用状況です。
// パーティションはスキーマバージョンについて黙って分岐してはならず、
// 未適用・失敗はここに必ず現れます。
type PartitionMigration struct {
	MigrationID int64           `gorm:"primaryKey;autoIncrement:false" json:"migration_id"`
	PartitionID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"partition_id"`
	Status      MigrationStatus `gorm:"type:varchar(32);not null" json:"status"`
	Error       string          `json:"error,omitempty"`
	AppliedAt   *time.Time      `json:"applied_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (PartitionMigration) TableName() string {
	return "partition_migrations"
}

// PartitionOutcome は applyMigration のパーティション別結果です
type PartitionOutcome string

const (
	OutcomeApplied          PartitionOutcome = "Applied"
	OutcomeFailed           PartitionOutcome = "Failed"
	OutcomeSkippedSuspended PartitionOutcome = "Skipped-Suspended"
	OutcomeAlreadyApplied   PartitionOutcome = "Already-Applied"
)

// MigrationResult は1パーティションへの適用結果です
type MigrationResult struct {
	PartitionID uuid.UUID        `json:"partition_id"`
	Outcome     PartitionOutcome `json:"outcome"`
	Error       string           `json:"error,omitempty"`
}
