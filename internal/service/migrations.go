package service

import (
	"fmt"
	"sort"

	"clinic_tenant_core/internal/model"

	"gorm.io/gorm"
)

// MigrationStep はコード側で登録されるスキーマ変更です。
// Apply は1パーティションの名前空間に対してトランザクション内で実行されます。
type MigrationStep struct {
	ID          int64
	Description string
	Apply       func(tx *gorm.DB, schema string) error
}

// PartitionTable はパーティション名前空間内の実テーブル名を返します。
// 呼び出し側が接続文字列やクエリにテナント名を文字列連結する代わりに、
// 必ずこの関数（とデータアクセス層）を通します。
func PartitionTable(schema, baseTable string) string {
	return fmt.Sprintf("%s_%s", schema, baseTable)
}

// DefaultMigrationSteps は現行の業務スキーマを構成するステップ列です。
// 新規パーティションはこの列を逐次再生せず、現行スナップショット
// (bootstrapPartition) で一括構築されます。
func DefaultMigrationSteps() []MigrationStep {
	return []MigrationStep{
		{
			ID:          1,
			Description: "create clinical_records table",
			Apply: func(tx *gorm.DB, schema string) error {
				return tx.Table(PartitionTable(schema, model.ClinicalRecordBaseTable)).
					AutoMigrate(&model.ClinicalRecord{})
			},
		},
	}
}

// sortSteps はステップをID昇順に整列し、最大IDを返します
func sortSteps(steps []MigrationStep) ([]MigrationStep, int64) {
	sorted := make([]MigrationStep, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var maxID int64
	if len(sorted) > 0 {
		maxID = sorted[len(sorted)-1].ID
	}
	return sorted, maxID
}
