// migratectl はパーティションマイグレーションの運用CLIです。
//
//	migratectl migrate apply <migration_id>  … 全アクティブパーティションへ適用
//	migratectl migrate status                … マイグレーション台帳の一覧
//
// 部分失敗は異常終了コードで返しますが、適用済みパーティションは
// そのまま維持されます。再実行すると失敗分だけが再適用されます。
//
// 退役パーティションのアーカイブはサーバープロセスの定期清掃だけが行います。
// 束縛中コンテキスト数はサーバープロセス内でしか観測できず、別プロセスから
// のアーカイブは束縛ゼロの条件を検証できないためです。
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/repository"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/tenantctx"
)

var configPath string

// cliDeps はコマンドが共有する依存一式です
type cliDeps struct {
	db            *gorm.DB
	partitions    service.PartitionService
	migrationRepo repository.MigrationRepository
	close         func()
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "migratectl",
		Short:         "パーティションマイグレーション運用ツール",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "設定ファイルのディレクトリ")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "マイグレーションの適用と状態確認",
	}
	migrateCmd.AddCommand(newMigrateApplyCmd(), newMigrateStatusCmd())

	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newDeps は設定とDB接続を初期化し、サービス層を組み立てます
func newDeps() (*cliDeps, error) {
	if err := config.LoadConfig(configPath); err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	if err := repository.AutoMigrateEngine(db); err != nil {
		closeFn()
		return nil, fmt.Errorf("管理テーブルの初期化に失敗しました: %w", err)
	}

	migrationRepo := repository.NewGormMigrationRepository()
	partitions := service.NewPartitionService(
		db,
		repository.NewGormPartitionRepository(),
		migrationRepo,
		repository.NewGormTenantRepository(),
		tenantctx.NewTracker(),
		&config.Cfg,
		service.DefaultMigrationSteps(),
	)
	return &cliDeps{
		db:            db,
		partitions:    partitions,
		migrationRepo: migrationRepo,
		close:         closeFn,
	}, nil
}

func newMigrateApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <migration_id>",
		Short: "指定マイグレーションを全アクティブパーティションへ適用",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			migrationID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("マイグレーションIDは整数で指定してください: %q", args[0])
			}

			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.close()

			results, applyErr := deps.partitions.ApplyMigration(context.Background(), migrationID)
			if applyErr != nil && !errors.Is(applyErr, model.ErrMigrationPartialFailure) {
				return applyErr
			}

			sorted := make([]model.MigrationResult, 0, len(results))
			for _, res := range results {
				sorted = append(sorted, res)
			}
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i].PartitionID.String() < sorted[j].PartitionID.String()
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PARTITION\tOUTCOME\tERROR")
			for _, res := range sorted {
				fmt.Fprintf(w, "%s\t%s\t%s\n", res.PartitionID, res.Outcome, res.Error)
			}
			w.Flush()

			if applyErr != nil {
				// 部分失敗: 適用済みは維持、失敗分は再実行で拾える
				return applyErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migration %d applied to %d partition(s)\n", migrationID, len(results))
			return nil
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "マイグレーション台帳の一覧を表示",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.close()

			ctx := context.Background()
			records, err := deps.migrationRepo.ListRecords(ctx, deps.db)
			if err != nil {
				return err
			}

			// 台帳にまだ現れていない登録済みステップも表示対象にする
			ledger := make(map[int64]bool, len(records))
			for _, rec := range records {
				ledger[rec.MigrationID] = true
			}
			for _, step := range deps.partitions.Steps() {
				if !ledger[step.ID] {
					records = append(records, &model.MigrationRecord{
						MigrationID: step.ID,
						Description: step.Description,
						Status:      model.MigrationPending,
					})
				}
			}
			sort.Slice(records, func(i, j int) bool { return records[i].MigrationID < records[j].MigrationID })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tPARTITION\tSTATUS\tAPPLIED_AT\tERROR")
			for _, rec := range records {
				statuses, err := deps.migrationRepo.ListPartitionStatuses(ctx, deps.db, rec.MigrationID)
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					fmt.Fprintf(w, "%d\t-\t%s\t-\t\n", rec.MigrationID, rec.Status)
					continue
				}
				for _, pm := range statuses {
					appliedAt := "-"
					if pm.AppliedAt != nil {
						appliedAt = pm.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", pm.MigrationID, pm.PartitionID, pm.Status, appliedAt, pm.Error)
				}
			}
			return w.Flush()
		},
	}
}
