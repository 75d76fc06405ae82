package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/dataaccess"
	"clinic_tenant_core/internal/handlers"
	"clinic_tenant_core/internal/repository"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/tenantctx"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	// Configを読み込み
	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}
	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	log.Println("Log Config Loaded...")

	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// エンジン自身の管理テーブル (レジストリ・台帳など) を整える。
	// パーティション内のテーブルはプロビジョニングとマイグレーションが管理する。
	if err := repository.AutoMigrateEngine(db); err != nil {
		slog.Error("Error migrating engine tables", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Dependency Injection
	tenantRepo := repository.NewGormTenantRepository()
	partitionRepo := repository.NewGormPartitionRepository()
	migrationRepo := repository.NewGormMigrationRepository()
	identityRepo := repository.NewGormIdentityRepository()
	revocationRepo := repository.NewGormRevocationRepository()

	tracker := tenantctx.NewTracker()
	binder := tenantctx.NewBinder(tracker)

	partitionService := service.NewPartitionService(db, partitionRepo, migrationRepo, tenantRepo, tracker, &config.Cfg, service.DefaultMigrationSteps())
	registryService := service.NewRegistryService(db, tenantRepo, partitionRepo, identityRepo, partitionService)
	credentialService := service.NewCredentialService(db, identityRepo, revocationRepo, &config.Cfg)

	recordStore := dataaccess.NewGormRecordStore(db)

	// 4. Setup Router
	r := handlers.NewRouter(handlers.RouterDeps{
		DB:          db,
		Registry:    registryService,
		Partitions:  partitionService,
		Credentials: credentialService,
		Records:     recordStore,
		Binder:      binder,
		Cfg:         &config.Cfg,
		Logger:      logger,
	})

	// 失効トークンと猶予期間経過パーティションの定期清掃
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n, err := credentialService.PruneRevoked(cleanupCtx); err != nil {
					slog.Error("Revoked credential prune failed", slog.Any("error", err))
				} else if n > 0 {
					slog.Info("Pruned expired revocation entries", slog.Int64("count", n))
				}
				if archived, err := partitionService.ReapRetired(cleanupCtx); err != nil {
					slog.Error("Partition reap failed", slog.Any("error", err))
				} else if len(archived) > 0 {
					slog.Info("Archived retired partitions", slog.Int("count", len(archived)))
				}
			}
		}
	}()

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
