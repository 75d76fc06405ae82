package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/dataaccess"
	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/tenantctx"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

// RouterDeps はルーター構築に必要な依存一式です
type RouterDeps struct {
	DB          *gorm.DB
	Registry    service.RegistryService
	Partitions  service.PartitionService
	Credentials service.CredentialService
	Records     dataaccess.RecordStore
	Binder      *tenantctx.Binder
	Cfg         *config.Config
	Logger      *slog.Logger
}

// NewRouter はAPIのルーティングを構築します。
//
// 管理面 (/admin) はテナント解決を行わず、管理APIキーで守られます。
// テナント面はまず Host ヘッダーで解決・束縛され、その内側で
// クレデンシャル検証 → データアクセスの順に進みます。
func NewRouter(deps RouterDeps) *chi.Mux {
	adminHandler := NewAdminTenantHandler(deps.Registry, deps.Credentials, deps.Logger)
	authHandler := NewAuthHandler(deps.Credentials, deps.Logger)
	recordHandler := NewRecordHandler(deps.Records, deps.Logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(deps.Logger))

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   deps.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   deps.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   deps.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   deps.Cfg.CORS.ExposedHeaders,
		AllowCredentials: deps.Cfg.CORS.AllowCredentials,
		MaxAge:           deps.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	r.Use(cors.New(corsOptions).Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// --- 管理面 (テナント非依存、管理キー必須) ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAPIKeyMiddleware(deps.Cfg.Admin.APIKey))

			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", adminHandler.CreateTenant)
				r.Get("/", adminHandler.ListTenants)
				r.Route("/{tenant_id}", func(r chi.Router) {
					r.Get("/", adminHandler.GetTenant)
					r.Post("/activate", adminHandler.ActivateTenant)
					r.Post("/suspend", adminHandler.SuspendTenant)
					r.Post("/resume", adminHandler.ResumeTenant)
					r.Post("/decommission", adminHandler.DecommissionTenant)
					r.Post("/domains", adminHandler.AddDomain)
					r.Delete("/domains/{hostname}", adminHandler.RemoveDomain)
					r.Post("/identities", adminHandler.CreateIdentity)
				})
			})
		})

		// --- テナント面 (Host ヘッダーで解決・束縛) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.TenantContextMiddleware(deps.Registry, deps.Binder, deps.Cfg.Admin.APIKey))

			// ログインは束縛済みだが未認証で到達できる
			r.Post("/auth/login", authHandler.Login)

			// 以降はテナントスコープ付きトークンが必須
			r.Group(func(r chi.Router) {
				r.Use(middleware.CredentialAuthMiddleware(deps.Credentials))

				r.Post("/auth/logout", authHandler.Logout)

				r.Route("/records", func(r chi.Router) {
					r.Post("/", recordHandler.CreateRecord)
					r.Get("/", recordHandler.ListRecords)
					r.Get("/{record_id}", recordHandler.GetRecord)
					r.Patch("/{record_id}", recordHandler.UpdateRecord)
					r.Delete("/{record_id}", recordHandler.DeleteRecord)
				})
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sqlDB, err := deps.DB.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
