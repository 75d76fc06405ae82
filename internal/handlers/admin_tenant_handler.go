// Package handlers は、HTTPリクエストを処理するハンドラ関数を定義するパッケージです。
// リクエストの解析、サービス層の呼び出し、レスポンスの生成を行います。
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AdminTenantHandler はテナントプロビジョニングAPI（運用ツール向け）の
// ハンドラです。管理APIキーのゲートの内側でのみルーティングされます。
type AdminTenantHandler struct {
	registry    service.RegistryService
	credentials service.CredentialService
	logger      *slog.Logger
}

func NewAdminTenantHandler(registry service.RegistryService, credentials service.CredentialService, logger *slog.Logger) *AdminTenantHandler {
	return &AdminTenantHandler{
		registry:    registry,
		credentials: credentials,
		logger:      logger,
	}
}

// tenantIDFromURL は {tenant_id} パスパラメータを取り出します
func tenantIDFromURL(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "tenant_id")
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_TENANT_ID",
			"テナントIDの形式が正しくありません。", "tenant_id", model.ErrInvalidInput)
	}
	return tenantID, nil
}

// CreateTenant godoc
// POST /api/v1/admin/tenants
func (h *AdminTenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.CreateTenantRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, logger, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, logger, model.ErrInvalidInput)
		return
	}

	tenant, err := h.registry.CreateTenant(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, model.NewTenantResponse(tenant))
}

// transitionHandler は activate/suspend/resume/decommission を共通化します
func (h *AdminTenantHandler) transitionHandler(
	fn func(r *http.Request, tenantID uuid.UUID) (*model.Tenant, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.GetLogger(r.Context())

		tenantID, err := tenantIDFromURL(r)
		if err != nil {
			webutil.HandleError(w, logger, err)
			return
		}

		tenant, err := fn(r, tenantID)
		if err != nil {
			webutil.HandleError(w, logger, err)
			return
		}
		webutil.RespondWithJSON(w, http.StatusOK, model.NewTenantResponse(tenant))
	}
}

func (h *AdminTenantHandler) ActivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, id uuid.UUID) (*model.Tenant, error) {
		return h.registry.ActivateTenant(r.Context(), id)
	})(w, r)
}

func (h *AdminTenantHandler) SuspendTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, id uuid.UUID) (*model.Tenant, error) {
		return h.registry.SuspendTenant(r.Context(), id)
	})(w, r)
}

func (h *AdminTenantHandler) ResumeTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, id uuid.UUID) (*model.Tenant, error) {
		return h.registry.ResumeTenant(r.Context(), id)
	})(w, r)
}

func (h *AdminTenantHandler) DecommissionTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, id uuid.UUID) (*model.Tenant, error) {
		return h.registry.DecommissionTenant(r.Context(), id)
	})(w, r)
}

// GetTenant godoc
// GET /api/v1/admin/tenants/{tenant_id}
func (h *AdminTenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	tenantID, err := tenantIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	tenant, err := h.registry.GetTenant(r.Context(), tenantID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, model.NewTenantResponse(tenant))
}

// ListTenants godoc
// GET /api/v1/admin/tenants
func (h *AdminTenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	tenants, err := h.registry.ListTenants(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	responses := make([]model.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		responses = append(responses, model.NewTenantResponse(t))
	}
	webutil.RespondWithJSON(w, http.StatusOK, responses)
}

// AddDomain godoc
// POST /api/v1/admin/tenants/{tenant_id}/domains
func (h *AdminTenantHandler) AddDomain(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	tenantID, err := tenantIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.AddDomainRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, logger, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, logger, model.ErrInvalidInput)
		return
	}

	if err := h.registry.AddDomain(r.Context(), tenantID, req.Hostname, req.IsPrimary); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusNoContent, nil)
}

// RemoveDomain godoc
// DELETE /api/v1/admin/tenants/{tenant_id}/domains/{hostname}
func (h *AdminTenantHandler) RemoveDomain(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	tenantID, err := tenantIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	hostname := chi.URLParam(r, "hostname")

	if err := h.registry.RemoveDomain(r.Context(), tenantID, hostname); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusNoContent, nil)
}

// CreateIdentity godoc
// POST /api/v1/admin/tenants/{tenant_id}/identities
func (h *AdminTenantHandler) CreateIdentity(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	tenantID, err := tenantIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateIdentityRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, logger, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, logger, model.ErrInvalidInput)
		return
	}

	// 対象テナントの存在確認（存在しないテナントへの主体登録を防ぐ）
	if _, err := h.registry.GetTenant(r.Context(), tenantID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	identity, err := h.credentials.RegisterIdentity(r.Context(), tenantID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, identity)
}
