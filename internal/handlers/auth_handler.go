package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/service"
	"clinic_tenant_core/internal/tenantctx"
	"clinic_tenant_core/internal/webutil"

	"github.com/go-playground/validator/v10"
)

// AuthHandler はログイン/ログアウトのハンドラです。
// 発行されるトークンは、ログインを開始したリクエストが解決された
// テナントにスコープされます。
type AuthHandler struct {
	credentials service.CredentialService
	logger      *slog.Logger
}

func NewAuthHandler(credentials service.CredentialService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		logger:      logger,
	}
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	// ログインはテナント解決済みの面でのみ到達可能。
	// コンテキストが無ければプログラミングエラー。
	rc, err := tenantctx.From(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.LoginRequest
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

	identity, err := h.credentials.Authenticate(r.Context(), rc.TenantID(), req.Email, req.Password)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	token, _, err := h.credentials.Issue(r.Context(), identity)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.LoginResponse{AccessToken: token})
}

// Logout godoc
// POST /api/v1/auth/logout
// 提示されたトークンを自然満了前に失効させます。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	claims, err := middleware.GetClaims(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.credentials.Revoke(r.Context(), claims); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusNoContent, nil)
}
