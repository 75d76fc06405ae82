package middleware

import (
	"net/http"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/webutil"
)

// AdminAPIKeyMiddleware は管理API (テナントプロビジョニング等) の認可ゲートです。
// キーが未設定の場合、管理APIは全面的に無効になります。
func AdminAPIKeyMiddleware(adminAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			if !AdminKeyAuthorized(adminAPIKey, r.Header.Get(config.HeaderAdminAPIKey)) {
				logger.Warn("Admin API access denied")
				webutil.HandleError(w, logger, model.ErrAuthenticationFailed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
