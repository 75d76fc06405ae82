package middleware

import (
	"context"
	"net/http"
	"strings"

	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/tenantctx"
	"clinic_tenant_core/internal/webutil"

	"github.com/google/uuid"
)

// CredentialValidator はトークンをリクエストのテナントに対して検証します。
// 実装は service.CredentialService。
type CredentialValidator interface {
	Validate(ctx context.Context, tokenString string, expectedTenantID uuid.UUID) (*model.CredentialClaims, error)
}

type claimsCtxKey struct{}

// CredentialAuthMiddleware は Authorization ヘッダーの Bearer トークンを、
// 束縛済みコンテキストのテナントに対して検証するミドルウェアです。
// テナント不一致・期限切れ・失効のいずれも、外部にはパスワード誤りと
// 区別のつかない同一の認証失敗として返ります。
func CredentialAuthMiddleware(validator CredentialValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			// 束縛が先、検証が後。束縛が無ければここで止まる。
			rc, err := tenantctx.From(r.Context())
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Credential auth failed: Authorization header missing")
				webutil.HandleError(w, logger, model.ErrAuthenticationFailed)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				logger.Warn("Credential auth failed: Invalid Authorization header format")
				webutil.HandleError(w, logger, model.ErrAuthenticationFailed)
				return
			}

			claims, err := validator.Validate(r.Context(), headerParts[1], rc.TenantID())
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims はコンテキストから検証済みクレームを取得します
func GetClaims(ctx context.Context) (*model.CredentialClaims, error) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*model.CredentialClaims)
	if !ok {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR",
			"コンテキストから認証情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return claims, nil
}
