package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/tenantctx"
	"clinic_tenant_core/internal/webutil"
)

// TenantResolver はホスト名（または明示オーバーライド）をテナントに解決します。
// 実装は service.RegistryService（import循環を避けるためここはインターフェース定義）。
type TenantResolver interface {
	Resolve(ctx context.Context, host, override string, overrideAuthorized bool) (model.ResolvedTenant, error)
}

// AdminKeyAuthorized は管理APIキーの定数時間比較です
func AdminKeyAuthorized(adminAPIKey, presented string) bool {
	if adminAPIKey == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(adminAPIKey), []byte(presented)) == 1
}

// TenantContextMiddleware はリクエストをテナントへ解決し、パーティション
// コンテキストを束縛するミドルウェアです。処理順は
// 解決 → 束縛 → （後続の）クレデンシャル検証 → データアクセス。
// 束縛なしでは後段が動かないため、この順序は型で強制されます。
//
// 束縛はリクエスト存続期間に限定され、Binder.WithContext がどの終了経路
// （早期リターン・エラー・panic・タイムアウト）でも解放を保証します。
func TenantContextMiddleware(resolver TenantResolver, binder *tenantctx.Binder, adminAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			// Host ヘッダーが唯一の暗黙的テナント選択シグナル。
			// 明示オーバーライドは管理APIキー保持者のみに許可。
			override := r.Header.Get(config.HeaderTenantOverride)
			overrideAuthorized := AdminKeyAuthorized(adminAPIKey, r.Header.Get(config.HeaderAdminAPIKey))

			resolved, err := resolver.Resolve(r.Context(), r.Host, override, overrideAuthorized)
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			rc, err := binder.Bind(resolved)
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			// 束縛の解放は WithContext が保証する
			_ = binder.WithContext(r.Context(), rc, func(ctx context.Context) error {
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			})
		})
	}
}
