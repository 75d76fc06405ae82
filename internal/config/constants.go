package config

// HTTPヘッダー名
const (
	// HeaderTenantOverride は管理ツール向けの明示的テナント指定ヘッダーです。
	// 管理APIキーを提示した呼び出し元からのみ受理されます。
	HeaderTenantOverride = "X-Tenant-Override"

	// HeaderAdminAPIKey は管理API認可用のヘッダーです。
	HeaderAdminAPIKey = "X-Admin-API-Key"
)
