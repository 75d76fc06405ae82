// internal/model/error.go
package model

import (
	"errors"
	"fmt"
)

// アプリケーション共通のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("resource conflict") // 重複エラー用
)

// テナント分離エンジン固有のエラー分類
var (
	// ErrTenantNotFound はホスト名がどのテナントにも解決できなかったことを示します。
	// デフォルトテナントへのフォールバックは行いません（クロステナント漏洩の防止）。
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantUnavailable は Suspended / Decommissioned テナントへのアクセスを示します。
	// 外部レスポンスでは ErrTenantNotFound と区別がつかない形で返します。
	ErrTenantUnavailable = errors.New("tenant unavailable")

	// ErrDomainConflict はホスト名が既に別テナントに束縛されていることを示します。
	ErrDomainConflict = errors.New("domain already bound to another tenant")

	// ErrInvalidTransition は不正なライフサイクル遷移を示します。
	ErrInvalidTransition = errors.New("invalid tenant lifecycle transition")

	// ErrPartitionUnavailable はマイグレーション中などでパーティションが
	// 一時的に新規コンテキストを受け付けられないことを示します。
	ErrPartitionUnavailable = errors.New("partition temporarily unavailable")

	// クレデンシャル検証エラー。外部レスポンスではすべて同一の認証失敗として返し、
	// テナント境界の存在を攻撃者に確認させません。
	ErrCredentialTenantMismatch = errors.New("credential issued for a different tenant")
	ErrCredentialExpired        = errors.New("credential expired")
	ErrCredentialRevoked        = errors.New("credential revoked")
	ErrAuthenticationFailed     = errors.New("authentication failed")

	// ErrMigrationPartialFailure は一部パーティションでマイグレーションが
	// 失敗したことを示します。成功済みパーティションはロールバックしません。
	ErrMigrationPartialFailure = errors.New("migration failed on some partitions")

	// ErrUnboundContextAccess はアクティブな RequestContext なしでデータアクセスが
	// 試みられたことを示すプログラミングエラーです。リクエストに対して致命的に扱い、
	// 既定パーティションへの暗黙フォールバックは決して行いません。
	ErrUnboundContextAccess = errors.New("data access attempted without a bound request context")
)

// AppError はエラーコード・メッセージ・対象フィールドを持つアプリケーションエラーです。
// webutil.HandleError がこの情報からAPIレスポンスを組み立てます。
type AppError struct {
	Code    string
	Message string
	Field   string
	err     error
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{Code: code, Message: message, Field: field, err: err}
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.err
}

// ErrorDetail はAPIエラーレスポンスの中身です
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
