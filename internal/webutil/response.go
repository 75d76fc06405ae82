// internal/webutil/response.go
package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"clinic_tenant_core/internal/model"

	"github.com/go-playground/validator/v10"
)

// HandleError はエラーを解釈し、適切なJSONエラーレスポンスを返します。
// テナント解決エラーとクレデンシャルエラーは情報を漏らさない汎用レスポンスに
// 丸めます。他テナントのドメインが存在するかどうか、パスワードとテナントの
// どちらが間違っていたかを、レスポンスから区別できてはいけません。
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	statusCode := MapErrorToStatusCode(err)

	var errResp model.APIErrorResponse

	switch {
	case errors.Is(err, model.ErrTenantNotFound),
		errors.Is(err, model.ErrTenantUnavailable),
		errors.Is(err, model.ErrPartitionUnavailable):
		// 未解決・停止中・一時停止中をすべて同一のレスポンスにする
		errResp = model.APIErrorResponse{Error: model.ErrorDetail{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "このアドレスではサービスを利用できません。",
		}}

	case errors.Is(err, model.ErrCredentialTenantMismatch),
		errors.Is(err, model.ErrCredentialExpired),
		errors.Is(err, model.ErrCredentialRevoked),
		errors.Is(err, model.ErrAuthenticationFailed):
		// すべての認証失敗を同一のレスポンスにする
		errResp = model.APIErrorResponse{Error: model.ErrorDetail{
			Code:    "AUTHENTICATION_FAILED",
			Message: "認証に失敗しました。",
		}}

	case errors.Is(err, model.ErrUnboundContextAccess):
		// プログラミングエラー。高重要度でログし、詳細は返さない。
		logger.Error("Unbound context access detected", "error", err)
		errResp = model.APIErrorResponse{Error: model.ErrorDetail{
			Code:    "INTERNAL_SERVER_ERROR",
			Message: "サーバー内部でエラーが発生しました。",
		}}

	default:
		var appErr *model.AppError
		switch {
		case errors.As(err, &appErr):
			errResp = model.APIErrorResponse{Error: model.ErrorDetail{
				Code:    appErr.Code,
				Message: appErr.Message,
				Field:   appErr.Field,
			}}
		case errors.Is(err, model.ErrNotFound):
			errResp = model.APIErrorResponse{Error: model.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "指定されたリソースが見つかりません。",
			}}
		case errors.Is(err, model.ErrInvalidInput):
			errResp = model.APIErrorResponse{Error: model.ErrorDetail{
				Code:    "INVALID_INPUT",
				Message: "入力内容が正しくありません。",
			}}
		case errors.Is(err, model.ErrConflict):
			errResp = model.APIErrorResponse{Error: model.ErrorDetail{
				Code:    "CONFLICT",
				Message: "リソースが競合しています。",
			}}
		default:
			logger.Error("Unhandled error", "error", err)
			errResp = model.APIErrorResponse{Error: model.ErrorDetail{
				Code:    "INTERNAL_SERVER_ERROR",
				Message: "サーバー内部でエラーが発生しました。",
			}}
		}
	}

	RespondWithJSON(w, statusCode, errResp)
}

// MapErrorToStatusCode はアプリケーションエラーをHTTPステータスコードにマッピングします
func MapErrorToStatusCode(err error) int {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		err = appErr.Unwrap()
	}

	switch {
	case errors.Is(err, model.ErrTenantNotFound),
		errors.Is(err, model.ErrTenantUnavailable),
		errors.Is(err, model.ErrPartitionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrCredentialTenantMismatch),
		errors.Is(err, model.ErrCredentialExpired),
		errors.Is(err, model.ErrCredentialRevoked),
		errors.Is(err, model.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrDomainConflict),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithJSON はJSONレスポンスを返します。
// 204 やペイロード無しの場合はボディを書きません (net/http は
// ボディを許さないステータスコードへの書き込みを拒否します)。
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	if payload == nil || code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Error marshaling JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_SERVER_ERROR", "message":"レスポンス生成中にエラーが発生しました。"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// NewValidationErrorResponse はバリデーションエラーを AppError に変換します
func NewValidationErrorResponse(errs validator.ValidationErrors) *model.AppError {
	var fields []string
	var messages []string

	for _, err := range errs {
		field := err.Field()
		message := fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
		fields = append(fields, field)
		messages = append(messages, message)
	}

	return model.NewAppError(
		"VALIDATION_ERROR",
		strings.Join(messages, "; "),
		strings.Join(fields, ","),
		model.ErrInvalidInput,
	)
}
