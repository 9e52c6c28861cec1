package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// notFoundは対象が見つからない場合に返すエラー。nilなら汎用のnot foundを使う。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, notFound *model.APIError) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		if notFound == nil {
			notFound = model.NewRecordNotFoundError()
		}
		middleware.WriteErrorResponse(w, http.StatusNotFound, notFound)
	case errors.Is(err, model.ErrDuplicateEmail):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeDuplicateEmail,
			Message:  "email already in use",
			Category: "auth",
			Action:   "別のメールアドレスを使用するか、ログインしてください。",
		})
	case errors.Is(err, model.ErrInvalidCredentials):
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     model.ErrCodeInvalidCredentials,
			Message:  "invalid credentials",
			Category: "auth",
			Action:   "メールアドレスとパスワードを確認してください。",
		})
	case errors.Is(err, model.ErrForbidden):
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
	case errors.Is(err, model.ErrShareCodeExhausted):
		slog.Error("share code generation exhausted",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     model.ErrCodeShareCodeExhausted,
			Message:  "failed to create share code",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
	case errors.Is(err, model.ErrStoreUnavailable):
		slog.Error("store unavailable",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
			Code:     model.ErrCodeStoreUnavailable,
			Message:  "データベースに接続できません。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
	default:
		// 番兵エラー以外は内部サーバーエラーとして扱う
		slog.Error("internal server error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteInternalServerError(w)
	}
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest, model.ErrCodeDuplicateEmail:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeCSRFInvalid:
		return http.StatusForbidden
	case model.ErrCodeDayNotFound, model.ErrCodeWorkoutNotFound, model.ErrCodeRecordNotFound,
		model.ErrCodeExerciseNotFound, model.ErrCodeShareCodeNotFound, model.ErrCodeNoChanges:
		return http.StatusNotFound
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
