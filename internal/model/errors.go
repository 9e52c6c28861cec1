package model

import (
	"errors"
	"fmt"
)

// リポジトリ・サービス層が返す番兵エラー。
// ハンドラーはerrors.IsでHTTPステータスに変換する。
var (
	// ErrNotFound は対象が存在しない、または呼び出しユーザーの所有でないことを表す。
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail は登録済みのメールアドレスで登録しようとしたことを表す。
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrShareCodeTaken は共有コードの一意制約違反を表す。共有エンジンは再試行する。
	ErrShareCodeTaken = errors.New("share code already in use")
	// ErrShareCodeExhausted は共有コード生成の再試行上限に達したことを表す。
	ErrShareCodeExhausted = errors.New("share code generation attempts exhausted")
	// ErrStoreUnavailable はデータベース接続の失敗を表す。
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidCredentials はログイン情報が一致しないことを表す。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden は権限不足を表す。
	ErrForbidden = errors.New("forbidden")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, training, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeCSRFInvalid        = "CSRF_INVALID"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDayNotFound        = "DAY_NOT_FOUND"
	ErrCodeWorkoutNotFound    = "WORKOUT_NOT_FOUND"
	ErrCodeRecordNotFound     = "RECORD_NOT_FOUND"
	ErrCodeExerciseNotFound   = "EXERCISE_NOT_FOUND"
	ErrCodeShareCodeNotFound  = "SHARE_CODE_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeShareCodeExhausted = "SHARE_CODE_EXHAUSTED"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeNoChanges          = "NO_CHANGES"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("%s is required", field),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewDayNotFoundError はトレーニング日未検出エラーを生成する。
func NewDayNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeDayNotFound,
		Message:  "day not found",
		Category: "training",
		Action:   "トレーニング日の一覧を再読み込みしてください。",
	}
}

// NewWorkoutNotFoundError はワークアウト未検出エラーを生成する。
func NewWorkoutNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeWorkoutNotFound,
		Message:  "workout not found",
		Category: "training",
		Action:   "ワークアウトの一覧を再読み込みしてください。",
	}
}

// NewRecordNotFoundError はBMI記録未検出エラーを生成する。
func NewRecordNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  "not found",
		Category: "training",
		Action:   "記録の一覧を再読み込みしてください。",
	}
}

// NewExerciseNotFoundError は種目未検出エラーを生成する。
func NewExerciseNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeExerciseNotFound,
		Message:  "exercise not found",
		Category: "training",
		Action:   "種目の一覧を再読み込みしてください。",
	}
}

// NewShareCodeNotFoundError は共有コード未検出エラーを生成する。
func NewShareCodeNotFoundError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeShareCodeNotFound,
		Message:  fmt.Sprintf("share code not found: %s", code),
		Category: "training",
		Action:   "共有コードを確認してください。",
	}
}

// NewNoChangesError は並べ替え対象が1件も更新されなかった場合のエラーを生成する。
func NewNoChangesError() *APIError {
	return &APIError{
		Code:     ErrCodeNoChanges,
		Message:  "day not found or no changes",
		Category: "training",
		Action:   "並び順を確認してください。",
	}
}

// NewInvalidFieldError は値の形式が不正な入力項目のエラーを生成する。
func NewInvalidFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("%s is invalid", field),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "forbidden",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewCSRFInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRF token validation failed",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
