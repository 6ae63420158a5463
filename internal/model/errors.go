// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, post, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNoToken           = "NO_TOKEN"
	ErrCodeTokenExpired      = "TOKEN_EXPIRED"
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeTokenVerification = "TOKEN_VERIFICATION_FAILED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeMissingFields     = "MISSING_FIELDS"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewNoTokenError はトークン未提示エラーを生成する。
// CookieにもAuthorizationヘッダーにも資格情報が無い場合に使う。
func NewNoTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeNoToken,
		Message:  "Unauthorized: No token provided",
		Category: "auth",
		Action:   "Send a token via the access_token cookie or the Authorization header.",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Unauthorized: Token has expired",
		Category: "auth",
		Action:   "Obtain a new token and retry.",
	}
}

// NewInvalidTokenError は署名不正・形式不正トークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Unauthorized: Invalid token",
		Category: "auth",
		Action:   "Check that the token is intact and signed for this service.",
	}
}

// NewTokenVerificationError はその他の検証失敗エラーを生成する。
func NewTokenVerificationError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenVerification,
		Message:  "Unauthorized: Token verification failed",
		Category: "auth",
		Action:   "Obtain a new token and retry.",
	}
}

// NewCreateNotAllowedError は記事作成の権限エラーを生成する。
func NewCreateNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You are not allowed to create a post",
		Category: "post",
		Action:   "Only administrators can create posts.",
	}
}

// NewDeleteNotAllowedError は記事削除の権限エラーを生成する。
func NewDeleteNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You are not allowed to delete this post",
		Category: "post",
		Action:   "Only the owning administrator can delete this post.",
	}
}

// NewUpdateNotAllowedError は記事更新の権限エラーを生成する。
func NewUpdateNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You are not allowed to update this post",
		Category: "post",
		Action:   "Only the owning administrator can update this post.",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
// 作成時にtitleまたはcontentが無い場合に使う。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Please provide all required fields",
		Category: "validation",
		Action:   "Set both title and content in the request body.",
	}
}
