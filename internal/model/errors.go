// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// Causeには下位層の元エラーを保持し、ログ出力とerrors.Is/Asに利用する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, provisioning, document, system
	Action   string // ユーザー向け対処方法
	Cause    error  // 元エラー（レスポンスには含めない）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は元エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Cause
}

// 定義済みエラーコード
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	ErrCodeProvisioningFailed    = "PROVISIONING_FAILED"
	ErrCodeProfileCreationFailed = "PROFILE_CREATION_FAILED"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeCannotRemoveSelf      = "CANNOT_REMOVE_SELF"
	ErrCodeInvalidDocument       = "INVALID_DOCUMENT"
	ErrCodeDocumentFetchFailed   = "DOCUMENT_FETCH_FAILED"
	ErrCodeSSRFBlocked           = "SSRF_BLOCKED"
	ErrCodeCSRFTokenInvalid      = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
// 外部呼び出しの前に検出され、副作用を伴わない。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  reason,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "Email already exists",
		Category: "validation",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewProvisioningError は認証アカウント作成の失敗を表すエラーを生成する。
// この時点では何も作成されていないため補償処理は不要。
func NewProvisioningError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeProvisioningFailed,
		Message:  "Failed to create user account",
		Category: "provisioning",
		Action:   "しばらく待ってから再度お試しください。",
		Cause:    cause,
	}
}

// NewProfileCreationError はプロフィール作成の失敗を表すエラーを生成する。
// 呼び出し元では作成済みの認証アカウントの補償削除が行われる。
func NewProfileCreationError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeProfileCreationFailed,
		Message:  "Failed to create user profile",
		Category: "provisioning",
		Action:   "所属組織の指定を確認し、再度お試しください。",
		Cause:    cause,
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Admin access required",
		Category: "auth",
		Action:   "管理者権限を持つアカウントでログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewCannotRemoveSelfError は自分自身の削除を拒否するエラーを生成する。
func NewCannotRemoveSelfError() *APIError {
	return &APIError{
		Code:     ErrCodeCannotRemoveSelf,
		Message:  "You cannot remove your own account",
		Category: "validation",
		Action:   "別の管理者に削除を依頼してください。",
	}
}

// NewInvalidDocumentError は評価対象ドキュメントの指定が不正な場合のエラーを生成する。
func NewInvalidDocumentError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDocument,
		Message:  fmt.Sprintf("Invalid document: %s", reason),
		Category: "validation",
		Action:   "text または url のどちらか一方を指定してください。",
	}
}

// NewDocumentFetchFailedError はドキュメント取得の失敗エラーを生成する。
func NewDocumentFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeDocumentFetchFailed,
		Message:  fmt.Sprintf("Failed to fetch document: %s", reason),
		Category: "document",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "Access to the requested URL is not allowed",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewCSRFTokenInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRF token validation failed",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はCauseに保持しログのみに記録する。
func NewInternalError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
		Cause:    cause,
	}
}
