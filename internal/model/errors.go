// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 画面に表示するメッセージと原因カテゴリ、対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, analysis, report, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation           = "VALIDATION"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeLoginFailed          = "LOGIN_FAILED"
	ErrCodeRegistrationFailed   = "REGISTRATION_FAILED"
	ErrCodeNotAuthenticated     = "NOT_AUTHENTICATED"
	ErrCodeEmptyCode            = "EMPTY_CODE"
	ErrCodeFileTooLarge         = "FILE_TOO_LARGE"
	ErrCodeFileUnreadable       = "FILE_UNREADABLE"
	ErrCodeAnalysisFailed       = "ANALYSIS_FAILED"
	ErrCodeSubmissionInProgress = "SUBMISSION_IN_PROGRESS"
	ErrCodeHistoryFailed        = "HISTORY_FAILED"
	ErrCodeReportNotFound       = "REPORT_NOT_FOUND"
	ErrCodeFixFailed            = "FIX_FAILED"
	ErrCodeFixInProgress        = "FIX_IN_PROGRESS"
)

// NewValidationError はフォーム入力の検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Check the highlighted fields and try again.",
	}
}

// NewUserNotFoundError はログイン時にメールアドレスが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Check the email address or create an account.",
	}
}

// NewLoginFailedError はユーザー一覧の取得失敗などでログインできない場合のエラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "Could not log in. Please try again.",
		Category: "auth",
		Action:   "Try again in a moment.",
	}
}

// NewRegistrationFailedError はユーザー登録の失敗を表すエラーを生成する。
// detailが空の場合は汎用メッセージを使用する。
func NewRegistrationFailedError(detail string) *APIError {
	msg := detail
	if msg == "" {
		msg = "Could not create the account."
	}
	return &APIError{
		Code:     ErrCodeRegistrationFailed,
		Message:  msg,
		Category: "auth",
		Action:   "Try again in a moment.",
	}
}

// NewNotAuthenticatedError はセッションIDが無い状態で解析しようとした場合のエラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "Sign up first to analyze code.",
		Category: "auth",
		Action:   "Create an account or log in.",
	}
}

// NewEmptyCodeError は解析対象のコードが空の場合のエラーを生成する。
func NewEmptyCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCode,
		Message:  "Paste some code to analyze.",
		Category: "validation",
		Action:   "Paste code into the editor or upload a file.",
	}
}

// NewFileTooLargeError はアップロードファイルがサイズ上限を超えた場合のエラーを生成する。
func NewFileTooLargeError() *APIError {
	return &APIError{
		Code:     ErrCodeFileTooLarge,
		Message:  "File too large. Limit is 1MB.",
		Category: "validation",
		Action:   "Upload a smaller file or paste only the relevant part.",
	}
}

// NewFileUnreadableError はアップロードファイルをテキストとして読めない場合のエラーを生成する。
func NewFileUnreadableError() *APIError {
	return &APIError{
		Code:     ErrCodeFileUnreadable,
		Message:  "Could not read the file.",
		Category: "validation",
		Action:   "Upload a UTF-8 text file.",
	}
}

// NewAnalysisFailedError は解析ワークフローの失敗を表すエラーを生成する。
// コンテナ作成と解析のどちらで失敗したかは区別しない。
func NewAnalysisFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAnalysisFailed,
		Message:  "Failed to reach the AI. Please try again.",
		Category: "analysis",
		Action:   "Wait a moment and submit again.",
	}
}

// NewSubmissionInProgressError は同一ユーザーの解析が実行中の場合のエラーを生成する。
func NewSubmissionInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeSubmissionInProgress,
		Message:  "An analysis is already running.",
		Category: "analysis",
		Action:   "Wait for the current analysis to finish.",
	}
}

// NewHistoryFailedError は履歴取得の失敗を表すエラーを生成する。
func NewHistoryFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeHistoryFailed,
		Message:  "Error loading history.",
		Category: "report",
		Action:   "Reload the page to try again.",
	}
}

// NewReportNotFoundError はレポート詳細を取得できない場合のエラーを生成する。
func NewReportNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeReportNotFound,
		Message:  "Could not load the report.",
		Category: "report",
		Action:   "Select the report again from the history list.",
	}
}

// NewFixFailedError は自動修正の生成失敗を表すエラーを生成する。
func NewFixFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeFixFailed,
		Message:  "Could not generate the fix.",
		Category: "report",
		Action:   "Try generating the fix again.",
	}
}

// NewFixInProgressError は修正生成中に再度生成しようとした場合のエラーを生成する。
func NewFixInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeFixInProgress,
		Message:  "A fix is already being generated.",
		Category: "report",
		Action:   "Wait for the current fix to finish.",
	}
}
