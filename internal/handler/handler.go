// Package handler はHTMLページを返すHTTPハンドラーを提供する。
//
// 画面の状態はリクエストごとにサービス層の状態型から組み立てる。
// サーバー側に保持するのはセッションCookieに入ったユーザーIDのみ。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/humanflow/internal/analyzer"
	"github.com/hitoshi/humanflow/internal/auth"
	"github.com/hitoshi/humanflow/internal/middleware"
	"github.com/hitoshi/humanflow/internal/model"
	"github.com/hitoshi/humanflow/internal/report"
	"github.com/hitoshi/humanflow/internal/session"
)

// AuthServiceInterface は登録・ログインハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// AnalyzerServiceInterface はコード解析ハンドラーが必要とするサービスインターフェース。
type AnalyzerServiceInterface interface {
	Submit(ctx context.Context, userID string, wf *analyzer.Workflow) error
}

// ReportServiceInterface は履歴・レポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	LoadHistory(ctx context.Context, userID string) (*report.HistoryView, error)
	Open(ctx context.Context, reportID string) (*model.ReportDetail, error)
	GenerateFix(ctx context.Context, modal *report.Modal) error
}

// newPage はリクエストから全ページ共通の表示内容を組み立てる。
func newPage(r *http.Request, title, tab string) Page {
	_, signedIn := session.FromContext(r.Context())
	return Page{
		Title:     title,
		Tab:       tab,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		SignedIn:  signedIn,
		Notice:    noticeMessage(r.URL.Query().Get("notice")),
	}
}

// sessionUserID はセッションゲートが注入したユーザーIDを返す。
func sessionUserID(r *http.Request) string {
	s, _ := session.FromContext(r.Context())
	return s.UserID
}

// notice パラメータで受け付ける通知。任意の文字列を表示しないよう既知のキーのみ扱う。
const noticeReportUnavailable = "report_unavailable"

func noticeMessage(key string) string {
	switch key {
	case noticeReportUnavailable:
		return model.NewReportNotFoundError().Message
	default:
		return ""
	}
}

// asAPIError はerrからAPIErrorを取り出す。含まれない場合はfallbackを返す。
func asAPIError(err error, fallback *model.APIError) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return fallback
}

// logAPIError は画面に表示したエラーをコードとカテゴリ付きで記録する。
func logAPIError(r *http.Request, msg string, apiErr *model.APIError) {
	slog.Info(msg,
		slog.String("user_id", sessionUserID(r)),
		slog.String("code", apiErr.Code),
		slog.String("category", apiErr.Category),
	)
}

// statusForError はAPIErrorのコードに対応するHTTPステータスを返す。
func statusForError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeEmptyCode,
		model.ErrCodeFileUnreadable, model.ErrCodeRegistrationFailed:
		return http.StatusUnprocessableEntity
	case model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound, model.ErrCodeReportNotFound:
		return http.StatusNotFound
	case model.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeSubmissionInProgress, model.ErrCodeFixInProgress:
		return http.StatusConflict
	case model.ErrCodeAnalysisFailed, model.ErrCodeHistoryFailed,
		model.ErrCodeFixFailed, model.ErrCodeLoginFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
