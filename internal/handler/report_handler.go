package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/humanflow/internal/model"
	"github.com/hitoshi/humanflow/internal/report"
)

// reportUnavailablePath はレポートを開けなかった場合の戻り先。
const reportUnavailablePath = "/history?notice=" + noticeReportUnavailable

// ReportHandler は履歴一覧とレポート詳細のHTTPハンドラー。
type ReportHandler struct {
	service  ReportServiceInterface
	renderer *Renderer
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface, renderer *Renderer) *ReportHandler {
	return &ReportHandler{
		service:  service,
		renderer: renderer,
	}
}

// History は解析履歴の一覧を表示する。
// GET /history, GET /dashboard?view=history
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	view, err := h.service.LoadHistory(r.Context(), sessionUserID(r))
	if view == nil {
		view = &report.HistoryView{State: report.HistoryFailed}
	}
	list := newHistoryListView(view)
	if err != nil {
		apiErr := asAPIError(err, model.NewHistoryFailedError())
		logAPIError(r, "history unavailable", apiErr)
		list.Error = apiErr.Message
		list.ErrorAction = apiErr.Action
		status = statusForError(apiErr)
	}

	h.renderer.Render(w, status, pageDashboard, &DashboardPage{
		Page:    newPage(r, "History", tabHistory),
		History: list,
	})
}

// Show はレポート詳細を表示する。修正コードは常に空の状態で始まる。
// GET /reports/{id}
// 取得に失敗した場合は通知付きで履歴一覧へリダイレクトする。
func (h *ReportHandler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, reportUnavailablePath, http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, http.StatusOK, pageReport,
		newReportPage(newPage(r, "Report", tabHistory), report.Open(detail)))
}

// Fix はレポートの修正コードを生成して表示する。
// POST /reports/{id}/fix
// 失敗時はフォームで送られた直前の修正コードをそのまま表示する。
func (h *ReportHandler) Fix(w http.ResponseWriter, r *http.Request) {
	previous := normalizeNewlines(r.PostFormValue("previous_fix"))

	detail, err := h.service.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, reportUnavailablePath, http.StatusSeeOther)
		return
	}

	modal := report.Restore(detail, previous)
	status := http.StatusOK
	var failure *model.APIError
	if err := h.service.GenerateFix(r.Context(), modal); err != nil {
		failure = asAPIError(err, model.NewFixFailedError())
		logAPIError(r, "fix rejected", failure)
		status = statusForError(failure)
	}

	page := newReportPage(newPage(r, "Report", tabHistory), modal)
	if failure != nil {
		page.Error = failure.Message
		page.ErrorAction = failure.Action
	}
	h.renderer.Render(w, status, pageReport, page)
}
