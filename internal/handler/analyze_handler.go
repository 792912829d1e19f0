package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/hitoshi/humanflow/internal/analyzer"
	"github.com/hitoshi/humanflow/internal/middleware"
	"github.com/hitoshi/humanflow/internal/model"
)

const (
	tabAnalyzer = "analyzer"
	tabHistory  = "history"

	analysisSucceededMessage = "Analysis completed successfully!"
	editorTooLongMessage     = "The code in the editor is too long. Limit is 10MB."

	// maxEditorBytes はmultipartで送られるエディタ内容の読み込み上限。
	// URLエンコードのフォームの上限と揃える。
	maxEditorBytes = middleware.MaxFormBytes
)

// AnalyzerHandler はコード解析のHTTPハンドラー。
type AnalyzerHandler struct {
	service  AnalyzerServiceInterface
	renderer *Renderer
}

// NewAnalyzerHandler はAnalyzerHandlerを生成する。
func NewAnalyzerHandler(service AnalyzerServiceInterface, renderer *Renderer) *AnalyzerHandler {
	return &AnalyzerHandler{
		service:  service,
		renderer: renderer,
	}
}

// Editor は空の解析フォームを表示する。
// GET /dashboard
func (h *AnalyzerHandler) Editor(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, newAnalyzerView(analyzer.NewWorkflow("")))
}

// Analyze はエディタの内容を解析サービスに送信し、結果を表示する。
// POST /analyze
func (h *AnalyzerHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	wf := analyzer.NewWorkflow(normalizeNewlines(r.PostFormValue("code")))

	if err := h.service.Submit(r.Context(), sessionUserID(r), wf); err != nil {
		apiErr := asAPIError(err, model.NewAnalysisFailedError())
		logAPIError(r, "analysis rejected", apiErr)
		view := newAnalyzerView(wf)
		view.Error = apiErr.Message
		view.ErrorAction = apiErr.Action
		h.render(w, r, statusForError(apiErr), view)
		return
	}

	view := newAnalyzerView(wf)
	view.Success = analysisSucceededMessage
	h.render(w, r, http.StatusOK, view)
}

// Upload はアップロードされたファイルの内容をエディタに読み込む。
// POST /analyze/upload (multipart/form-data)
// ファイルの読み込みのみを行い、解析は送信しない。
// 失敗時はエディタの内容をそのまま残し、ファイル選択は空の状態で再表示する。
func (h *AnalyzerHandler) Upload(w http.ResponseWriter, r *http.Request) {
	form, err := readUploadForm(r)

	wf := analyzer.NewWorkflow(form.code)
	if err != nil {
		apiErr := asAPIError(err, model.NewFileUnreadableError())
		slog.Warn("file upload rejected",
			slog.String("user_id", sessionUserID(r)),
			slog.String("file_name", form.fileName),
			slog.String("code", apiErr.Code),
			slog.String("category", apiErr.Category),
			slog.String("error", err.Error()),
		)
		view := newAnalyzerView(wf)
		view.Error = apiErr.Message
		view.ErrorAction = apiErr.Action
		h.render(w, r, statusForError(apiErr), view)
		return
	}

	if form.hasFile {
		wf.Edit(form.fileText)
	}
	view := newAnalyzerView(wf)
	if form.hasFile {
		view.FileMessage = fmt.Sprintf("File \"%s\" loaded.", form.fileName)
	}
	h.render(w, r, http.StatusOK, view)
}

func (h *AnalyzerHandler) render(w http.ResponseWriter, r *http.Request, status int, view *AnalyzerView) {
	h.renderer.Render(w, status, pageDashboard, &DashboardPage{
		Page:     newPage(r, "Analyze code", tabAnalyzer),
		Analyzer: view,
	})
}

// uploadForm はアップロードフォームの内容。
type uploadForm struct {
	code     string
	hasFile  bool
	fileName string
	fileText string
}

// readUploadForm はmultipartボディをストリームで読み込む。
// ファイルは一時ファイルに書き出さず、analyzer.ReadUploadの上限で読み込みを打ち切る。
func readUploadForm(r *http.Request) (uploadForm, error) {
	var form uploadForm

	mr, err := r.MultipartReader()
	if err != nil {
		return form, fmt.Errorf("read multipart: %w: %w", model.NewFileUnreadableError(), err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return form, fmt.Errorf("next part: %w: %w", model.NewFileUnreadableError(), err)
		}

		switch part.FormName() {
		case "code":
			b, err := io.ReadAll(io.LimitReader(part, maxEditorBytes+1))
			if err != nil {
				part.Close()
				return form, fmt.Errorf("read code field: %w: %w", model.NewFileUnreadableError(), err)
			}
			if len(b) > maxEditorBytes {
				part.Close()
				return form, model.NewValidationError(editorTooLongMessage)
			}
			form.code = normalizeNewlines(string(b))
		case "file":
			if part.FileName() == "" {
				break
			}
			form.hasFile = true
			form.fileName = path.Base(strings.ReplaceAll(part.FileName(), "\\", "/"))
			// multipartのパートにはサイズ情報が無いため申告サイズは不明として読む
			text, err := analyzer.ReadUpload(part, -1)
			if err != nil {
				part.Close()
				return form, err
			}
			form.fileText = text
		}
		part.Close()
	}
}

// normalizeNewlines はフォーム送信で変換されたCRLFをLFに戻す。
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
