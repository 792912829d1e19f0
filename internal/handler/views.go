package handler

import (
	"strconv"
	"time"

	"github.com/hitoshi/humanflow/internal/analyzer"
	"github.com/hitoshi/humanflow/internal/model"
	"github.com/hitoshi/humanflow/internal/report"
)

// dateLayout は履歴とレポートに表示する作成日時の書式。
const dateLayout = "Jan 2, 2006 15:04"

// Page は全ページ共通の表示内容。
type Page struct {
	Title     string
	Tab       string
	CSRFToken string
	SignedIn  bool
	Notice    string
}

// EntryPage は登録・ログイン画面。
type EntryPage struct {
	Page
	Mode              string // "register" または "login"
	FullName          string
	Email             string
	Error             string
	ErrorAction       string
	MinPasswordLength int
}

// DashboardPage は解析タブと履歴タブを持つダッシュボード画面。
type DashboardPage struct {
	Page
	Analyzer *AnalyzerView
	History  *HistoryListView
}

// AnalyzerView は解析フォームと結果の表示内容。
type AnalyzerView struct {
	State         string
	Code          string
	Result        *ResultView
	Error         string
	ErrorAction   string
	Success       string
	FileMessage   string
	Accept        string
	MaxUploadSize int
}

// ResultView は解析結果の表示内容。
type ResultView struct {
	Score   ScoreView
	Summary string
	Issues  []string
	Clean   bool
}

// ScoreView はスコアと評価帯の表示内容。
type ScoreView struct {
	Value string
	Band  string
	Tone  string
}

// HistoryListView は履歴一覧の表示内容。
type HistoryListView struct {
	State       string
	Error       string
	ErrorAction string
	Entries     []HistoryItemView
}

// HistoryItemView は履歴一覧の1行。
type HistoryItemView struct {
	ID        string
	Name      string
	CreatedAt string
	Score     ScoreView
	Summary   string
}

// ReportPage はレポート詳細画面。
type ReportPage struct {
	Page
	Report        ReportView
	FixedCode     string
	ActionLabel   string
	Pending       bool
	Error         string
	ErrorAction   string
	CopyAckMillis int64
}

// ReportView はレポート詳細の表示内容。
type ReportView struct {
	ID        string
	Name      string
	CreatedAt string
	Score     ScoreView
	Summary   string
	Issues    []string
	Clean     bool
}

// uploadAccept はファイル選択ダイアログに提示する拡張子。サーバー側では拡張子を検証しない。
const uploadAccept = ".py,.js,.ts,.tsx,.jsx,.txt,.md,.json,.html,.css"

func newAnalyzerView(wf *analyzer.Workflow) *AnalyzerView {
	v := &AnalyzerView{
		State:         wf.State().String(),
		Code:          wf.Code(),
		Accept:        uploadAccept,
		MaxUploadSize: analyzer.MaxUploadSize,
	}
	if result := wf.Result(); result != nil {
		v.Result = newResultView(result)
	}
	return v
}

func newScoreView(score *int) ScoreView {
	band := model.BandFor(score)
	value := string(model.BandUnknown)
	if score != nil {
		value = strconv.Itoa(*score)
	}
	return ScoreView{Value: value, Band: string(band), Tone: band.Tone()}
}

func newResultView(result *model.AnalysisResult) *ResultView {
	score := result.Score
	summary := result.Summary
	if summary == "" {
		summary = report.NoSummaryText
	}
	return &ResultView{
		Score:   newScoreView(&score),
		Summary: summary,
		Issues:  result.Issues,
		Clean:   len(result.Issues) == 0,
	}
}

func newHistoryListView(view *report.HistoryView) *HistoryListView {
	v := &HistoryListView{State: string(view.State)}
	for _, e := range view.Entries {
		v.Entries = append(v.Entries, HistoryItemView{
			ID:        e.ID,
			Name:      e.RepositoryName,
			CreatedAt: formatDate(e.CreatedAt),
			Score:     newScoreView(e.Score),
			Summary:   report.TruncateSummary(e.Summary),
		})
	}
	return v
}

func newReportView(detail *model.ReportDetail) ReportView {
	summary := report.NoSummaryText
	if detail.Summary != nil && *detail.Summary != "" {
		summary = *detail.Summary
	}
	return ReportView{
		ID:        detail.ID,
		Name:      detail.RepositoryName,
		CreatedAt: formatDate(detail.CreatedAt),
		Score:     newScoreView(detail.Score),
		Summary:   summary,
		Issues:    detail.Issues,
		Clean:     len(detail.Issues) == 0,
	}
}

func newReportPage(page Page, modal *report.Modal) *ReportPage {
	return &ReportPage{
		Page:          page,
		Report:        newReportView(modal.Report()),
		FixedCode:     modal.FixedCode(),
		ActionLabel:   modal.ActionLabel(),
		Pending:       modal.Pending(),
		CopyAckMillis: report.CopyAckInterval.Milliseconds(),
	}
}

func formatDate(ts model.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(dateLayout)
}
