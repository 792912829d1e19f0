package report

import (
	"time"

	"github.com/hitoshi/humanflow/internal/model"
)

// CopyAckInterval は「コピーしました」表示を元に戻すまでの時間。
const CopyAckInterval = 2 * time.Second

// FixState はレポート詳細の修正生成状態。
type FixState int

const (
	FixNone FixState = iota
	FixPending
	FixReady
)

// Modal は1件のレポート詳細の表示状態。
// レポートを開くたびに新しいModalを作るため、前のレポートの修正コードは引き継がれない。
type Modal struct {
	report    *model.ReportDetail
	state     FixState
	fixedCode string

	// 修正生成開始前の状態。失敗時にこの状態へ戻す。
	prevState FixState
}

// Open はレポートを表示する新しいModalを返す。修正コードは空の状態で始まる。
func Open(report *model.ReportDetail) *Modal {
	return &Modal{report: report}
}

// Restore は直前に表示していた修正コードを引き継いだModalを返す。
// 再生成に失敗した場合に以前の修正コードを残すために使う。
func Restore(report *model.ReportDetail, fixedCode string) *Modal {
	m := Open(report)
	if fixedCode != "" {
		m.state = FixReady
		m.fixedCode = fixedCode
	}
	return m
}

// Report は表示中のレポートを返す。
func (m *Modal) Report() *model.ReportDetail { return m.report }

// FixState は修正生成の状態を返す。
func (m *Modal) FixState() FixState { return m.state }

// FixedCode は表示中の修正コードを返す。
func (m *Modal) FixedCode() string { return m.fixedCode }

// Pending は修正生成中かどうかを返す。生成中は操作ボタンを無効にする。
func (m *Modal) Pending() bool { return m.state == FixPending }

// ActionLabel は修正生成ボタンの文言を返す。
func (m *Modal) ActionLabel() string {
	if m.fixedCode != "" {
		return "Regenerate fix"
	}
	return "Generate fix"
}

// BeginFix は修正生成を開始する。生成中の場合はErrInvalidTransitionを返す。
func (m *Modal) BeginFix() error {
	if m.state == FixPending {
		return ErrInvalidTransition
	}
	m.prevState = m.state
	m.state = FixPending
	return nil
}

// CompleteFix は生成された修正コードで表示を置き換える。
func (m *Modal) CompleteFix(code string) {
	if m.state != FixPending {
		return
	}
	m.state = FixReady
	m.fixedCode = code
}

// FailFix は修正生成の失敗を反映する。以前の修正コードはそのまま残す。
func (m *Modal) FailFix() {
	if m.state != FixPending {
		return
	}
	m.state = m.prevState
}

// Issues は表示する指摘事項を返す。
func (m *Modal) Issues() []string {
	if m.report == nil {
		return nil
	}
	return m.report.Issues
}

// Clean は指摘事項が無いかどうかを返す。
func (m *Modal) Clean() bool { return len(m.Issues()) == 0 }
