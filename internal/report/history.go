package report

import (
	"unicode/utf8"

	"github.com/hitoshi/humanflow/internal/model"
)

// HistoryState は履歴一覧画面の状態。
type HistoryState string

const (
	// HistoryLoading は取得中。サーバー側では取得完了までページを返さないため描画されない。
	HistoryLoading         HistoryState = "loading"
	HistoryUnauthenticated HistoryState = "unauthenticated"
	HistoryFailed          HistoryState = "failed"
	HistoryEmpty           HistoryState = "empty"
	HistoryLoaded          HistoryState = "loaded"
)

// HistoryView は履歴一覧画面の表示内容。
type HistoryView struct {
	State   HistoryState
	Entries []model.HistoryEntry
}

// SummaryMaxLength は一覧に表示する要約の最大文字数。
const SummaryMaxLength = 100

// NoSummaryText は要約が無い場合の表示文言。
const NoSummaryText = "No summary available."

// TruncateSummary は一覧表示用に要約を切り詰める。
// nilまたは空の場合はNoSummaryTextを返す。
func TruncateSummary(summary *string) string {
	if summary == nil || *summary == "" {
		return NoSummaryText
	}
	s := *summary
	if utf8.RuneCountInString(s) <= SummaryMaxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:SummaryMaxLength]) + "..."
}
