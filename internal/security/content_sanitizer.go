// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は解析サービスが返すテキスト（要約・指摘事項・コンテナ名）を
// 画面に埋め込む前にサニタイズする。AIの出力にはコード片を示す簡単なマークアップが
// 含まれることがあるため、bluemondayの許可リストでインライン要素のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は解析結果テキストのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize は解析結果テキストをサニタイズして安全なHTML断片を返す。
	// 許可タグ（code, strong, em, br）のみを通過させ、属性は全て除去する。
	// それ以外のタグは除去され、テキスト中の特殊文字はエスケープされる。
	// 空文字列の入力には空文字列を返す。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフに使用できる。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 属性なしのインライン要素のみ許可する。
	// script, style等は許可リストに含めないことで要素ごと除去される。
	p.AllowElements("code", "strong", "em", "br")

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize は解析結果テキストをサニタイズして安全なHTML断片を返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return s.policy.Sanitize(raw)
}
