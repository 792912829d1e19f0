package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/hitoshi/humanflow/internal/model"
)

// analysisEnvelope は解析レスポンスの生データ。
// 結果が full_report 配下にネストされる形と、トップレベルに直接置かれる形の両方を受け付ける。
type analysisEnvelope struct {
	FullReport json.RawMessage `json:"full_report"`
	analysisBody
}

// analysisBody は解析結果本体のワイヤ表現。
// 永続化済みレポートの形では score の代わりに debt_score が入る。
type analysisBody struct {
	Score     *float64 `json:"score"`
	DebtScore *float64 `json:"debt_score"`
	Summary   *string  `json:"summary"`
	Issues    []any    `json:"issues"`
}

var errScoreMissing = errors.New("解析結果にscoreが含まれていません")

// normalize はどちらの形のレスポンスでも同一のAnalysisResultに変換する。
func (e analysisEnvelope) normalize() (*model.AnalysisResult, error) {
	body := e.analysisBody
	if nested := bytes.TrimSpace(e.FullReport); len(nested) > 0 && nested[0] == '{' {
		var inner analysisBody
		if err := json.Unmarshal(nested, &inner); err != nil {
			return nil, fmt.Errorf("full_reportのパースに失敗しました: %w", err)
		}
		body = inner
	}
	return body.toResult()
}

func (b analysisBody) toResult() (*model.AnalysisResult, error) {
	score := b.Score
	if score == nil {
		score = b.DebtScore
	}
	if score == nil {
		return nil, errScoreMissing
	}

	result := &model.AnalysisResult{
		Score:  clampScore(*score),
		Issues: make([]string, 0, len(b.Issues)),
	}
	if b.Summary != nil {
		result.Summary = *b.Summary
	}
	for _, issue := range b.Issues {
		// 文字列以外の指摘は表示できないため読み飛ばす
		if s, ok := issue.(string); ok {
			result.Issues = append(result.Issues, s)
		}
	}
	return result, nil
}

// clampScore はスコアを0〜100の整数に丸める。
func clampScore(v float64) int {
	s := int(math.Round(v))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
