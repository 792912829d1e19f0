package model

// AnalysisResult はコード解析1回分の結果を表す。
// リモートサービスが生成し、クライアントでは変更しない。
type AnalysisResult struct {
	Score   int
	Summary string
	Issues  []string
}

// HistoryEntry は過去の解析1件の要約を表す。
// ScoreとSummaryはリモート側で未設定の場合がある。
type HistoryEntry struct {
	ID             string    `json:"id"`
	RepositoryName string    `json:"repository_name"`
	Score          *int      `json:"score"`
	Summary        *string   `json:"summary"`
	CreatedAt      Timestamp `json:"created_at"`
}

// ReportDetail はHistoryEntryに指摘事項の全リストを加えたもの。
type ReportDetail struct {
	ID             string    `json:"id"`
	RepositoryName string    `json:"repository_name"`
	Score          *int      `json:"score"`
	Summary        *string   `json:"summary"`
	Issues         []string  `json:"issues"`
	CreatedAt      Timestamp `json:"created_at"`
}

// FixedCode は自動修正APIが返す修正済みコード。
type FixedCode struct {
	Code string `json:"fixed_code"`
}
