package model

// Band はスコアの評価帯を表す。
type Band string

const (
	BandExcellent Band = "Excellent"
	BandAttention Band = "Attention"
	BandCritical  Band = "Critical"
	BandUnknown   Band = "N/A"
)

// BandFor はスコアを評価帯に分類する。
//   - score > 70: Excellent
//   - 40 < score <= 70: Attention
//   - score <= 40: Critical
//   - nil: N/A
func BandFor(score *int) Band {
	if score == nil {
		return BandUnknown
	}
	switch s := *score; {
	case s > 70:
		return BandExcellent
	case s > 40:
		return BandAttention
	default:
		return BandCritical
	}
}

// Tone は評価帯に対応する表示スタイル名を返す。
func (b Band) Tone() string {
	switch b {
	case BandExcellent:
		return "positive"
	case BandAttention:
		return "warning"
	case BandCritical:
		return "danger"
	default:
		return "neutral"
	}
}
