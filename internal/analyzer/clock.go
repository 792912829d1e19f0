package analyzer

import "time"

// Clock は現在時刻の取得元。テストで固定時刻に差し替える。
type Clock interface {
	Now() time.Time
}

// SystemClock はtime.Nowを使うデフォルトのClock。
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
