package model

import (
	"bytes"
	"fmt"
	"time"
)

// naiveLayouts はタイムゾーン情報を持たない日時表現のレイアウト。
// 解析サービスはUTCのnaive datetimeを返すため、UTCとして解釈する。
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp は解析サービスが返す作成日時。
// RFC3339形式とタイムゾーンなし形式の両方を受け付ける。
type Timestamp struct {
	time.Time
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("日時は文字列である必要があります: %s", data)
	}
	s := string(data[1 : len(data)-1])

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("日時の形式が不正です: %q", s)
}

// MarshalJSON はjson.Marshalerを実装する。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}
