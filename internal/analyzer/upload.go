package analyzer

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/hitoshi/humanflow/internal/model"
)

// MaxUploadSize はアップロードできるファイルの最大バイト数（1MiB、境界値を含む）。
const MaxUploadSize = 1 << 20

// ReadUpload はアップロードされたファイルをテキストとして読み込む。
//
// declaredSizeが既知（0以上）で上限を超える場合は読み込まずに拒否する。
// 申告サイズが信用できない場合に備えて、実際の読み込みも上限+1バイトで打ち切る。
// UTF-8として不正な内容は読み込みエラーとして扱う。
func ReadUpload(r io.Reader, declaredSize int64) (string, error) {
	if declaredSize > MaxUploadSize {
		return "", model.NewFileTooLargeError()
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w: %w", model.NewFileUnreadableError(), err)
	}
	if len(data) > MaxUploadSize {
		return "", model.NewFileTooLargeError()
	}
	if !utf8.Valid(data) {
		return "", model.NewFileUnreadableError()
	}
	return string(data), nil
}
