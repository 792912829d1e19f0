package report

import "errors"

// ErrInvalidTransition は許可されていない修正生成の状態遷移を表す。
var ErrInvalidTransition = errors.New("invalid fix state transition")
