// Package analyzer はコード解析の送信ワークフローを提供する。
//
// 1回の送信は「コンテナ作成 → コード解析」の2つのAPI呼び出しを順番に行う。
// 2つ目の呼び出しは1つ目が返したコンテナIDを必要とするため並列化しない。
package analyzer

import (
	"errors"
	"fmt"

	"github.com/hitoshi/humanflow/internal/model"
)

// State は解析画面の状態。
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

// String はfmt.Stringerを実装する。
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidTransition は許可されていない状態遷移を表す。
var ErrInvalidTransition = errors.New("invalid analyzer state transition")

// Workflow は1画面分の解析状態を保持する状態機械。
// 送信中(Submitting)の間は次の送信を受け付けない。
type Workflow struct {
	state  State
	code   string
	result *model.AnalysisResult
}

// NewWorkflow はエディタの内容codeを持つIdle状態のWorkflowを生成する。
func NewWorkflow(code string) *Workflow {
	return &Workflow{state: StateIdle, code: code}
}

// State は現在の状態を返す。
func (w *Workflow) State() State { return w.state }

// Code はエディタの内容を返す。
func (w *Workflow) Code() string { return w.code }

// Result は直近の成功した解析結果を返す。Succeeded以外ではnil。
func (w *Workflow) Result() *model.AnalysisResult { return w.result }

// Edit はエディタの内容を置き換える。
// SucceededまたはFailedからはIdleに戻り、表示中の結果を破棄する。
func (w *Workflow) Edit(code string) {
	w.code = code
	if w.state == StateSucceeded || w.state == StateFailed {
		w.state = StateIdle
		w.result = nil
	}
}

// Begin は送信を開始する。送信中の場合はErrInvalidTransitionを返す。
func (w *Workflow) Begin() error {
	if w.state == StateSubmitting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.state, StateSubmitting)
	}
	w.state = StateSubmitting
	w.result = nil
	return nil
}

// Succeed は送信中の状態を結果付きで完了させる。
func (w *Workflow) Succeed(result *model.AnalysisResult) error {
	if w.state != StateSubmitting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.state, StateSucceeded)
	}
	w.state = StateSucceeded
	w.result = result
	return nil
}

// Fail は送信中の状態を失敗で完了させる。途中までの結果は保持しない。
func (w *Workflow) Fail() error {
	if w.state != StateSubmitting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.state, StateFailed)
	}
	w.state = StateFailed
	w.result = nil
	return nil
}
