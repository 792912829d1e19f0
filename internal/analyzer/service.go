package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/humanflow/internal/metrics"
	"github.com/hitoshi/humanflow/internal/model"
)

// 解析用コンテナの固定属性。コンテナは解析APIの参照制約を満たすためだけに作る。
const (
	RepositoryNamePrefix  = "Analysis "
	RepositoryURL         = "http://manual-upload"
	RepositoryDescription = "Manual Analysis"

	repositoryTimeLayout = "2006-01-02 15:04:05"
)

// AnalysisAPI は解析ワークフローが使う解析サービスAPIの部分集合。
type AnalysisAPI interface {
	CreateRepository(ctx context.Context, in model.NewRepository) (*model.Repository, error)
	Analyze(ctx context.Context, repositoryID, code string) (*model.AnalysisResult, error)
}

// Service はコード解析の送信を行う。
// 同一ユーザーの送信は同時に1件までに制限する。
type Service struct {
	api     AnalysisAPI
	clock   Clock
	metrics metrics.MetricsCollector
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService はServiceを生成する。clockがnilの場合はSystemClockを使う。
func NewService(api AnalysisAPI, clock Clock, collector metrics.MetricsCollector) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		api:      api,
		clock:    clock,
		metrics:  collector,
		inflight: make(map[string]struct{}),
	}
}

// WithTimeout は1回の送信にかける時間の上限を設定する。0以下の場合は上限なし。
// 上限を過ぎると解析サービスの応答を待たずに失敗し、同一ユーザーの送信制限を解放する。
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Submit はwfのコードを解析サービスに送信する。
//
// ユーザーIDが空、またはコードが空白のみの場合はネットワーク呼び出しを行わずに
// エラーを返し、wfの状態は変えない。コンテナ作成に失敗した場合は解析APIを呼ばない。
// 失敗時は呼び出し箇所を区別しない単一のエラー(ANALYSIS_FAILED)を返す。
func (s *Service) Submit(ctx context.Context, userID string, wf *Workflow) error {
	if userID == "" {
		return model.NewNotAuthenticatedError()
	}
	if strings.TrimSpace(wf.Code()) == "" {
		return model.NewEmptyCodeError()
	}
	if !s.acquire(userID) {
		return model.NewSubmissionInProgressError()
	}
	defer s.release(userID)

	if err := wf.Begin(); err != nil {
		return model.NewSubmissionInProgressError()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.run(ctx, userID, wf.Code())
	if err != nil {
		slog.Warn("analysis failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordAnalysis("failed")
		_ = wf.Fail()
		return fmt.Errorf("analysis workflow: %w", model.NewAnalysisFailedError())
	}

	s.metrics.RecordAnalysis("succeeded")
	_ = wf.Succeed(result)
	slog.Info("analysis completed",
		slog.String("user_id", userID),
		slog.Int("score", result.Score),
		slog.Int("issues", len(result.Issues)),
	)
	return nil
}

// run はコンテナ作成と解析を順番に実行する。
func (s *Service) run(ctx context.Context, userID, code string) (*model.AnalysisResult, error) {
	repo, err := s.api.CreateRepository(ctx, model.NewRepository{
		Name:        RepositoryNamePrefix + s.clock.Now().Format(repositoryTimeLayout),
		URL:         RepositoryURL,
		Description: RepositoryDescription,
		OwnerID:     userID,
	})
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	result, err := s.api.Analyze(ctx, repo.ID, code)
	if err != nil {
		return nil, fmt.Errorf("analyze (repository %s): %w", repo.ID, err)
	}
	return result, nil
}

func (s *Service) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return false
	}
	s.inflight[userID] = struct{}{}
	return true
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()
}
