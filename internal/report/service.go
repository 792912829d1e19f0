// Package report は解析履歴の一覧、レポート詳細、AI修正生成を提供する。
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/humanflow/internal/apiclient"
	"github.com/hitoshi/humanflow/internal/metrics"
	"github.com/hitoshi/humanflow/internal/model"
)

// ReportAPI はレポート関連の解析サービスAPIの部分集合。
type ReportAPI interface {
	History(ctx context.Context, userID string) ([]model.HistoryEntry, error)
	Report(ctx context.Context, reportID string) (*model.ReportDetail, error)
	GenerateFix(ctx context.Context, reportID string) (*model.FixedCode, error)
}

// Service は履歴・レポート詳細・修正生成の処理を行う。
// 同一レポートの修正生成は同時に1件までに制限する。
type Service struct {
	api     ReportAPI
	metrics metrics.MetricsCollector
	timeout time.Duration

	mu     sync.Mutex
	fixing map[string]struct{}
}

// NewService はServiceを生成する。
func NewService(api ReportAPI, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		api:     api,
		metrics: collector,
		fixing:  make(map[string]struct{}),
	}
}

// WithTimeout は修正生成1回にかける時間の上限を設定する。0以下の場合は上限なし。
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// LoadHistory はユーザーの履歴一覧画面の状態を構築する。
// ユーザーIDが空の場合はネットワーク呼び出しを行わない。
// 取得に失敗した場合はFailed状態（空リスト）とエラーを返す。
func (s *Service) LoadHistory(ctx context.Context, userID string) (*HistoryView, error) {
	if userID == "" {
		return &HistoryView{State: HistoryUnauthenticated}, nil
	}

	entries, err := s.api.History(ctx, userID)
	if err != nil {
		slog.Warn("failed to load history",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return &HistoryView{State: HistoryFailed}, fmt.Errorf("load history: %w", model.NewHistoryFailedError())
	}

	if len(entries) == 0 {
		return &HistoryView{State: HistoryEmpty}, nil
	}
	return &HistoryView{State: HistoryLoaded, Entries: entries}, nil
}

// Open はレポート詳細を取得する。
// IDがUUID形式でない場合は解析サービスを呼ばずに見つからない扱いとする。
func (s *Service) Open(ctx context.Context, reportID string) (*model.ReportDetail, error) {
	if _, err := uuid.Parse(reportID); err != nil {
		return nil, model.NewReportNotFoundError()
	}

	detail, err := s.api.Report(ctx, reportID)
	if err != nil {
		// 存在しないレポートと通信障害は画面上は同じ扱いだが、ログでは区別する
		level := slog.LevelWarn
		msg := "failed to load report"
		if apiclient.IsNotFound(err) {
			level = slog.LevelInfo
			msg = "report not found"
		}
		slog.Log(ctx, level, msg,
			slog.String("report_id", reportID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("open report: %w", model.NewReportNotFoundError())
	}
	return detail, nil
}

// GenerateFix はmodalの修正生成を実行する。
// 成功時は修正コードを表示状態にし、失敗時は直前の表示状態に戻してエラーを返す。
// 同じレポートの修正生成が別のリクエストで実行中の場合はAPIを呼ばずにエラーを返す。
func (s *Service) GenerateFix(ctx context.Context, modal *Modal) error {
	reportID := modal.Report().ID
	if !s.acquire(reportID) {
		return model.NewFixInProgressError()
	}
	defer s.release(reportID)

	if err := modal.BeginFix(); err != nil {
		return model.NewFixInProgressError()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	fixed, err := s.api.GenerateFix(ctx, reportID)
	if err != nil {
		slog.Warn("failed to generate fix",
			slog.String("report_id", reportID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordFix("failed")
		modal.FailFix()
		return fmt.Errorf("generate fix: %w", model.NewFixFailedError())
	}

	s.metrics.RecordFix("succeeded")
	modal.CompleteFix(fixed.Code)
	return nil
}

func (s *Service) acquire(reportID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.fixing[reportID]; busy {
		return false
	}
	s.fixing[reportID] = struct{}{}
	return true
}

func (s *Service) release(reportID string) {
	s.mu.Lock()
	delete(s.fixing, reportID)
	s.mu.Unlock()
}
