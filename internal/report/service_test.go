package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/humanflow/internal/apiclient"
	"github.com/hitoshi/humanflow/internal/model"
)

const testReportID = "3f2b8c1e-6d4a-4f7b-9a21-5c0e8d7b6a10"

// --- モック定義 ---

type mockReportAPI struct {
	historyCalls int
	reportCalls  int
	fixCalls     int

	historyFn func(ctx context.Context, userID string) ([]model.HistoryEntry, error)
	reportFn  func(ctx context.Context, reportID string) (*model.ReportDetail, error)
	fixFn     func(ctx context.Context, reportID string) (*model.FixedCode, error)
}

func (m *mockReportAPI) History(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	m.historyCalls++
	if m.historyFn != nil {
		return m.historyFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockReportAPI) Report(ctx context.Context, reportID string) (*model.ReportDetail, error) {
	m.reportCalls++
	if m.reportFn != nil {
		return m.reportFn(ctx, reportID)
	}
	return &model.ReportDetail{ID: reportID, Issues: []string{}}, nil
}

func (m *mockReportAPI) GenerateFix(ctx context.Context, reportID string) (*model.FixedCode, error) {
	m.fixCalls++
	if m.fixFn != nil {
		return m.fixFn(ctx, reportID)
	}
	return &model.FixedCode{Code: "print(1)\n"}, nil
}

type recordingMetrics struct {
	fixes []string
}

func (m *recordingMetrics) RecordUpstreamCall(string, int, time.Duration) {}
func (m *recordingMetrics) RecordAnalysis(string)                         {}
func (m *recordingMetrics) RecordFix(outcome string)                      { m.fixes = append(m.fixes, outcome) }
func (m *recordingMetrics) RecordPageStatus(int)                          {}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError %s", err, code)
	}
	if apiErr.Code != code {
		t.Errorf("code = %s, want %s", apiErr.Code, code)
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// --- LoadHistory ---

func TestService_LoadHistory_Unauthenticated(t *testing.T) {
	api := &mockReportAPI{}
	svc := NewService(api, nil)

	view, err := svc.LoadHistory(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.State != HistoryUnauthenticated {
		t.Errorf("State = %s, want %s", view.State, HistoryUnauthenticated)
	}
	if api.historyCalls != 0 {
		t.Errorf("History called %d times, want 0", api.historyCalls)
	}
}

func TestService_LoadHistory_States(t *testing.T) {
	tests := []struct {
		name      string
		entries   []model.HistoryEntry
		err       error
		wantState HistoryState
		wantLen   int
		wantErr   bool
	}{
		{name: "失敗", err: errors.New("boom"), wantState: HistoryFailed, wantErr: true},
		{name: "空", entries: []model.HistoryEntry{}, wantState: HistoryEmpty},
		{name: "nil", entries: nil, wantState: HistoryEmpty},
		{
			name: "取得済み",
			entries: []model.HistoryEntry{
				{ID: testReportID, RepositoryName: "Analysis 2024-05-01 10:30:00", Score: intPtr(85)},
				{ID: "b", RepositoryName: "Analysis 2024-04-30 09:00:00"},
			},
			wantState: HistoryLoaded,
			wantLen:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockReportAPI{
				historyFn: func(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
					if userID != "u1" {
						t.Errorf("userID = %q, want u1", userID)
					}
					return tt.entries, tt.err
				},
			}
			view, err := NewService(api, nil).LoadHistory(context.Background(), "u1")
			if tt.wantErr {
				assertAPIErrorCode(t, err, model.ErrCodeHistoryFailed)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if view.State != tt.wantState {
				t.Errorf("State = %s, want %s", view.State, tt.wantState)
			}
			if len(view.Entries) != tt.wantLen {
				t.Errorf("len(Entries) = %d, want %d", len(view.Entries), tt.wantLen)
			}
		})
	}
}

// --- Open ---

func TestService_Open_Success(t *testing.T) {
	api := &mockReportAPI{
		reportFn: func(ctx context.Context, reportID string) (*model.ReportDetail, error) {
			return &model.ReportDetail{ID: reportID, Score: intPtr(42), Issues: []string{"Unused variable"}}, nil
		},
	}
	detail, err := NewService(api, nil).Open(context.Background(), testReportID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.ID != testReportID || len(detail.Issues) != 1 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestService_Open_InvalidIDSkipsNetwork(t *testing.T) {
	api := &mockReportAPI{}
	_, err := NewService(api, nil).Open(context.Background(), "../users")
	assertAPIErrorCode(t, err, model.ErrCodeReportNotFound)
	if api.reportCalls != 0 {
		t.Errorf("Report called %d times, want 0", api.reportCalls)
	}
}

func TestService_Open_Failure(t *testing.T) {
	api := &mockReportAPI{
		reportFn: func(ctx context.Context, reportID string) (*model.ReportDetail, error) {
			return nil, errors.New("404")
		},
	}
	_, err := NewService(api, nil).Open(context.Background(), testReportID)
	assertAPIErrorCode(t, err, model.ErrCodeReportNotFound)
}

// TestService_Open_LogsNotFoundSeparately は404と通信障害でログレベルとメッセージが分かれることを検証する。
func TestService_Open_LogsNotFoundSeparately(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "not found",
			err:       &apiclient.HTTPError{Operation: apiclient.OpReport, StatusCode: http.StatusNotFound, Detail: "Report not found"},
			wantLevel: "INFO",
			wantMsg:   "report not found",
		},
		{
			name:      "server error",
			err:       &apiclient.HTTPError{Operation: apiclient.OpReport, StatusCode: http.StatusInternalServerError},
			wantLevel: "WARN",
			wantMsg:   "failed to load report",
		},
		{
			name:      "transport failure",
			err:       errors.New("connection refused"),
			wantLevel: "WARN",
			wantMsg:   "failed to load report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			prev := slog.Default()
			slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
			t.Cleanup(func() { slog.SetDefault(prev) })

			api := &mockReportAPI{
				reportFn: func(ctx context.Context, reportID string) (*model.ReportDetail, error) {
					return nil, tt.err
				},
			}
			_, err := NewService(api, nil).Open(context.Background(), testReportID)
			assertAPIErrorCode(t, err, model.ErrCodeReportNotFound)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log entry %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel || entry["msg"] != tt.wantMsg {
				t.Errorf("log = %v/%v, want %s/%s", entry["level"], entry["msg"], tt.wantLevel, tt.wantMsg)
			}
			if entry["report_id"] != testReportID {
				t.Errorf("report_id = %v", entry["report_id"])
			}
		})
	}
}

// --- GenerateFix ---

func TestService_GenerateFix_Success(t *testing.T) {
	rec := &recordingMetrics{}
	api := &mockReportAPI{
		fixFn: func(ctx context.Context, reportID string) (*model.FixedCode, error) {
			if reportID != testReportID {
				t.Errorf("reportID = %q", reportID)
			}
			return &model.FixedCode{Code: "fixed"}, nil
		},
	}
	modal := Open(&model.ReportDetail{ID: testReportID})

	if err := NewService(api, rec).GenerateFix(context.Background(), modal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modal.FixState() != FixReady || modal.FixedCode() != "fixed" {
		t.Errorf("state = %v, code = %q", modal.FixState(), modal.FixedCode())
	}
	if modal.ActionLabel() != "Regenerate fix" {
		t.Errorf("ActionLabel = %q", modal.ActionLabel())
	}
	if len(rec.fixes) != 1 || rec.fixes[0] != "succeeded" {
		t.Errorf("fixes = %v", rec.fixes)
	}
}

func TestService_GenerateFix_FailureKeepsPreviousFix(t *testing.T) {
	rec := &recordingMetrics{}
	api := &mockReportAPI{
		fixFn: func(ctx context.Context, reportID string) (*model.FixedCode, error) {
			return nil, errors.New("500")
		},
	}
	modal := Restore(&model.ReportDetail{ID: testReportID}, "previous")

	err := NewService(api, rec).GenerateFix(context.Background(), modal)
	assertAPIErrorCode(t, err, model.ErrCodeFixFailed)
	if modal.FixState() != FixReady || modal.FixedCode() != "previous" {
		t.Errorf("state = %v, code = %q", modal.FixState(), modal.FixedCode())
	}
	if len(rec.fixes) != 1 || rec.fixes[0] != "failed" {
		t.Errorf("fixes = %v", rec.fixes)
	}
}

func TestService_GenerateFix_FailureWithoutPreviousFix(t *testing.T) {
	api := &mockReportAPI{
		fixFn: func(ctx context.Context, reportID string) (*model.FixedCode, error) {
			return nil, errors.New("500")
		},
	}
	modal := Open(&model.ReportDetail{ID: testReportID})

	_ = NewService(api, nil).GenerateFix(context.Background(), modal)
	if modal.FixState() != FixNone || modal.FixedCode() != "" {
		t.Errorf("state = %v, code = %q", modal.FixState(), modal.FixedCode())
	}
	if modal.ActionLabel() != "Generate fix" {
		t.Errorf("ActionLabel = %q", modal.ActionLabel())
	}
}

func TestService_GenerateFix_RejectedWhilePending(t *testing.T) {
	api := &mockReportAPI{}
	modal := Open(&model.ReportDetail{ID: testReportID})
	if err := modal.BeginFix(); err != nil {
		t.Fatalf("BeginFix: %v", err)
	}

	err := NewService(api, nil).GenerateFix(context.Background(), modal)
	assertAPIErrorCode(t, err, model.ErrCodeFixInProgress)
	if api.fixCalls != 0 {
		t.Errorf("GenerateFix called %d times, want 0", api.fixCalls)
	}
}

func TestService_GenerateFix_ConcurrentRequestsForSameReport(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &mockReportAPI{
		fixFn: func(ctx context.Context, reportID string) (*model.FixedCode, error) {
			close(entered)
			<-release
			return &model.FixedCode{Code: "fixed"}, nil
		},
	}
	svc := NewService(api, nil)

	done := make(chan error, 1)
	go func() {
		done <- svc.GenerateFix(context.Background(), Open(&model.ReportDetail{ID: testReportID}))
	}()
	<-entered

	second := Open(&model.ReportDetail{ID: testReportID})
	err := svc.GenerateFix(context.Background(), second)
	assertAPIErrorCode(t, err, model.ErrCodeFixInProgress)
	if second.FixState() != FixNone {
		t.Errorf("rejected modal state = %v, want FixNone", second.FixState())
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first GenerateFix: %v", err)
	}

	// 完了後は再び生成できる
	api.fixFn = nil
	if err := svc.GenerateFix(context.Background(), Open(&model.ReportDetail{ID: testReportID})); err != nil {
		t.Errorf("GenerateFix after completion: %v", err)
	}
}

// 上流が応答しなくても上限時間で失敗し、同じレポートの修正を再度生成できる。
func TestService_GenerateFix_TimeoutReleasesReport(t *testing.T) {
	api := &mockReportAPI{
		fixFn: func(ctx context.Context, reportID string) (*model.FixedCode, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := NewService(api, nil).WithTimeout(20 * time.Millisecond)

	modal := Restore(&model.ReportDetail{ID: testReportID}, "old fix")
	err := svc.GenerateFix(context.Background(), modal)
	assertAPIErrorCode(t, err, model.ErrCodeFixFailed)
	if modal.FixedCode() != "old fix" {
		t.Errorf("fixed code = %q, want previous fix kept", modal.FixedCode())
	}

	api.fixFn = nil
	if err := svc.GenerateFix(context.Background(), Open(&model.ReportDetail{ID: testReportID})); err != nil {
		t.Errorf("GenerateFix after timeout: %v", err)
	}
}
