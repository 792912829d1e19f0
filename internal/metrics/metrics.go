// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// APIクライアントやサービス層から利用する。
type MetricsCollector interface {
	RecordUpstreamCall(operation string, statusCode int, duration time.Duration)
	RecordAnalysis(outcome string)
	RecordFix(outcome string)
	RecordPageStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	analyses        *prometheus.CounterVec
	fixes           *prometheus.CounterVec
	pageStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "humanflow_upstream_calls_total",
			Help: "解析サービスへのAPI呼び出し数（操作・ステータス別）",
		}, []string{"operation", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "humanflow_upstream_latency_seconds",
			Help:    "解析サービスへのAPI呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "humanflow_analyses_total",
			Help: "コード解析の送信数（結果別）",
		}, []string{"outcome"}),
		fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "humanflow_fixes_total",
			Help: "自動修正の生成数（結果別）",
		}, []string{"outcome"}),
		pageStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "humanflow_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.upstreamCalls,
		c.upstreamLatency,
		c.analyses,
		c.fixes,
		c.pageStatus,
	)

	return c
}

// RecordUpstreamCall は解析サービスへの呼び出し結果を記録する。
// 通信エラーでステータスが得られない場合はstatusCodeに0を渡す。
func (c *Collector) RecordUpstreamCall(operation string, statusCode int, duration time.Duration) {
	c.upstreamCalls.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	c.upstreamLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAnalysis は解析ワークフローの結果を記録する。
func (c *Collector) RecordAnalysis(outcome string) {
	c.analyses.WithLabelValues(outcome).Inc()
}

// RecordFix は自動修正の結果を記録する。
func (c *Collector) RecordFix(outcome string) {
	c.fixes.WithLabelValues(outcome).Inc()
}

// RecordPageStatus はページレスポンスのHTTPステータスコードを記録する。
func (c *Collector) RecordPageStatus(statusCode int) {
	c.pageStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordUpstreamCall(string, int, time.Duration) {}
func (Nop) RecordAnalysis(string)                         {}
func (Nop) RecordFix(string)                              {}
func (Nop) RecordPageStatus(int)                          {}
