// Package apiclient はリモート解析サービスのHTTPクライアントを提供する。
// 業務ロジックは持たず、JSONの送受信とエラー変換のみを担当する。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/humanflow/internal/metrics"
)

// DefaultBaseURL は解析サービスAPIのデフォルトのベースURL。
const DefaultBaseURL = "http://localhost:8000/api/v1"

// maxErrorBodySize はエラーレスポンスから読み取る最大バイト数。
const maxErrorBodySize = 64 << 10

// HTTPError は解析サービスが2xx以外のステータスを返したことを表す。
// Detailにはサーバーが返したdetailメッセージ（存在する場合）が入る。
type HTTPError struct {
	Operation  string
	StatusCode int
	Detail     string
}

// Error はerrorインターフェースを実装する。
func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: 解析サービスがステータス %d を返しました: %s", e.Operation, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: 解析サービスがステータス %d を返しました", e.Operation, e.StatusCode)
}

// DetailOf はエラーチェーンからHTTPErrorのdetailメッセージを取り出す。
// HTTPErrorを含まない場合は空文字列を返す。
func DetailOf(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Detail
	}
	return ""
}

// IsNotFound はエラーが404レスポンスに由来するかを判定する。
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// Client は解析サービスAPIのクライアント。
// リトライは行わず、失敗はすべて呼び出し元に返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。collectorがnilの場合は記録しない。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, collector metrics.MetricsCollector) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Get はベースURL配下のpathにGETリクエストを送り、レスポンスJSONをoutにデコードする。
func (c *Client) Get(ctx context.Context, operation, path string, out any) error {
	return c.do(ctx, operation, http.MethodGet, path, nil, out)
}

// Post はinをJSONとしてpathにPOSTし、レスポンスJSONをoutにデコードする。
// inがnilの場合はボディなしで送信する。
func (c *Client) Post(ctx context.Context, operation, path string, in, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, operation, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: リクエストJSONの生成に失敗しました: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	// HTTPリクエスト作成
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: HTTPリクエストの作成に失敗しました: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// HTTPリクエスト実行
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall(operation, 0, time.Since(start))
		c.logger.Error("解析サービスの呼び出しに失敗しました",
			slog.String("operation", operation),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamCall(operation, resp.StatusCode, time.Since(start))

	// HTTPステータスチェック
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
		c.logger.Error("解析サービスがエラーステータスを返しました",
			slog.String("operation", operation),
			slog.Int("http_status", resp.StatusCode),
			slog.String("detail", httpErr.Detail),
		)
		return httpErr
	}

	if out == nil {
		return nil
	}

	// JSONデコード
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("解析サービスのレスポンスのパースに失敗しました",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s: レスポンスJSONのパースに失敗しました: %w", operation, err)
	}

	return nil
}

// readDetail はエラーレスポンスボディから {"detail": "..."} 形式のメッセージを取り出す。
// detailが文字列でない場合（バリデーションエラーの配列など）は空文字列を返す。
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
