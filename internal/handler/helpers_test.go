package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/humanflow/internal/analyzer"
	"github.com/hitoshi/humanflow/internal/auth"
	"github.com/hitoshi/humanflow/internal/middleware"
	"github.com/hitoshi/humanflow/internal/model"
	"github.com/hitoshi/humanflow/internal/report"
	"github.com/hitoshi/humanflow/internal/security"
	"github.com/hitoshi/humanflow/internal/session"
)

const (
	testCSRFToken     = "test-csrf-token"
	testSessionSecret = "handler-test-secret"
	testReportID      = "3f2b8c1e-6d4a-4f7b-9a21-5c0e8d7b6a10"
)

// --- モック定義 ---

type mockAuthService struct {
	registerCalls int
	loginCalls    int

	registerFn func(ctx context.Context, in auth.RegisterInput) (string, error)
	loginFn    func(ctx context.Context, email, password string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (string, error) {
	m.registerCalls++
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return "u1", nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	m.loginCalls++
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "u1", nil
}

type mockAnalyzerService struct {
	submitCalls int
	submitFn    func(ctx context.Context, userID string, wf *analyzer.Workflow) error
}

func (m *mockAnalyzerService) Submit(ctx context.Context, userID string, wf *analyzer.Workflow) error {
	m.submitCalls++
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, wf)
	}
	_ = wf.Begin()
	return wf.Succeed(&model.AnalysisResult{Score: 85, Summary: "Looks good.", Issues: []string{}})
}

type mockReportService struct {
	loadHistoryFn func(ctx context.Context, userID string) (*report.HistoryView, error)
	openFn        func(ctx context.Context, reportID string) (*model.ReportDetail, error)
	generateFixFn func(ctx context.Context, modal *report.Modal) error
}

func (m *mockReportService) LoadHistory(ctx context.Context, userID string) (*report.HistoryView, error) {
	if m.loadHistoryFn != nil {
		return m.loadHistoryFn(ctx, userID)
	}
	return &report.HistoryView{State: report.HistoryEmpty}, nil
}

func (m *mockReportService) Open(ctx context.Context, reportID string) (*model.ReportDetail, error) {
	if m.openFn != nil {
		return m.openFn(ctx, reportID)
	}
	return &model.ReportDetail{ID: reportID, RepositoryName: "Analysis 2024-05-01 10:30:00", Issues: []string{}}, nil
}

func (m *mockReportService) GenerateFix(ctx context.Context, modal *report.Modal) error {
	if m.generateFixFn != nil {
		return m.generateFixFn(ctx, modal)
	}
	if err := modal.BeginFix(); err != nil {
		return err
	}
	modal.CompleteFix("print(1)\n")
	return nil
}

// --- ルーター構築ヘルパー ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type testServices struct {
	auth     *mockAuthService
	analyzer *mockAnalyzerService
	reports  *mockReportService
}

func newTestServices() *testServices {
	return &testServices{
		auth:     &mockAuthService{},
		analyzer: &mockAnalyzerService{},
		reports:  &mockReportService{},
	}
}

func newTestStore() *session.CookieStore {
	return session.NewCookieStore(session.CookieConfig{Secret: testSessionSecret})
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(security.NewContentSanitizer())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return renderer
}

func newTestRouterWith(t *testing.T, authSvc AuthServiceInterface, analyzerSvc AnalyzerServiceInterface, reportSvc ReportServiceInterface) http.Handler {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:          discardLogger(),
		SessionStore:    newTestStore(),
		RateLimiter:     rl,
		Renderer:        newTestRenderer(t),
		AuthService:     authSvc,
		AnalyzerService: analyzerSvc,
		ReportService:   reportSvc,
	})
}

func newTestRouter(t *testing.T, svcs *testServices) http.Handler {
	t.Helper()
	return newTestRouterWith(t, svcs.auth, svcs.analyzer, svcs.reports)
}

// --- リクエスト構築ヘルパー ---

// sessionCookie はuserIDを保持する署名済みセッションCookieを返す。
func sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	newTestStore().Set(w, userID)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("session cookies = %d, want 1", len(cookies))
	}
	return cookies[0]
}

func csrfCookie() *http.Cookie {
	return &http.Cookie{Name: "csrf_token", Value: testCSRFToken}
}

func getRequest(target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// postForm はCSRFトークン付きのフォームPOSTリクエストを返す。
func postForm(target string, form url.Values, cookies ...*http.Cookie) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set(middleware.CSRFFieldName, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrfCookie())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// uploadFile はアップロードフォームのmultipartリクエストを返す。
func uploadFile(t *testing.T, code, fileName string, content []byte, cookies ...*http.Cookie) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("code", code); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze/upload?"+middleware.CSRFFieldName+"="+testCSRFToken, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(csrfCookie())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- HTML検査ヘルパー ---

func parsePage(t *testing.T, body io.Reader) *html.Node {
	t.Helper()
	doc, err := html.Parse(body)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func findByID(n *html.Node, id string) *html.Node {
	nodes := findAll(n, func(n *html.Node) bool { return attrOf(n, "id") == id })
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func findByName(n *html.Node, name string) *html.Node {
	nodes := findAll(n, func(n *html.Node) bool { return attrOf(n, "name") == name })
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func findByTag(n *html.Node, tag string) []*html.Node {
	return findAll(n, func(n *html.Node) bool { return n.Data == tag })
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// mustFindByID はidの要素を返す。見つからない場合はテストを失敗させる。
func mustFindByID(t *testing.T, doc *html.Node, id string) *html.Node {
	t.Helper()
	n := findByID(doc, id)
	if n == nil {
		t.Fatalf("element #%s not found", id)
	}
	return n
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func timestamp(s string) model.Timestamp {
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return model.Timestamp{Time: tm}
}
