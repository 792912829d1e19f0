package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/humanflow/internal/metrics"
	"github.com/hitoshi/humanflow/internal/middleware"
	"github.com/hitoshi/humanflow/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger         *slog.Logger
	SessionStore   session.Store
	CSRFConfig     middleware.CSRFConfig
	RateLimiter    *middleware.RateLimiter
	MetricsHandler http.Handler
	Metrics        metrics.MetricsCollector

	Renderer *Renderer

	AuthService     AuthServiceInterface
	AnalyzerService AnalyzerServiceInterface
	ReportService   ReportServiceInterface
}

// NewRouter は全ページのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CSRF → [SessionGate] → RateLimit(General) → [RateLimit(Analyze)]
//
// /health, /metrics, /static はCSRFとレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionStore, deps.Renderer)
	analyzerHandler := NewAnalyzerHandler(deps.AnalyzerService, deps.Renderer)
	reportHandler := NewReportHandler(deps.ReportService, deps.Renderer)

	// --- 運用エンドポイント ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", StaticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// --- セッション不要のページ ---
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/", authHandler.Entry)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// --- セッションが必要なページ ---
		// ミドルウェアスタック: SessionGate → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionGate(deps.SessionStore))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("view") == tabHistory {
					reportHandler.History(w, r)
					return
				}
				analyzerHandler.Editor(w, r)
			})

			r.Route("/analyze", func(r chi.Router) {
				// POST /analyze - 解析送信（解析専用レート制限を追加）
				r.With(deps.RateLimiter.AnalyzeMiddleware()).Post("/", analyzerHandler.Analyze)
				r.Post("/upload", analyzerHandler.Upload)
			})

			r.Get("/history", reportHandler.History)

			r.Route("/reports/{id}", func(r chi.Router) {
				r.Get("/", reportHandler.Show)
				r.With(deps.RateLimiter.AnalyzeMiddleware()).Post("/fix", reportHandler.Fix)
			})
		})
	})

	return r
}
