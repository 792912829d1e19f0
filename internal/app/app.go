package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/hitoshi/humanflow/internal/analyzer"
	"github.com/hitoshi/humanflow/internal/apiclient"
	"github.com/hitoshi/humanflow/internal/auth"
	"github.com/hitoshi/humanflow/internal/config"
	"github.com/hitoshi/humanflow/internal/handler"
	"github.com/hitoshi/humanflow/internal/logger"
	"github.com/hitoshi/humanflow/internal/metrics"
	"github.com/hitoshi/humanflow/internal/middleware"
	"github.com/hitoshi/humanflow/internal/report"
	"github.com/hitoshi/humanflow/internal/security"
	"github.com/hitoshi/humanflow/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	level := new(slog.LevelVar)
	logger.SetupDefault(w, level)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルに切り替える
	level.Set(logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s/health", port))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg)
}

// server はHTTPサーバーとその停止処理をまとめたもの。
type server struct {
	http    *http.Server
	limiter *middleware.RateLimiter
}

// newServer は全依存関係をワイヤリングしてHTTPサーバーを構築する。
func newServer(cfg *config.Config) (*server, error) {
	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. 解析サービスのクライアント
	client := apiclient.NewClient(
		&http.Client{Timeout: cfg.APITimeout},
		cfg.APIBaseURL,
		slog.Default(),
		collector,
	)

	// 3. セッションとセキュリティ
	store := session.NewCookieStore(session.CookieConfig{
		Secret: cfg.SessionSecret,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionMaxAge,
	})
	renderer, err := handler.NewRenderer(security.NewContentSanitizer())
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// 4. ドメインサービス
	authService := auth.NewService(client, auth.NewUserListVerifier(client))
	// 書き込みタイムアウトを過ぎた応答はクライアントに届かないため、上流の待ち時間も同じ長さで打ち切る
	analyzerService := analyzer.NewService(client, nil, collector).WithTimeout(cfg.ServerWriteTimeout)
	reportService := report.NewService(client, collector).WithTimeout(cfg.ServerWriteTimeout)

	// 5. ルーター
	limiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:       slog.Default(),
		SessionStore: store,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:    limiter,
		MetricsHandler: metrics.Handler(registry),
		Metrics:        collector,

		Renderer: renderer,

		AuthService:     authService,
		AnalyzerService: analyzerService,
		ReportService:   reportService,
	})

	return &server{
		http: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      router,
			ReadTimeout:  cfg.ServerReadTimeout,
			WriteTimeout: cfg.ServerWriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		limiter: limiter,
	}, nil
}

// rateLimiterConfig は設定のreq/min値をレートリミッターのreq/secに変換する。
// バーストは1分間の許容量と同じにする。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rl.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rl.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitAnalyze > 0 {
		rl.AnalyzeRate = rate.Limit(float64(cfg.RateLimitAnalyze) / 60.0)
		rl.AnalyzeBurst = cfg.RateLimitAnalyze
	}
	return rl
}

// runServe はWebサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	srv, err := newServer(cfg)
	if err != nil {
		return err
	}
	defer srv.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server starting",
			slog.String("addr", srv.http.Addr),
		)
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down web server...")

	// 実行中の解析を待つため書き込みタイムアウトと同じ猶予を与える
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerWriteTimeout)
	defer cancel()

	if err := srv.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
