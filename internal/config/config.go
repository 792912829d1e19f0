package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/humanflow/internal/apiclient"
	"github.com/hitoshi/humanflow/internal/session"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Analysis API
	APIBaseURL string
	APITimeout time.Duration // 0の場合はクライアント側のタイムアウトを設定しない

	// Session
	SessionSecret string
	SessionMaxAge int

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitAnalyze int

	// Logging
	LogLevel string

	// Server
	ServerPort         string
	BaseURL            string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は未設定の変数をまとめてエラーとして返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.APIBaseURL = getEnvString("API_BASE_URL", apiclient.DefaultBaseURL)
	if err := validateHTTPURL(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	cfg.APITimeout = getEnvDuration("API_TIMEOUT", 0)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", session.DefaultMaxAge)
	if cfg.SessionMaxAge <= 0 {
		// 0以下のMax-AgeはCookieの削除になり、ログイン直後にセッションが消える
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: must be positive, got %d", cfg.SessionMaxAge)
	}
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAnalyze = getEnvInt("RATE_LIMIT_ANALYZE", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	// AIによる解析と修正生成は数十秒かかることがある
	cfg.ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	return cfg, nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
