// Package session はブラウザに保持するユーザー識別子の読み書きを提供する。
//
// 保持するのは解析サービスが発行した不透明なユーザーIDひとつだけで、
// 有効期限やサーバー側での検証は行わない。Cookieの値にはHMAC署名を付け、
// 改ざんされた値は「未ログイン」として扱う。
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// CookieName はユーザーIDを保持するCookieの名前。
const CookieName = "humanflow_user_id"

// DefaultMaxAge はCookieのデフォルト有効期間（秒）。ブラウザが許容する上限の400日。
const DefaultMaxAge = 400 * 24 * 60 * 60

// Store はセッション識別子の保存先。
type Store interface {
	Get(r *http.Request) (string, bool)
	Set(w http.ResponseWriter, userID string)
	Clear(w http.ResponseWriter)
}

// CookieConfig はCookieStoreの設定。
type CookieConfig struct {
	Secret string
	Domain string
	Secure bool
	MaxAge int // 0以下の場合はDefaultMaxAge
}

// CookieStore は署名付きCookieにユーザーIDを保存するStore実装。
type CookieStore struct {
	secret []byte
	config CookieConfig
}

// NewCookieStore はCookieStoreを生成する。
func NewCookieStore(config CookieConfig) *CookieStore {
	if config.MaxAge <= 0 {
		config.MaxAge = DefaultMaxAge
	}
	return &CookieStore{
		secret: []byte(config.Secret),
		config: config,
	}
}

// Get はリクエストのCookieからユーザーIDを読み取る。
// Cookieが無い、形式が不正、署名が一致しない場合はfalseを返す。
func (s *CookieStore) Get(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	encodedID, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok {
		return "", false
	}
	rawID, err := base64.RawURLEncoding.DecodeString(encodedID)
	if err != nil || len(rawID) == 0 {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(string(rawID)))) {
		return "", false
	}
	return string(rawID), true
}

// Set はユーザーIDを署名付きでCookieに保存する。
func (s *CookieStore) Set(w http.ResponseWriter, userID string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(userID)) + "." + s.sign(userID)
	http.SetCookie(w, s.cookie(value, s.config.MaxAge))
}

// Clear はCookieを削除する。
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   s.config.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *CookieStore) sign(userID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Session はリクエスト処理中に参照する現在のセッション。
// ゲートミドルウェアだけがコンテキストに格納する。
type Session struct {
	UserID string
}

type contextKey struct{}

// NewContext はセッションを格納したコンテキストを返す。
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext はコンテキストからセッションを取り出す。
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}
