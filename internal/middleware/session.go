// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"net/http"

	"github.com/hitoshi/humanflow/internal/session"
)

// EntryPath はセッションが無い場合のリダイレクト先（登録・ログイン画面）。
const EntryPath = "/"

// NewSessionGate はセッションストアからユーザーIDを読み取り、
// 保護されたページへのアクセスを制御するミドルウェアを返す。
// ユーザーIDが無い場合はエントリー画面へ303でリダイレクトする。
// ユーザーIDの妥当性はサーバー側では検証せず、そのままリクエストコンテキストに注入する。
func NewSessionGate(store session.Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := store.Get(r)
			if !ok {
				http.Redirect(w, r, EntryPath, http.StatusSeeOther)
				return
			}

			setLogUserID(r.Context(), userID)
			ctx := session.NewContext(r.Context(), session.Session{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
