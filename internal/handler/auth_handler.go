package handler

import (
	"net/http"

	"github.com/hitoshi/humanflow/internal/auth"
	"github.com/hitoshi/humanflow/internal/model"
	"github.com/hitoshi/humanflow/internal/session"
)

const (
	modeRegister = "register"
	modeLogin    = "login"

	dashboardPath = "/dashboard"
)

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	store    session.Store
	renderer *Renderer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, store session.Store, renderer *Renderer) *AuthHandler {
	return &AuthHandler{
		service:  service,
		store:    store,
		renderer: renderer,
	}
}

// Entry は登録・ログインフォームを表示する。
// GET /?mode=register|login
// セッションがある場合はダッシュボードへリダイレクトする。
func (h *AuthHandler) Entry(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.store.Get(r); ok {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}

	mode := modeRegister
	if r.URL.Query().Get("mode") == modeLogin {
		mode = modeLogin
	}
	h.renderEntry(w, r, http.StatusOK, &EntryPage{Mode: mode})
}

// Register はユーザー登録を行う。
// POST /register
// 成功時はユーザーIDをセッションに保存してダッシュボードへ303でリダイレクトする。
// 失敗時はパスワード以外の入力を保持したままフォームを再表示する。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := auth.RegisterInput{
		FullName:        r.PostFormValue("full_name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		Confirmation:    r.PostFormValue("confirm_password"),
		HasConfirmation: formHasField(r, "confirm_password"),
	}

	userID, err := h.service.Register(r.Context(), in)
	if err != nil {
		apiErr := asAPIError(err, model.NewRegistrationFailedError(""))
		logAPIError(r, "registration rejected", apiErr)
		h.renderEntry(w, r, statusForError(apiErr), &EntryPage{
			Mode:        modeRegister,
			FullName:    in.FullName,
			Email:       in.Email,
			Error:       apiErr.Message,
			ErrorAction: apiErr.Action,
		})
		return
	}

	h.store.Set(w, userID)
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Login はメールアドレスでユーザーを特定してセッションを開始する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	userID, err := h.service.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		apiErr := asAPIError(err, model.NewLoginFailedError())
		logAPIError(r, "login rejected", apiErr)
		h.renderEntry(w, r, statusForError(apiErr), &EntryPage{
			Mode:        modeLogin,
			Email:       email,
			Error:       apiErr.Message,
			ErrorAction: apiErr.Action,
		})
		return
	}

	h.store.Set(w, userID)
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Logout はセッションを破棄してエントリー画面へリダイレクトする。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) renderEntry(w http.ResponseWriter, r *http.Request, status int, p *EntryPage) {
	title := "Create account"
	if p.Mode == modeLogin {
		title = "Log in"
	}
	p.Page = newPage(r, title, "")
	p.MinPasswordLength = auth.MinPasswordLength
	h.renderer.Render(w, status, pageEntry, p)
}

// formHasField はフォームにフィールドが送信されたかどうかを返す。
func formHasField(r *http.Request, name string) bool {
	if err := r.ParseForm(); err != nil {
		return false
	}
	_, ok := r.PostForm[name]
	return ok
}
