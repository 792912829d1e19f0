// Package auth はユーザー登録とログインの処理を提供する。
// 資格情報の検証はリモート解析サービスに委譲し、このパッケージはフォーム入力の検証と
// 結果のエラー分類のみを行う。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/humanflow/internal/apiclient"
	"github.com/hitoshi/humanflow/internal/model"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// UserAPI はユーザー登録・一覧取得を行う解析サービスAPIの部分集合。
type UserAPI interface {
	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// CredentialVerifier はメールアドレスとパスワードからユーザーを特定する。
// 該当ユーザーがいない場合は *model.APIError (USER_NOT_FOUND) を返す。
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*model.User, error)
}

// RegisterInput はユーザー登録フォームの入力。
// Confirmationが空の場合は確認欄の無いフォームとして扱う。
type RegisterInput struct {
	FullName     string
	Email        string
	Password     string
	Confirmation string
	// HasConfirmation は確認欄がフォームに存在したかどうか。
	HasConfirmation bool
}

// Service は登録・ログインのビジネスロジックを提供する。
type Service struct {
	users    UserAPI
	verifier CredentialVerifier
}

// NewService はServiceを生成する。
func NewService(users UserAPI, verifier CredentialVerifier) *Service {
	return &Service{
		users:    users,
		verifier: verifier,
	}
}

// Register は入力を検証してからユーザーを作成し、作成されたユーザーIDを返す。
// 検証エラーの場合はAPIを呼び出さない。
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := ValidateRegistration(in); err != nil {
		return "", err
	}

	user, err := s.users.CreateUser(ctx, model.NewUser{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	})
	if err != nil {
		slog.Warn("user registration failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to create user: %w",
			model.NewRegistrationFailedError(apiclient.DetailOf(err)))
	}

	slog.Info("user registered", slog.String("user_id", user.ID))
	return user.ID, nil
}

// Login は資格情報を検証し、一致したユーザーのIDを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.NewValidationError("Email is required.")
	}

	user, err := s.verifier.VerifyCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user.ID, nil
}

// ValidateRegistration は登録フォームの入力をローカルで検証する。
func ValidateRegistration(in RegisterInput) error {
	if strings.TrimSpace(in.FullName) == "" {
		return model.NewValidationError("Full name is required.")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return model.NewValidationError("Email is required.")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("Enter a valid email address.")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if in.HasConfirmation && in.Password != in.Confirmation {
		return model.NewValidationError("Passwords do not match.")
	}
	return nil
}
