package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/humanflow/internal/model"
)

// UserListVerifier はユーザー一覧を取得してメールアドレスを線形探索するCredentialVerifier。
//
// 解析サービスにはログイン用のエンドポイントが無いため、現状はこの方式しか取れない。
// パスワードは照合しない（サービス側にも照合手段が無い）。全ユーザーの一覧を
// 取得する点も含め、専用の検証エンドポイントができた時点で置き換える前提の実装。
type UserListVerifier struct {
	users UserAPI
}

// NewUserListVerifier はUserListVerifierを生成する。
func NewUserListVerifier(users UserAPI) *UserListVerifier {
	return &UserListVerifier{users: users}
}

// VerifyCredentials はメールアドレスが一致するユーザーを返す。
// 比較は前後の空白を除いた大文字小文字を区別しない一致で行う。
func (v *UserListVerifier) VerifyCredentials(ctx context.Context, email, _ string) (*model.User, error) {
	users, err := v.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	want := strings.TrimSpace(email)
	for i := range users {
		if strings.EqualFold(strings.TrimSpace(users[i].Email), want) {
			return &users[i], nil
		}
	}
	return nil, model.NewUserNotFoundError()
}
