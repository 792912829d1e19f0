// Package model はドメインモデルを定義する。
package model

// User はリモート解析サービスに登録されたユーザーを表す。
// IDはクライアント側では不透明な文字列として扱う。
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// NewUser はユーザー登録リクエストの入力を表す。
type NewUser struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Repository は解析結果が参照する器（コンテナ）レコードを表す。
// 解析1回ごとに1件作成し、再利用しない。
type Repository struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}

// NewRepository はコンテナ作成リクエストの入力を表す。
type NewRepository struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}
