package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hitoshi/humanflow/internal/model"
)

// 操作名。メトリクスとログのラベルに使用する。
const (
	OpCreateUser       = "create_user"
	OpListUsers        = "list_users"
	OpCreateRepository = "create_repository"
	OpAnalyze          = "analyze"
	OpHistory          = "history"
	OpReport           = "report"
	OpGenerateFix      = "generate_fix"
)

// CreateUser はユーザーを登録し、作成されたユーザーを返す。
// POST /users/
func (c *Client) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	var user model.User
	if err := c.Post(ctx, OpCreateUser, "/users/", in, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%s: レスポンスにidが含まれていません", OpCreateUser)
	}
	return &user, nil
}

// ListUsers は登録済みユーザーの一覧を返す。
// GET /users/
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.Get(ctx, OpListUsers, "/users/", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateRepository は解析の参照先となるコンテナを作成する。
// POST /repositories/
func (c *Client) CreateRepository(ctx context.Context, in model.NewRepository) (*model.Repository, error) {
	var repo model.Repository
	if err := c.Post(ctx, OpCreateRepository, "/repositories/", in, &repo); err != nil {
		return nil, err
	}
	if repo.ID == "" {
		return nil, fmt.Errorf("%s: レスポンスにidが含まれていません", OpCreateRepository)
	}
	return &repo, nil
}

// analyzeRequest は解析リクエストのボディ。
type analyzeRequest struct {
	RepositoryID string `json:"repository_id"`
	Code         string `json:"code"`
}

// Analyze はコードを解析サービスに送信し、正規化済みの解析結果を返す。
// POST /analysis/analyze
func (c *Client) Analyze(ctx context.Context, repositoryID, code string) (*model.AnalysisResult, error) {
	var raw analysisEnvelope
	if err := c.Post(ctx, OpAnalyze, "/analysis/analyze", analyzeRequest{
		RepositoryID: repositoryID,
		Code:         code,
	}, &raw); err != nil {
		return nil, err
	}
	result, err := raw.normalize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpAnalyze, err)
	}
	return result, nil
}

// History はユーザーの解析履歴を返す。
// GET /analysis/history/{user_id}
func (c *Client) History(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if err := c.Get(ctx, OpHistory, "/analysis/history/"+url.PathEscape(userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Report はレポート詳細を1件取得する。
// GET /analysis/report/{id}
func (c *Client) Report(ctx context.Context, reportID string) (*model.ReportDetail, error) {
	var detail model.ReportDetail
	if err := c.Get(ctx, OpReport, "/analysis/report/"+url.PathEscape(reportID), &detail); err != nil {
		return nil, err
	}
	if detail.Issues == nil {
		detail.Issues = []string{}
	}
	return &detail, nil
}

// GenerateFix はレポートに対するAI修正コードを生成させる。
// POST /analysis/report/{id}/fix
func (c *Client) GenerateFix(ctx context.Context, reportID string) (*model.FixedCode, error) {
	var fixed model.FixedCode
	if err := c.Post(ctx, OpGenerateFix, "/analysis/report/"+url.PathEscape(reportID)+"/fix", nil, &fixed); err != nil {
		return nil, err
	}
	return &fixed, nil
}
