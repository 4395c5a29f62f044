package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/guardlingo/internal/model"
)

// gotruePageSize は管理APIの一覧取得で1ページあたりに要求する件数。
const gotruePageSize = 200

// gotrueMaxPages は一覧取得で読み進める最大ページ数。
const gotrueMaxPages = 500

// GoTrueConfig はGoTrue互換認証サービスの接続設定。
type GoTrueConfig struct {
	BaseURL    string // 例: https://project.example.com/auth/v1
	ServiceKey string // 管理API用のサービスロールキー
	HTTPClient *http.Client

	// GET/DELETEが429や5xxを返した場合のリトライ設定（0はデフォルト）
	MaxAttempts  int
	RetryBackoff time.Duration
}

// GoTrueClient はGoTrue互換の管理APIを使うBackend実装。
type GoTrueClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	retry      retryPolicy
}

// NewGoTrueClient はGoTrueClientを生成する。
func NewGoTrueClient(config GoTrueConfig) *GoTrueClient {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoTrueClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		serviceKey: config.ServiceKey,
		httpClient: client,
		retry:      newRetryPolicy(config.MaxAttempts, config.RetryBackoff),
	}
}

// gotrueUser は管理APIが返すユーザー表現。
type gotrueUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (u gotrueUser) toIdentity() model.Identity {
	return model.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Confirmed: u.EmailConfirmedAt != nil,
		CreatedAt: u.CreatedAt,
	}
}

// gotrueError はGoTrueのエラーレスポンス。バージョンによってフィールド名が異なる。
type gotrueError struct {
	Code        int    `json:"code"`
	ErrorCode   string `json:"error_code"`
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	ErrorString string `json:"error"`
	Description string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.Description, e.ErrorString} {
		if s != "" {
			return s
		}
	}
	return ""
}

// CreateIdentity は管理APIでアカウントを作成する。
func (c *GoTrueClient) CreateIdentity(ctx context.Context, email, password string, confirmed bool) (*model.Identity, error) {
	payload := map[string]interface{}{
		"email":         NormalizeEmail(email),
		"password":      password,
		"email_confirm": confirmed,
	}

	var user gotrueUser
	status, apiErr, err := c.do(ctx, http.MethodPost, "/admin/users", payload, &user)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		ident := user.toIdentity()
		return &ident, nil
	}
	if isDuplicateEmail(status, apiErr) {
		return nil, ErrDuplicateEmail
	}
	return nil, fmt.Errorf("gotrue create user failed with status %d: %s", status, apiErr.text())
}

// DeleteIdentity は管理APIでアカウントを削除する。
func (c *GoTrueClient) DeleteIdentity(ctx context.Context, id string) error {
	status, apiErr, err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrIdentityNotFound
	default:
		return fmt.Errorf("gotrue delete user failed with status %d: %s", status, apiErr.text())
	}
}

// ListIdentities は管理APIから全ページを取得して返す。
// サーバーがper_pageを小さく丸める場合があるため、空ページが返るまで読み進める。
// pageを無視して同じ内容を返すサーバーでは、新しいIDが増えなくなった時点で打ち切る。
func (c *GoTrueClient) ListIdentities(ctx context.Context) ([]model.Identity, error) {
	identities := []model.Identity{}
	seen := make(map[string]bool)
	for page := 1; page <= gotrueMaxPages; page++ {
		var resp struct {
			Users []gotrueUser `json:"users"`
		}
		path := fmt.Sprintf("/admin/users?page=%d&per_page=%d", page, gotruePageSize)
		status, apiErr, err := c.do(ctx, http.MethodGet, path, nil, &resp)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("gotrue list users failed with status %d: %s", status, apiErr.text())
		}

		added := 0
		for _, u := range resp.Users {
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			identities = append(identities, u.toIdentity())
			added++
		}
		if added == 0 {
			return identities, nil
		}
	}
	return nil, fmt.Errorf("gotrue list users exceeded %d pages", gotrueMaxPages)
}

// FindByEmail は一覧からメールアドレスが一致するアカウントを探す。
// 管理APIにメールアドレス検索がないため全件走査する。
func (c *GoTrueClient) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	identities, err := c.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	target := NormalizeEmail(email)
	for i := range identities {
		if NormalizeEmail(identities[i].Email) == target {
			return &identities[i], nil
		}
	}
	return nil, nil
}

// VerifyPassword はパスワードグラントでトークンを取得し、資格情報を検証する。
func (c *GoTrueClient) VerifyPassword(ctx context.Context, email, password string) (*model.Identity, error) {
	payload := map[string]string{
		"email":    NormalizeEmail(email),
		"password": password,
	}

	var resp struct {
		AccessToken string     `json:"access_token"`
		User        gotrueUser `json:"user"`
	}
	status, apiErr, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", payload, &resp)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		if resp.User.ID == "" {
			return nil, fmt.Errorf("empty user in token response")
		}
		ident := resp.User.toIdentity()
		return &ident, nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("gotrue token request failed with status %d: %s", status, apiErr.text())
	}
}

// do はリクエストを送信し、2xxの場合はoutにデコードする。
// 2xx以外の場合はエラーレスポンスを返し、errはnilとする。
// GET/DELETEは一時的な障害（429/5xx・通信エラー）で指数バックオフしながらリトライする。
func (c *GoTrueClient) do(ctx context.Context, method, path string, body, out interface{}) (int, gotrueError, error) {
	var payload []byte
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, gotrueError{}, fmt.Errorf("failed to encode request: %w", err)
		}
		payload = buf
	}

	attempts := 1
	if isIdempotent(method) {
		attempts = c.retry.maxAttempts
	}

	var (
		status int
		apiErr gotrueError
		err    error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if waitErr := c.retry.wait(ctx, attempt-1); waitErr != nil {
				break
			}
			slog.Debug("retrying gotrue request",
				slog.String("method", method),
				slog.Int("attempt", attempt+1),
				slog.Int("last_status", status),
			)
		}

		status, apiErr, err = c.send(ctx, method, path, payload, out)
		if err == nil && classifyStatus(status) == responseDone {
			return status, apiErr, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return status, apiErr, err
}

// send はリクエストを1回送信する。
func (c *GoTrueClient) send(ctx context.Context, method, path string, payload []byte, out interface{}) (int, gotrueError, error) {
	var apiErr gotrueError

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, apiErr, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apiErr, fmt.Errorf("gotrue request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, apiErr, fmt.Errorf("failed to read gotrue response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return 0, apiErr, fmt.Errorf("failed to parse gotrue response: %w", err)
			}
		}
		return resp.StatusCode, apiErr, nil
	}

	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &apiErr); err != nil {
			apiErr.Msg = string(respBody)
		}
	}
	return resp.StatusCode, apiErr, nil
}

// isDuplicateEmail はGoTrueのエラーがメールアドレス重複を示すか判定する。
func isDuplicateEmail(status int, apiErr gotrueError) bool {
	if apiErr.ErrorCode == "email_exists" || apiErr.ErrorCode == "user_already_exists" {
		return true
	}
	if status != http.StatusUnprocessableEntity && status != http.StatusBadRequest && status != http.StatusConflict {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.text()), "already")
}

// compile-time interface check
var _ Backend = (*GoTrueClient)(nil)
