package culture

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/guardlingo/internal/security"
)

// ErrUnsupportedContentType は評価できない形式のドキュメントであることを表す。
var ErrUnsupportedContentType = errors.New("unsupported content type")

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// Fetcher はURLで指定されたドキュメントを取得しテキスト化する。
type Fetcher struct {
	guard   SSRFValidator
	timeout time.Duration
	maxSize int64
}

// NewFetcher はFetcherを生成する。
func NewFetcher(guard SSRFValidator, timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		guard:   guard,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// FetchText はドキュメントを取得し評価用のテキストを返す。
// HTMLは表示テキストを抽出し、プレーンテキストはそのまま返す。
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if err := f.guard.ValidateURL(rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "guardlingo/1.0 (+cultural-assessment)")
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")

	client := f.guard.NewSafeClient(f.timeout)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := security.ReadLimited(resp.Body, f.maxSize)
	if err != nil {
		return "", err
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	}

	switch strings.ToLower(mediaType) {
	case "text/html", "application/xhtml+xml":
		return ExtractText(body), nil
	case "text/plain", "text/markdown", "":
		return string(body), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)
	}
}
