package identity

import (
	"context"
	"net/http"
	"time"
)

// responseClass はGoTrue応答のステータスコードによる分類。
type responseClass int

const (
	// responseDone はリトライ不要（成功またはリトライしても結果が変わらない応答）。
	responseDone responseClass = iota
	// responseRetry は一時的な障害を示す応答（429/5xx）。
	responseRetry
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 200 * time.Millisecond
	maxRetryBackoff     = 2 * time.Second
)

// retryPolicy は冪等なリクエストのリトライ設定。
type retryPolicy struct {
	maxAttempts int
	backoff     time.Duration
}

func newRetryPolicy(maxAttempts int, backoff time.Duration) retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return retryPolicy{maxAttempts: maxAttempts, backoff: backoff}
}

// classifyStatus はHTTPステータスコードをリトライ要否に分類する。
func classifyStatus(statusCode int) responseClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return responseRetry
	case statusCode >= 500:
		return responseRetry
	default:
		return responseDone
	}
}

// isIdempotent はリトライしてよいメソッドかを返す。
// アカウント作成とトークン発行（POST）は二重実行を避けるためリトライしない。
func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodDelete
}

// delay はattempt回目（0始まり）の失敗後の待機時間を返す。
// 2倍ずつ増加し、maxRetryBackoffで頭打ちにする。
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.backoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return d
}

// wait はattempt回目の待機を行う。コンテキストがキャンセルされた場合はそのエラーを返す。
func (p retryPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
