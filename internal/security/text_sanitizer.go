// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は管理者が入力する自由記述テキストからマークアップを除去する。
// 氏名・方言・強み・推奨事項など、プレーンテキストとして保存する項目に使う。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyでTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize は全てのタグを除去し、前後の空白を取り除いたテキストを返す。
// StrictPolicyがエスケープした文字実体参照は元の文字に戻す。
func (s *TextSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// SanitizeList は各要素をSanitizeし、空になった要素を取り除く。
// 入力がnilまたは全要素が空の場合は空スライスを返す。
func (s *TextSanitizer) SanitizeList(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if v := s.Sanitize(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
