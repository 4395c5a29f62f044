package culture

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/guardlingo/internal/model"
	"github.com/hitoshi/guardlingo/internal/security"
)

// MaxTextRunes は評価対象テキストの最大文字数。
const MaxTextRunes = 100000

// TextFetcher はURLからテキストを取得するインターフェース。
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// Recorder は評価結果をメトリクスとして記録する。
type Recorder interface {
	RecordRiskAssessment(level string)
}

// Document は評価対象の指定。TextとURLのどちらか一方のみを指定する。
type Document struct {
	Text string
	URL  string
}

// Service は文化リスク評価のサービス層。
type Service struct {
	scorer   *Scorer
	fetcher  TextFetcher
	recorder Recorder
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(scorer *Scorer, fetcher TextFetcher, recorder Recorder) *Service {
	return &Service{
		scorer:   scorer,
		fetcher:  fetcher,
		recorder: recorder,
	}
}

// Assess はドキュメントを評価する。
// URL指定の場合はドキュメントを取得してから評価する。
func (s *Service) Assess(ctx context.Context, doc Document) (*Assessment, error) {
	text := strings.TrimSpace(doc.Text)
	rawURL := strings.TrimSpace(doc.URL)

	switch {
	case text == "" && rawURL == "":
		return nil, model.NewInvalidDocumentError("text or url is required")
	case text != "" && rawURL != "":
		return nil, model.NewInvalidDocumentError("text and url cannot both be set")
	}

	if rawURL != "" {
		fetched, err := s.fetcher.FetchText(ctx, rawURL)
		if err != nil {
			return nil, s.fetchError(rawURL, err)
		}
		text = fetched
	}

	if utf8.RuneCountInString(text) > MaxTextRunes {
		return nil, model.NewInvalidDocumentError("text exceeds 100000 characters")
	}

	assessment := s.scorer.Score(text)
	if s.recorder != nil {
		s.recorder.RecordRiskAssessment(string(assessment.Level))
	}

	slog.Info("cultural assessment completed",
		slog.Int("score", assessment.Score),
		slog.String("level", string(assessment.Level)),
		slog.Int("findings", len(assessment.Findings)),
	)

	return &assessment, nil
}

// fetchError は取得エラーをAPIエラーに変換する。
func (s *Service) fetchError(rawURL string, err error) error {
	slog.Warn("document fetch failed",
		slog.String("url", rawURL),
		slog.String("error", err.Error()),
	)

	switch {
	case errors.Is(err, security.ErrBlockedURL):
		return model.NewSSRFBlockedError()
	case errors.Is(err, security.ErrResponseTooLarge):
		return model.NewDocumentFetchFailedError("document is too large")
	case errors.Is(err, ErrUnsupportedContentType):
		return model.NewDocumentFetchFailedError("document must be HTML or plain text")
	default:
		return model.NewDocumentFetchFailedError("document could not be retrieved")
	}
}
