package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/guardlingo/internal/culture"
)

// CultureServiceInterface は文化リスク評価ハンドラーが必要とするサービスインターフェース。
type CultureServiceInterface interface {
	Assess(ctx context.Context, doc culture.Document) (*culture.Assessment, error)
}

// CultureHandler は文化リスク評価のHTTPハンドラー。
type CultureHandler struct {
	service CultureServiceInterface
}

// NewCultureHandler はCultureHandlerを生成する。
func NewCultureHandler(service CultureServiceInterface) *CultureHandler {
	return &CultureHandler{service: service}
}

type assessRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type findingResponse struct {
	RuleID       string   `json:"rule_id"`
	Category     string   `json:"category"`
	Matches      int      `json:"matches"`
	Contribution int      `json:"contribution"`
	Excerpts     []string `json:"excerpts"`
	Advice       string   `json:"advice"`
}

type assessResponse struct {
	Score    int               `json:"score"`
	Level    string            `json:"level"`
	Findings []findingResponse `json:"findings"`
}

// Assess はドキュメントの文化的リスクを評価する。
// POST /api/cultural/assess
func (h *CultureHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Assess(r.Context(), culture.Document{Text: req.Text, URL: req.URL})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := assessResponse{
		Score:    result.Score,
		Level:    string(result.Level),
		Findings: make([]findingResponse, 0, len(result.Findings)),
	}
	for _, f := range result.Findings {
		resp.Findings = append(resp.Findings, findingResponse{
			RuleID:       f.RuleID,
			Category:     f.Category,
			Matches:      f.Matches,
			Contribution: f.Contribution,
			Excerpts:     f.Excerpts,
			Advice:       f.Advice,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
