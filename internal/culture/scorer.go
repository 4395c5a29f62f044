package culture

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Level はリスクの段階。
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

const (
	// maxCountedMatches は1ルールあたり加点対象とする一致数の上限。
	maxCountedMatches = 3
	// maxExcerpts は1ルールあたり返す抜粋の上限。
	maxExcerpts = 3
	// excerptContext は抜粋に含める一致箇所前後のバイト数。
	excerptContext = 30
	maxScore       = 100
)

// Finding は1ルールの評価結果。
type Finding struct {
	RuleID       string
	Category     string
	Matches      int
	Contribution int
	Excerpts     []string
	Advice       string
}

// Assessment はドキュメント全体の評価結果。
type Assessment struct {
	Score    int
	Level    Level
	Findings []Finding
}

// Scorer はルールに基づいてテキストを評価する。
type Scorer struct {
	rules []Rule
}

// NewScorer はScorerを生成する。
func NewScorer(rules []Rule) *Scorer {
	return &Scorer{rules: rules}
}

// Score はテキストを評価する。
// 各ルールは weight × min(一致数, 3) を加点し、合計は0〜100に丸める。
// Findingsは加点の大きい順、同点はルールID順に並ぶ。
func (s *Scorer) Score(text string) Assessment {
	findings := make([]Finding, 0)
	total := 0

	for _, rule := range s.rules {
		locs := rule.Pattern.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}

		counted := min(len(locs), maxCountedMatches)
		contribution := rule.Weight * counted
		total += contribution

		findings = append(findings, Finding{
			RuleID:       rule.ID,
			Category:     rule.Category,
			Matches:      len(locs),
			Contribution: contribution,
			Excerpts:     excerpts(text, locs),
			Advice:       rule.Advice,
		})
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Contribution != findings[j].Contribution {
			return findings[i].Contribution > findings[j].Contribution
		}
		return findings[i].RuleID < findings[j].RuleID
	})

	score := max(0, min(total, maxScore))
	return Assessment{
		Score:    score,
		Level:    LevelFor(score),
		Findings: findings,
	}
}

// LevelFor はスコアに対応する段階を返す。
func LevelFor(score int) Level {
	switch {
	case score < 25:
		return LevelLow
	case score < 50:
		return LevelMedium
	case score < 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// excerpts は一致箇所の前後を含む抜粋を重複なしで最大3件返す。
func excerpts(text string, locs [][]int) []string {
	out := make([]string, 0, maxExcerpts)
	seen := make(map[string]bool)
	for _, loc := range locs {
		if len(out) == maxExcerpts {
			break
		}
		start := max(0, loc[0]-excerptContext)
		end := min(len(text), loc[1]+excerptContext)
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}

		ex := strings.Join(strings.Fields(text[start:end]), " ")
		if seen[ex] {
			continue
		}
		seen[ex] = true
		out = append(out, ex)
	}
	return out
}
