// Package culture はドキュメントの文化的リスクをルールベースで評価する。
package culture

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rule は評価ルール1件を表す。
type Rule struct {
	ID       string
	Category string
	Pattern  *regexp.Regexp
	Weight   int
	Advice   string
}

// ruleFile はrules.yamlの構造。
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
	Weight   int    `yaml:"weight"`
	Advice   string `yaml:"advice"`
}

// ParseRules はYAML形式のルール定義を解析する。
// ID重複、空パターン、不正な正規表現、正でない重みはエラーとなる。
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, errors.New("no rules defined")
	}

	seen := make(map[string]bool, len(f.Rules))
	rules := make([]Rule, 0, len(f.Rules))
	for i, e := range f.Rules {
		if e.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("rule %s: duplicate id", e.ID)
		}
		seen[e.ID] = true

		if e.Pattern == "" {
			return nil, fmt.Errorf("rule %s: pattern is required", e.ID)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid pattern: %w", e.ID, err)
		}
		if e.Weight <= 0 {
			return nil, fmt.Errorf("rule %s: weight must be positive", e.ID)
		}

		rules = append(rules, Rule{
			ID:       e.ID,
			Category: e.Category,
			Pattern:  re,
			Weight:   e.Weight,
			Advice:   e.Advice,
		})
	}
	return rules, nil
}

// DefaultRules は組み込みのルール定義を返す。
func DefaultRules() ([]Rule, error) {
	return ParseRules(defaultRulesYAML)
}
