package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// FilterConfig specifies include and exclude patterns for rule filtering.
// A pattern selects a rule when it matches the rule ID or the annotation name.
type FilterConfig struct {
	Include []string
	Exclude []string
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include then exclude patterns to rules.
// Empty include means "include all". Rule order is preserved.
// Returns error if any pattern is invalid regex.
func Filter(rules []*types.Rule, config FilterConfig) ([]*types.Rule, error) {
	if len(rules) == 0 {
		return rules, nil
	}

	include, err := compilePatterns(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.Rule, 0, len(rules))
	for _, r := range rules {
		if len(include) > 0 && !selects(r, include) {
			continue
		}
		if selects(r, exclude) {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func selects(r *types.Rule, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(r.ID) || re.MatchString(r.Name) {
			return true
		}
	}
	return false
}
