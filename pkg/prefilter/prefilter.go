// Package prefilter narrows the rules worth running against a line.
package prefilter

import (
	"sort"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

// Prefilter finds rule keywords in text with a single Aho-Corasick pass.
// Every annotation rule is keyed by its identifier, so a line that does not
// contain "Regex" anywhere never reaches the Regex recognizer.
type Prefilter struct {
	matcher      *ahocorasick.Matcher
	keywords     []string                 // keyword at each matcher index
	keywordRules map[string][]*types.Rule // keyword -> rules guarded by it
	alwaysRules  []*types.Rule            // rules without keywords
	order        map[*types.Rule]int      // position in the input slice
}

// New builds a prefilter over rules. Filter results follow this order.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		keywordRules: make(map[string][]*types.Rule),
		order:        make(map[*types.Rule]int, len(rules)),
	}

	for i, rule := range rules {
		pf.order[rule] = i

		keywords := rule.PrefilterKeywords()
		if len(keywords) == 0 {
			pf.alwaysRules = append(pf.alwaysRules, rule)
			continue
		}
		for _, keyword := range keywords {
			if _, seen := pf.keywordRules[keyword]; !seen {
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordRules[keyword] = append(pf.keywordRules[keyword], rule)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the rules whose keywords occur in content, plus rules
// without keywords, in input order.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	result := make([]*types.Rule, 0, len(pf.alwaysRules)+1)
	result = append(result, pf.alwaysRules...)

	if pf.matcher == nil {
		return result
	}

	seen := make(map[*types.Rule]bool, len(result))
	for _, rule := range result {
		seen[rule] = true
	}

	hits := pf.matcher.Match(content)
	for _, hit := range hits {
		for _, rule := range pf.keywordRules[pf.keywords[hit]] {
			if !seen[rule] {
				seen[rule] = true
				result = append(result, rule)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return pf.order[result[i]] < pf.order[result[j]]
	})
	return result
}

// FilterString is Filter for string input.
func (pf *Prefilter) FilterString(content string) []*types.Rule {
	return pf.Filter([]byte(content))
}
