package annotation

import (
	"fmt"
	"sync"

	"github.com/praetorian-inc/annotscan/pkg/prefilter"
	"github.com/praetorian-inc/annotscan/pkg/rule"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

// Registry dispatches a line to the recognizers of a rule set.
// It is safe for concurrent use once built.
type Registry struct {
	rules   []*types.Rule
	parsers map[*types.Rule]*TypedParser
	byName  map[string]*TypedParser
	filter  *prefilter.Prefilter
}

// NewRegistry compiles one recognizer per rule.
func NewRegistry(rules []*types.Rule) (*Registry, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules provided")
	}

	reg := &Registry{
		rules:   rules,
		parsers: make(map[*types.Rule]*TypedParser, len(rules)),
		byName:  make(map[string]*TypedParser, len(rules)),
		filter:  prefilter.New(rules),
	}

	for _, r := range rules {
		p, ok := reg.byName[r.Name]
		if !ok {
			var err error
			p, err = NewTypedParser(r.Name)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.ID, err)
			}
			reg.byName[r.Name] = p
		}
		reg.parsers[r] = p
	}

	return reg, nil
}

// Parse implements LineParser.
func (reg *Registry) Parse(line string) *types.ParsedLine {
	_, parsed := reg.ParseRule(line)
	return parsed
}

// ParseRule returns the first rule, in rule order, whose recognizer accepts line.
func (reg *Registry) ParseRule(line string) (*types.Rule, *types.ParsedLine) {
	for _, r := range reg.filter.FilterString(line) {
		if parsed := reg.parsers[r].Parse(line); parsed != nil {
			return r, parsed
		}
	}
	return nil, nil
}

// Parser returns the recognizer for an annotation identifier.
func (reg *Registry) Parser(name string) (LineParser, bool) {
	p, ok := reg.byName[name]
	return p, ok
}

// Rules returns a copy of the registry's rules.
func (reg *Registry) Rules() []*types.Rule {
	out := make([]*types.Rule, len(reg.rules))
	copy(out, reg.rules)
	return out
}

var (
	defaultRegistry *Registry
	defaultErr      error
	defaultOnce     sync.Once
)

// Default returns the registry over the builtin Symfony validator rules.
// It is built once per process.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		rules, err := rule.NewLoader().LoadBuiltinRules()
		if err != nil {
			defaultErr = fmt.Errorf("loading builtin rules: %w", err)
			return
		}
		defaultRegistry, defaultErr = NewRegistry(rules)
	})
	return defaultRegistry, defaultErr
}
