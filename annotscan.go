// Package annotscan finds Symfony validator annotations in PHP docblocks.
//
// # Basic Usage
//
// Create a scanner with the builtin rules and scan content:
//
//	scanner, err := annotscan.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scanner.Close()
//
//	matches, err := scanner.ScanFile("src/Entity/User.php")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, match := range matches {
//	    fmt.Printf("%s at line %d\n", match.QualifiedName, match.Location.Source.Start.Line)
//	}
//
// # Single Lines
//
// ParseLine runs the recognizers on one annotation line, without the
// leading '@':
//
//	rule, parsed := scanner.ParseLine(`Assert\Regex("/^\w+/")`)
//	if parsed != nil {
//	    fmt.Println(rule.ID, parsed.Description)
//	}
package annotscan

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/praetorian-inc/annotscan/pkg/matcher"
	"github.com/praetorian-inc/annotscan/pkg/rule"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

// Re-export commonly used types for convenience.
type (
	// Match is one recognized annotation.
	Match = types.Match

	// Rule defines one annotation type.
	Rule = types.Rule

	// ParsedLine is the result of recognizing a single annotation line.
	ParsedLine = types.ParsedLine

	// Location describes where a match was found within content.
	Location = types.Location

	// Snippet contains the annotation with surrounding context.
	Snippet = types.Snippet
)

// Scanner recognizes annotations in PHP source.
type Scanner struct {
	matcher *matcher.AnnotationMatcher
	config  *scannerConfig
	mu      sync.RWMutex
}

type scannerConfig struct {
	rules        []*types.Rule
	contextLines int
	dedupe       matcher.DedupeMode
	logger       *zap.Logger
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithRules uses custom rules instead of the builtin Symfony validators.
func WithRules(rules []*Rule) Option {
	return func(c *scannerConfig) {
		c.rules = rules
	}
}

// WithContextLines sets the number of context lines to include around matches.
// Default is 2 lines before and after.
func WithContextLines(lines int) Option {
	return func(c *scannerConfig) {
		c.contextLines = lines
	}
}

// WithDedupe selects how repeated annotations within one blob collapse.
func WithDedupe(mode matcher.DedupeMode) Option {
	return func(c *scannerConfig) {
		c.dedupe = mode
	}
}

// WithLogger sets the logger. Scanners log nothing by default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *scannerConfig) {
		c.logger = logger
	}
}

// NewScanner creates a new Scanner with the given options.
//
// By default, the scanner:
//   - Uses the builtin Symfony validator rules
//   - Includes 2 lines of context around matches
//   - Deduplicates matches by location
func NewScanner(opts ...Option) (*Scanner, error) {
	config := &scannerConfig{
		contextLines: 2,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.rules == nil {
		rules, err := LoadBuiltinRules()
		if err != nil {
			return nil, fmt.Errorf("loading builtin rules: %w", err)
		}
		config.rules = rules
	}

	m, err := matcher.NewAnnotationMatcher(matcher.Config{
		Rules:        config.rules,
		ContextLines: config.contextLines,
		Dedupe:       config.dedupe,
		Logger:       config.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}

	return &Scanner{
		matcher: m,
		config:  config,
	}, nil
}

// ScanString scans a string and returns all matches.
func (s *Scanner) ScanString(content string) ([]*Match, error) {
	return s.ScanBytes([]byte(content))
}

// ScanBytes scans raw bytes and returns all matches in content order.
func (s *Scanner) ScanBytes(content []byte) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.matcher == nil {
		return nil, fmt.Errorf("scanner is closed")
	}
	return s.matcher.Match(content)
}

// ScanFile reads and scans a file.
func (s *Scanner) ScanFile(path string) ([]*Match, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.ScanBytes(content)
}

// ParseLine recognizes a single annotation line. It returns nil, nil when
// no rule matches.
func (s *Scanner) ParseLine(line string) (*Rule, *ParsedLine) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.matcher == nil {
		return nil, nil
	}
	return s.matcher.ParseLine(line)
}

// Close releases scanner resources. Scans after Close fail.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matcher == nil {
		return nil
	}
	err := s.matcher.Close()
	s.matcher = nil
	return err
}

// RuleCount returns the number of rules loaded.
func (s *Scanner) RuleCount() int {
	return len(s.config.rules)
}

// Rules returns a copy of the loaded rules.
func (s *Scanner) Rules() []*Rule {
	rules := make([]*Rule, len(s.config.rules))
	copy(rules, s.config.rules)
	return rules
}

// LoadRulesFromFile loads rules from a YAML file or a directory of them.
// Use this with WithRules to create a scanner with custom rules.
func LoadRulesFromFile(path string) ([]*Rule, error) {
	return rule.NewLoader().LoadRulesPath(path)
}

// LoadBuiltinRules returns the builtin Symfony validator rules.
//
// Example:
//
//	rules, err := annotscan.LoadBuiltinRules()
//	if err != nil {
//	    return err
//	}
//
//	rules, err = rule.Filter(rules, rule.FilterConfig{Include: []string{`\.regex$`}})
//	scanner, err := annotscan.NewScanner(annotscan.WithRules(rules))
func LoadBuiltinRules() ([]*Rule, error) {
	return rule.NewLoader().LoadBuiltinRules()
}
