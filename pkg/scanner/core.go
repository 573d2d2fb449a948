// Package scanner ties the annotation matcher to a session store so that
// long-running callers can scan content piecemeal and ask for the findings
// seen so far.
package scanner

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/praetorian-inc/annotscan/pkg/matcher"
	"github.com/praetorian-inc/annotscan/pkg/rule"
	"github.com/praetorian-inc/annotscan/pkg/store"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

var (
	// cachedBuiltinRules holds builtin rules loaded once per process
	cachedBuiltinRules []*types.Rule
	cachedRulesErr     error
	cacheOnce          sync.Once
)

func loadBuiltinRulesCached() ([]*types.Rule, error) {
	cacheOnce.Do(func() {
		cachedBuiltinRules, cachedRulesErr = rule.NewLoader().LoadBuiltinRules()
	})
	return cachedBuiltinRules, cachedRulesErr
}

// Core wraps the matcher and an in-memory store for scanning sessions.
type Core struct {
	matcher *matcher.AnnotationMatcher
	store   store.Store
	logger  *zap.Logger

	mu sync.Mutex // serializes store writes
}

// Config configures a Core.
type Config struct {
	// Rules to match; nil selects the builtin rules.
	Rules        []*types.Rule
	ContextLines int
	Logger       *zap.Logger
}

// NewCore creates a Core with a fresh in-memory session store.
func NewCore(cfg Config) (*Core, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rules := cfg.Rules
	if rules == nil {
		var err error
		rules, err = loadBuiltinRulesCached()
		if err != nil {
			return nil, fmt.Errorf("loading builtin rules: %w", err)
		}
	}

	m, err := matcher.NewAnnotationMatcher(matcher.Config{
		Rules:        rules,
		ContextLines: cfg.ContextLines,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	s, err := store.New(store.Config{Path: store.MemoryPath})
	if err != nil {
		m.Close()
		return nil, err
	}
	for _, r := range rules {
		if err := s.AddRule(r); err != nil {
			m.Close()
			s.Close()
			return nil, fmt.Errorf("storing rule %s: %w", r.ID, err)
		}
	}

	logger.Debug("scanner core ready", zap.Int("rules", len(rules)))
	return &Core{
		matcher: m,
		store:   s,
		logger:  logger,
	}, nil
}

// Scan scans a single content string and records it in the session.
func (c *Core) Scan(content, source string) (*ScanResult, error) {
	data := []byte(content)
	blobID := types.ComputeBlobID(data)

	matches, err := c.matcher.MatchWithBlobID(data, blobID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added, err := Record(c.store, blobID, int64(len(data)), types.StringProvenance{Name: source}, matches)
	if err != nil {
		return nil, err
	}

	return &ScanResult{
		Source:      source,
		Matches:     matches,
		NewFindings: added,
	}, nil
}

// ScanBatch scans multiple content items. Items that fail to scan are
// logged and skipped.
func (c *Core) ScanBatch(items []ContentItem) (*BatchScanResult, error) {
	results := make([]ScanResult, 0, len(items))
	total := 0

	for _, item := range items {
		res, err := c.Scan(item.Content, item.Source)
		if err != nil {
			c.logger.Warn("skipping item", zap.String("source", item.Source), zap.Error(err))
			continue
		}
		results = append(results, *res)
		total += len(res.Matches)
	}

	return &BatchScanResult{
		Results: results,
		Total:   total,
	}, nil
}

// ParseLine recognizes a single annotation line (without the '@').
func (c *Core) ParseLine(line string) *ParseResult {
	res := &ParseResult{Line: line}
	if r, parsed := c.matcher.ParseLine(line); parsed != nil {
		res.RuleID = r.ID
		res.Parsed = parsed
	}
	return res
}

// Findings returns every finding recorded in this session.
func (c *Core) Findings() ([]*types.Finding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.GetFindings()
}

// Close releases scanner resources
func (c *Core) Close() {
	if c.matcher != nil {
		c.matcher.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// GetBuiltinRules returns the builtin rules (cached).
func GetBuiltinRules() ([]*types.Rule, error) {
	return loadBuiltinRulesCached()
}
