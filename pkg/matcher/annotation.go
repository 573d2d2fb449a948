package matcher

import (
	"fmt"

	"github.com/praetorian-inc/annotscan/pkg/annotation"
	"github.com/praetorian-inc/annotscan/pkg/types"
	"go.uber.org/zap"
)

// AnnotationMatcher runs an annotation registry over the docblocks of PHP
// source. Recognizers are compiled once and are read-only afterwards, and
// each call keeps its own dedup state, so a single instance may be shared
// between goroutines.
type AnnotationMatcher struct {
	registry     *annotation.Registry
	contextLines int
	dedupe       DedupeMode
	logger       *zap.Logger
}

// NewAnnotationMatcher compiles one recognizer per rule.
func NewAnnotationMatcher(cfg Config) (*AnnotationMatcher, error) {
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("no rules provided")
	}

	registry, err := annotation.NewRegistry(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("building annotation registry: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnnotationMatcher{
		registry:     registry,
		contextLines: cfg.ContextLines,
		dedupe:       cfg.Dedupe,
		logger:       logger.Named("matcher"),
	}, nil
}

// Match scans content against all loaded rules.
func (m *AnnotationMatcher) Match(content []byte) ([]*types.Match, error) {
	return m.MatchWithBlobID(content, types.ComputeBlobID(content))
}

// MatchWithBlobID scans content with a known BlobID.
// Matches are returned in content order.
func (m *AnnotationMatcher) MatchWithBlobID(content []byte, blobID types.BlobID) ([]*types.Match, error) {
	lines := docblockLines(content)
	if len(lines) == 0 {
		return nil, nil
	}

	dedup := NewDeduplicatorWithMode(m.dedupe)
	matches := make([]*types.Match, 0, len(lines))

	for _, line := range lines {
		rule, parsed := m.registry.ParseRule(line.text)
		if parsed == nil {
			continue
		}

		match := buildMatch(blobID, rule, parsed, line, content, m.contextLines)
		if dedup.IsDuplicate(match) {
			continue
		}
		dedup.Add(match)
		matches = append(matches, match)
	}

	m.logger.Debug("scanned blob",
		zap.Stringer("blob", blobID),
		zap.Int("annotation_lines", len(lines)),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// ParseLine runs the registry on a single annotation line (without '@').
func (m *AnnotationMatcher) ParseLine(line string) (*types.Rule, *types.ParsedLine) {
	return m.registry.ParseRule(line)
}

// Rules returns the rules loaded into the matcher.
func (m *AnnotationMatcher) Rules() []*types.Rule {
	return m.registry.Rules()
}

// Close releases resources (no-op; recognizers hold no external state).
func (m *AnnotationMatcher) Close() error {
	return nil
}

// buildMatch converts a line-relative parse result into a blob-level match.
func buildMatch(
	blobID types.BlobID,
	rule *types.Rule,
	parsed *types.ParsedLine,
	line annotationLine,
	content []byte,
	contextLines int,
) *types.Match {
	qualified, span := parsed.QualifiedName()

	// Parse offsets count characters within the line.
	start := line.offset + types.RuneToByteOffset(line.text, span.Start)
	end := line.offset + types.RuneToByteOffset(line.text, span.End)

	before, after := ExtractContext(content, start, end, contextLines)

	result := &types.Match{
		BlobID:        blobID,
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		QualifiedName: qualified,
		Description:   parsed.Description,
		Location:      types.ComputeLocation(content, start, end),
		Snippet: types.Snippet{
			Before:   before,
			Matching: append([]byte{}, content[start:end]...),
			After:    after,
		},
	}

	ruleSID := rule.StructuralID
	if ruleSID == "" {
		ruleSID = rule.ComputeStructuralID()
	}
	result.StructuralID = result.ComputeStructuralID(ruleSID)
	result.FindingID = types.ComputeFindingID(ruleSID, qualified, parsed.Description)

	return result
}
