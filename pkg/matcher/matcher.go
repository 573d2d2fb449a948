// Package matcher finds validator annotations in PHP docblocks.
package matcher

import (
	"github.com/praetorian-inc/annotscan/pkg/types"
	"go.uber.org/zap"
)

// Matcher scans content for annotation matches.
type Matcher interface {
	// Match scans content against all loaded rules.
	Match(content []byte) ([]*types.Match, error)

	// MatchWithBlobID scans content with a known BlobID.
	MatchWithBlobID(content []byte, blobID types.BlobID) ([]*types.Match, error)

	// Close releases resources.
	Close() error
}

// Config for matcher initialization.
type Config struct {
	// Rules to compile into recognizers. Earlier rules win when two
	// recognizers accept the same line.
	Rules []*types.Rule

	// ContextLines is the number of whole lines kept around each match.
	ContextLines int

	// Dedupe selects how repeated matches within a blob collapse.
	Dedupe DedupeMode

	// Logger receives debug output. Nil means no logging.
	Logger *zap.Logger
}

// New creates a Matcher for cfg.
func New(cfg Config) (Matcher, error) {
	return NewAnnotationMatcher(cfg)
}
