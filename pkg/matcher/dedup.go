package matcher

import "github.com/praetorian-inc/annotscan/pkg/types"

// DedupeMode controls how matches are deduplicated.
type DedupeMode int

const (
	// DedupeByLocation keeps one match per rule and byte range.
	DedupeByLocation DedupeMode = iota

	// DedupeByFinding keeps the first match of each finding, so the same
	// annotation repeated in one blob is reported once.
	DedupeByFinding
)

// String returns the flag spelling of the mode.
func (m DedupeMode) String() string {
	switch m {
	case DedupeByFinding:
		return "finding"
	default:
		return "location"
	}
}

// ParseDedupeMode parses "location" or "finding".
func ParseDedupeMode(s string) (DedupeMode, bool) {
	switch s {
	case "", "location":
		return DedupeByLocation, true
	case "finding":
		return DedupeByFinding, true
	}
	return DedupeByLocation, false
}

// Deduplicator removes duplicate matches based on the configured mode.
type Deduplicator struct {
	seen map[string]bool
	mode DedupeMode
}

// NewDeduplicator creates a new deduplicator with location-based deduplication.
func NewDeduplicator() *Deduplicator {
	return NewDeduplicatorWithMode(DedupeByLocation)
}

// NewDeduplicatorWithMode creates a deduplicator for mode.
func NewDeduplicatorWithMode(mode DedupeMode) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]bool),
		mode: mode,
	}
}

// IsDuplicate returns true if match was already seen.
func (d *Deduplicator) IsDuplicate(m *types.Match) bool {
	return d.seen[d.key(m)]
}

// Add marks a match as seen.
func (d *Deduplicator) Add(m *types.Match) {
	d.seen[d.key(m)] = true
}

// Reset clears the deduplicator for reuse.
func (d *Deduplicator) Reset() {
	clear(d.seen)
}

func (d *Deduplicator) key(m *types.Match) string {
	if d.mode == DedupeByFinding {
		return m.FindingID
	}
	return m.StructuralID
}
