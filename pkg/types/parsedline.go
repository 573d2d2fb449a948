package types

// ParsedLine is the result of recognizing an annotation on one line.
type ParsedLine struct {
	// Name is the unqualified annotation identifier, e.g. "Regex".
	Name string `json:"name"`

	// Description is what follows the qualified name on the line.
	Description string `json:"description"`

	// Types maps the range of each qualified name to its text.
	// Line recognizers produce exactly one entry.
	Types map[OffsetRange]string `json:"types"`
}

// NewParsedLine builds a ParsedLine with a single type span.
func NewParsedLine(name, description string, span OffsetRange, qualified string) *ParsedLine {
	return &ParsedLine{
		Name:        name,
		Description: description,
		Types:       map[OffsetRange]string{span: qualified},
	}
}

// QualifiedName returns the text of the first (leftmost) type span and its range.
func (p *ParsedLine) QualifiedName() (string, OffsetRange) {
	var (
		best  OffsetRange
		value string
		found bool
	)
	for r, v := range p.Types {
		if !found || r.Start < best.Start {
			best, value, found = r, v, true
		}
	}
	return value, best
}

// Equal reports whether two parsed lines carry the same data.
func (p *ParsedLine) Equal(other *ParsedLine) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Name != other.Name || p.Description != other.Description {
		return false
	}
	if len(p.Types) != len(other.Types) {
		return false
	}
	for r, v := range p.Types {
		if ov, ok := other.Types[r]; !ok || ov != v {
			return false
		}
	}
	return true
}
