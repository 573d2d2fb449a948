package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Match is one recognized annotation inside a blob.
type Match struct {
	BlobID        BlobID
	StructuralID  string // SHA-1(rule_structural_id + '\0' + blob_id + '\0' + start + '\0' + end)
	FindingID     string // SHA-1(rule_structural_id + '\0' + qualified_name + '\0' + description)
	RuleID        string // e.g., "symfony.validators.regex"
	RuleName      string // e.g., "Regex"
	QualifiedName string // name as written, e.g. "Assert\Regex"
	Description   string // text following the qualified name
	Location      Location
	Snippet       Snippet
}

// ComputeStructuralID computes a location-based unique ID.
func (m *Match) ComputeStructuralID(ruleStructuralID string) string {
	h := sha1.New()

	h.Write([]byte(ruleStructuralID))
	h.Write([]byte{0})

	h.Write(m.BlobID[:])
	h.Write([]byte{0})

	h.Write([]byte(strconv.FormatInt(m.Location.Offset.Start, 10)))
	h.Write([]byte{0})

	h.Write([]byte(strconv.FormatInt(m.Location.Offset.End, 10)))

	return hex.EncodeToString(h.Sum(nil))
}

// ParsedLine rebuilds the line-relative parse result carried by this match.
// The span is relative to the start of the qualified name.
func (m *Match) ParsedLine() *ParsedLine {
	span := OffsetRange{Start: 0, End: len([]rune(m.QualifiedName))}
	return NewParsedLine(m.RuleName, m.Description, span, m.QualifiedName)
}
