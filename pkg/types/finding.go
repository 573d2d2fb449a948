package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Finding groups matches of the same rule, qualified name and arguments.
type Finding struct {
	ID            string // SHA-1(rule_structural_id + '\0' + qualified_name + '\0' + description)
	RuleID        string
	QualifiedName string
	Description   string
	Matches       []*Match
}

// ComputeFindingID computes a content-based finding ID.
// Trailing whitespace in the description does not split findings.
func ComputeFindingID(ruleStructuralID, qualifiedName, description string) string {
	h := sha1.New()

	h.Write([]byte(ruleStructuralID))
	h.Write([]byte{0})

	h.Write([]byte(strings.TrimPrefix(qualifiedName, `\`)))
	h.Write([]byte{0})

	h.Write([]byte(strings.TrimRight(description, " \t")))

	return hex.EncodeToString(h.Sum(nil))
}
