package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// Rule describes one annotation the scanner recognizes.
type Rule struct {
	ID               string   // e.g., "symfony.validators.regex"
	Name             string   // annotation identifier, e.g. "Regex"
	StructuralID     string   // SHA-1 of the recognizer signature (computed)
	Description      string   // optional
	Examples         []string // lines that must parse
	NegativeExamples []string // lines that must not parse
	References       []string // documentation URLs
	Categories       []string // classification tags
	Keywords         []string // Aho-Corasick prefilter keywords (defaults to Name)
}

// ComputeStructuralID hashes the recognizer signature. Two rules recognizing
// the same identifier share a structural ID regardless of their rule IDs.
func (r *Rule) ComputeStructuralID() string {
	h := sha1.New()
	h.Write([]byte("annotation\x00"))
	h.Write([]byte(r.Name))
	return hex.EncodeToString(h.Sum(nil))
}

// PrefilterKeywords returns the keywords guarding this rule.
func (r *Rule) PrefilterKeywords() []string {
	if len(r.Keywords) > 0 {
		return r.Keywords
	}
	if r.Name == "" {
		return nil
	}
	return []string{r.Name}
}

// Ruleset groups rules together.
type Ruleset struct {
	ID          string
	Name        string
	Description string
	RuleIDs     []string
}
