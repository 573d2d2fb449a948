// Package annotation recognizes PHP docblock annotations on single lines.
//
// A recognizer is bound to one annotation identifier and accepts the
// identifier alone or qualified by a namespace path:
//
//	Regex("/^\w+/")
//	Assert\Regex(pattern="/^\w+/")
//	\Symfony\Component\Validator\Constraints\Regex
//
// The identifier must be followed by end of line, whitespace or "(";
// "Regexs" is not a Regex annotation.
package annotation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

// LineParser recognizes an annotation on one line of text.
// A nil result means the line does not carry the annotation.
type LineParser interface {
	Parse(line string) *types.ParsedLine
}

// matchTimeout bounds a single recognizer run.
const matchTimeout = time.Second

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as an annotation identifier.
func ValidIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// TypedParser recognizes one annotation identifier, optionally namespace-qualified.
// It holds only compiled, read-only state and is safe for concurrent use.
type TypedParser struct {
	name string
	re   *regexp2.Regexp
}

// NewTypedParser compiles a recognizer for the annotation identifier name.
func NewTypedParser(name string) (*TypedParser, error) {
	if !ValidIdentifier(name) {
		return nil, fmt.Errorf("invalid annotation identifier %q", name)
	}

	// group 1: optional leading backslash, namespace segments, identifier.
	// The lookahead rejects identifier continuations without consuming them.
	pattern := `^\s*(\\?(?:[A-Za-z0-9_]+\\)*` + regexp2.Escape(name) + `)(?=[\s(]|$)`
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compiling recognizer for %s: %w", name, err)
	}
	re.MatchTimeout = matchTimeout

	return &TypedParser{name: name, re: re}, nil
}

// MustTypedParser is like NewTypedParser but panics on an invalid identifier.
func MustTypedParser(name string) *TypedParser {
	p, err := NewTypedParser(name)
	if err != nil {
		panic(err)
	}
	return p
}

// NewRegexLineParser returns the recognizer for the Regex validator annotation.
func NewRegexLineParser() *TypedParser {
	return MustTypedParser("Regex")
}

// Name returns the annotation identifier this parser recognizes.
func (p *TypedParser) Name() string {
	return p.name
}

// Parse implements LineParser.
//
// Offsets in the result are character offsets into line itself, so leading
// whitespace shifts the span start. Description is the literal remainder of
// line after the qualified name, or "" when that remainder is only whitespace.
func (p *TypedParser) Parse(line string) *types.ParsedLine {
	m, err := p.re.FindStringMatch(line)
	if err != nil || m == nil {
		return nil
	}

	g := m.GroupByNumber(1)
	if g == nil || len(g.Captures) == 0 {
		return nil
	}

	// regexp2 reports rune indices.
	start := g.Index
	end := g.Index + g.Length
	rest := line[types.RuneToByteOffset(line, end):]
	if strings.TrimSpace(rest) == "" {
		rest = ""
	}

	return types.NewParsedLine(p.name, rest, types.OffsetRange{Start: start, End: end}, g.String())
}
