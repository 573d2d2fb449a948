package annotation

import (
	"fmt"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// CheckExamples runs a rule's examples through its recognizer.
// Every example must parse to the rule's name; no negative example may parse.
func CheckExamples(r *types.Rule) error {
	p, err := NewTypedParser(r.Name)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}

	for _, ex := range r.Examples {
		parsed := p.Parse(ex)
		if parsed == nil {
			return fmt.Errorf("rule %s: example %q does not parse", r.ID, ex)
		}
		if parsed.Name != r.Name {
			return fmt.Errorf("rule %s: example %q parsed as %s", r.ID, ex, parsed.Name)
		}
	}

	for _, ex := range r.NegativeExamples {
		if p.Parse(ex) != nil {
			return fmt.Errorf("rule %s: negative example %q parses", r.ID, ex)
		}
	}

	return nil
}
