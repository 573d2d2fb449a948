package rule

import (
	"strings"
	"testing"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

func validRule() *types.Rule {
	rule := &types.Rule{
		ID:   "symfony.validators.regex",
		Name: "Regex",
	}
	rule.StructuralID = rule.ComputeStructuralID()
	return rule
}

func TestValidateRule_Valid(t *testing.T) {
	if err := ValidateRule(validRule()); err != nil {
		t.Errorf("ValidateRule failed for valid rule: %v", err)
	}
}

func TestValidateRule_NilRule(t *testing.T) {
	err := ValidateRule(nil)
	if err == nil {
		t.Fatal("expected error for nil rule")
	}
	if !strings.Contains(err.Error(), "nil") {
		t.Errorf("expected 'nil' in error message, got: %v", err)
	}
}

func TestValidateRule_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *types.Rule)
		wantErr string
	}{
		{"missing ID", func(r *types.Rule) { r.ID = "" }, "ID"},
		{"uppercase ID", func(r *types.Rule) { r.ID = "Symfony.Regex" }, "lowercase"},
		{"ID with trailing dot", func(r *types.Rule) { r.ID = "symfony." }, "lowercase"},
		{"missing name", func(r *types.Rule) { r.Name = ""; r.StructuralID = "" }, "name"},
		{"qualified name", func(r *types.Rule) { r.Name = `Assert\Regex`; r.StructuralID = "" }, "identifier"},
		{"name with leading digit", func(r *types.Rule) { r.Name = "9Regex"; r.StructuralID = "" }, "identifier"},
		{"empty keyword", func(r *types.Rule) { r.Keywords = []string{"Regex", ""} }, "keyword"},
		{"stale structural ID", func(r *types.Rule) { r.Name = "Email" }, "StructuralID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)

			err := ValidateRule(rule)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in error message, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateRule_EmptyStructuralIDAllowed(t *testing.T) {
	rule := validRule()
	rule.StructuralID = ""

	if err := ValidateRule(rule); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRules_Duplicate(t *testing.T) {
	err := ValidateRules([]*types.Rule{validRule(), validRule()})
	if err == nil {
		t.Fatal("expected error for duplicate rule IDs")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected 'duplicate' in error message, got: %v", err)
	}
}

func TestValidateRuleset_Valid(t *testing.T) {
	rs := &types.Ruleset{
		ID:      "symfony.validators.string",
		Name:    "String validators",
		RuleIDs: []string{"symfony.validators.regex", "symfony.validators.email"},
	}
	known := map[string]bool{
		"symfony.validators.regex": true,
		"symfony.validators.email": true,
	}

	if err := ValidateRuleset(rs, known); err != nil {
		t.Errorf("ValidateRuleset failed for valid ruleset: %v", err)
	}
}

func TestValidateRuleset_Invalid(t *testing.T) {
	known := map[string]bool{"symfony.validators.regex": true}

	tests := []struct {
		name    string
		rs      *types.Ruleset
		wantErr string
	}{
		{"nil", nil, "nil"},
		{"missing ID", &types.Ruleset{Name: "n", RuleIDs: []string{"symfony.validators.regex"}}, "ID"},
		{"missing name", &types.Ruleset{ID: "rs", RuleIDs: []string{"symfony.validators.regex"}}, "name"},
		{"no rules", &types.Ruleset{ID: "rs", Name: "n"}, "at least one"},
		{"unknown rule", &types.Ruleset{ID: "rs", Name: "n", RuleIDs: []string{"symfony.validators.email"}}, "unknown"},
		{"duplicate rule", &types.Ruleset{ID: "rs", Name: "n", RuleIDs: []string{"symfony.validators.regex", "symfony.validators.regex"}}, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleset(tt.rs, known)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in error message, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateRuleset_NilKnownSkipsReferenceCheck(t *testing.T) {
	rs := &types.Ruleset{ID: "rs", Name: "n", RuleIDs: []string{"anything"}}
	if err := ValidateRuleset(rs, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
