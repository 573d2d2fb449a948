package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/annotscan/pkg/annotation"
	"github.com/praetorian-inc/annotscan/pkg/rule"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

var (
	rulesPath    string
	outputFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage annotation rules",
	Long:  "Commands for listing and checking annotation rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long:  "Display all available annotation rules with their IDs and names",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate rules and their examples",
	Long: `Validate rule definitions, then run every example through the rule's
recognizer: examples must parse and negative examples must not.`,
	RunE: runRulesCheck,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to custom rules file or directory")
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleSource(rulesPath)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return writeJSON(cmd, rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleSource(rulesPath)
	if err != nil {
		return err
	}

	var failures []string
	if err := rule.ValidateRules(rules); err != nil {
		failures = append(failures, err.Error())
	}
	for _, r := range rules {
		if err := annotation.CheckExamples(r); err != nil {
			failures = append(failures, err.Error())
		}
	}

	rulesets := 0
	if rulesPath == "" {
		known := make(map[string]bool, len(rules))
		for _, r := range rules {
			known[r.ID] = true
		}
		sets, err := rule.NewLoader().LoadBuiltinRulesets()
		if err != nil {
			return fmt.Errorf("loading builtin rulesets: %w", err)
		}
		for _, rs := range sets {
			if err := rule.ValidateRuleset(rs, known); err != nil {
				failures = append(failures, err.Error())
			}
		}
		rulesets = len(sets)
	}

	out := cmd.OutOrStdout()
	for _, f := range failures {
		fmt.Fprintf(out, "FAIL %s\n", f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d rule check(s) failed", len(failures))
	}

	fmt.Fprintf(out, "%d rules OK", len(rules))
	if rulesets > 0 {
		fmt.Fprintf(out, ", %d rulesets OK", rulesets)
	}
	fmt.Fprintln(out)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func loadRuleSource(path string) ([]*types.Rule, error) {
	loader := rule.NewLoader()
	if path != "" {
		rules, err := loader.LoadRulesPath(path)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", path, err)
		}
		return rules, nil
	}

	rules, err := loader.LoadBuiltinRules()
	if err != nil {
		return nil, fmt.Errorf("loading builtin rules: %w", err)
	}
	return rules, nil
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tCategories\n")
	fmt.Fprintf(w, "--\t----\t----------\n")

	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Name, strings.Join(r.Categories, ","))
	}

	return nil
}
