package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/annotscan/pkg/annotation"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

var parseRulesPath string

var parseCmd = &cobra.Command{
	Use:   "parse <line>",
	Short: "Recognize a single annotation line",
	Long: `Run the annotation recognizers on one line and print the result as JSON.
A leading '@' is ignored, so both 'Assert\Regex("/x/")' and '@Assert\Regex("/x/")'
are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseRulesPath, "rules", "", "Path to custom rules file or directory")
}

// parseResult is the JSON form of one recognized line.
type parseResult struct {
	Matched       bool               `json:"matched"`
	RuleID        string             `json:"rule_id,omitempty"`
	Name          string             `json:"name,omitempty"`
	QualifiedName string             `json:"qualified_name,omitempty"`
	Span          *types.OffsetRange `json:"span,omitempty"`
	Description   string             `json:"description"`
}

func runParse(cmd *cobra.Command, args []string) error {
	registry, err := parseRegistry(parseRulesPath)
	if err != nil {
		return err
	}

	line := strings.TrimPrefix(args[0], "@")
	r, parsed := registry.ParseRule(line)
	if parsed == nil {
		return writeJSON(cmd, parseResult{})
	}

	qualified, span := parsed.QualifiedName()
	return writeJSON(cmd, parseResult{
		Matched:       true,
		RuleID:        r.ID,
		Name:          parsed.Name,
		QualifiedName: qualified,
		Span:          &span,
		Description:   parsed.Description,
	})
}

func parseRegistry(path string) (*annotation.Registry, error) {
	if path == "" {
		return annotation.Default()
	}

	rules, err := loadRules(path, "", "")
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return annotation.NewRegistry(rules)
}
