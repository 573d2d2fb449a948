package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/annotscan/pkg/datastore"
	"github.com/praetorian-inc/annotscan/pkg/store"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

var (
	reportDatastore  string
	reportFormat     string
	reportColor      string
	reportMaxMatches int
)

// maxSnippetLen bounds the printed snippet around a match.
const maxSnippetLen = 500

// styles holds color formatters for human report output.
type styles struct {
	findingHeading *color.Color
	id             *color.Color
	ruleName       *color.Color
	heading        *color.Color
	match          *color.Color
	metadata       *color.Color
}

// newStyles creates color formatters for report output.
// enabled=false respects --color=never and NO_COLOR.
func newStyles(enabled bool) *styles {
	s := &styles{
		findingHeading: color.New(color.Bold, color.FgHiWhite),
		id:             color.New(color.FgHiGreen),
		ruleName:       color.New(color.Bold, color.FgHiBlue),
		heading:        color.New(color.Bold),
		match:          color.New(color.FgYellow),
		metadata:       color.New(color.FgHiBlue),
	}

	for _, c := range []*color.Color{s.findingHeading, s.id, s.ruleName, s.heading, s.match, s.metadata} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// snippetParts holds separated snippet components for colored output
type snippetParts struct {
	prefix   string // "..." if truncated at start
	before   string
	matching string
	after    string
	suffix   string // "..." if truncated at end
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read findings from a datastore and print them as text, JSON or SARIF",
	RunE:  runReport,
}

func init() {
	addReportFlags(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportDatastore, "datastore", "annotscan.db", "Path to datastore file or directory")
	cmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	cmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	cmd.Flags().IntVar(&reportMaxMatches, "max-matches", 3, "Matches shown per finding in human output (0 for all)")
}

func runReport(cmd *cobra.Command, args []string) error {
	storePath, err := datastore.DatabasePath(reportDatastore)
	if err != nil {
		return err
	}

	s, err := store.New(store.Config{
		Path: storePath,
	})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	switch reportFormat {
	case "json":
		findings, err := s.GetFindings()
		if err != nil {
			return fmt.Errorf("retrieving findings: %w", err)
		}
		return writeJSON(cmd, findings)
	case "sarif":
		rules, err := s.GetRules()
		if err != nil {
			return fmt.Errorf("retrieving rules: %w", err)
		}
		matches, err := s.GetAllMatches()
		if err != nil {
			return fmt.Errorf("retrieving matches: %w", err)
		}
		return outputSARIF(cmd, s, rules, matches)
	case "human":
		return outputReportHuman(cmd, s)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// colorEnabled applies the --color mode. "auto" colors only terminals
// without NO_COLOR set.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// formatSnippetWithParts separates snippet into parts for colored output,
// truncating to maxLen bytes centered on the matched text.
func formatSnippetWithParts(before, matching, after []byte, maxLen int) snippetParts {
	full := string(before) + string(matching) + string(after)

	if len(full) <= maxLen {
		return snippetParts{
			before:   string(before),
			matching: string(matching),
			after:    string(after),
		}
	}

	matchStart := len(before)
	matchEnd := matchStart + len(matching)
	matchLen := len(matching)

	if matchLen >= maxLen {
		return snippetParts{
			prefix:   "...",
			matching: string(matching[:maxLen-6]),
			suffix:   "...",
		}
	}

	// Reserve 6 for "..." on each side
	halfContext := (maxLen - matchLen - 6) / 2

	start := matchStart - halfContext
	end := matchEnd + halfContext

	if start < 0 {
		end -= start
		start = 0
	}
	if end > len(full) {
		start -= end - len(full)
		if start < 0 {
			start = 0
		}
		end = len(full)
	}

	parts := snippetParts{
		before:   full[start:matchStart],
		matching: full[matchStart:matchEnd],
		after:    full[matchEnd:end],
	}
	if start > 0 {
		parts.prefix = "..."
	}
	if end < len(full) {
		parts.suffix = "..."
	}
	return parts
}

func outputReportHuman(cmd *cobra.Command, s store.Store) error {
	out := cmd.OutOrStdout()
	st := newStyles(colorEnabled(reportColor))

	findings, err := s.GetFindings()
	if err != nil {
		return fmt.Errorf("retrieving findings: %w", err)
	}
	rules, err := s.GetRules()
	if err != nil {
		return fmt.Errorf("retrieving rules: %w", err)
	}
	ruleNames := make(map[string]string, len(rules))
	for _, r := range rules {
		ruleNames[r.ID] = r.Name
	}

	if len(findings) == 0 {
		fmt.Fprintln(out, "No findings.")
		return nil
	}

	for i, f := range findings {
		fmt.Fprintf(out, "%s (%s %s)\n",
			st.findingHeading.Sprintf("Finding %d/%d", i+1, len(findings)),
			st.heading.Sprint("id"),
			st.id.Sprint(f.ID))

		ruleName := f.RuleID
		if name, ok := ruleNames[f.RuleID]; ok {
			ruleName = fmt.Sprintf("%s (%s)", name, f.RuleID)
		}
		fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Rule:"), st.ruleName.Sprint(ruleName))
		fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Annotation:"), st.match.Sprint("@"+f.QualifiedName+f.Description))

		shown := f.Matches
		if reportMaxMatches > 0 && len(shown) > reportMaxMatches {
			fmt.Fprintf(out, "Showing %d/%d matches:\n", reportMaxMatches, len(shown))
			shown = shown[:reportMaxMatches]
		}

		for k, match := range shown {
			if err := writeHumanMatch(out, st, s, match, k+1, len(f.Matches)); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "\n\n")
	}

	return nil
}

func writeHumanMatch(out io.Writer, st *styles, s store.Store, match *types.Match, n, total int) error {
	fmt.Fprintf(out, "\n    %s (%s %s)\n",
		st.heading.Sprintf("Match %d/%d", n, total),
		st.heading.Sprint("id"),
		st.id.Sprint(match.StructuralID))

	provs, err := s.GetProvenance(match.BlobID)
	if err != nil {
		return fmt.Errorf("retrieving provenance: %w", err)
	}
	for _, prov := range provs {
		fmt.Fprintf(out, "    %s %s\n", st.heading.Sprint("File:"), st.metadata.Sprint(prov.Path()))
		if gp, ok := prov.(types.GitProvenance); ok && gp.Commit != nil {
			fmt.Fprintf(out, "    %s %s\n", st.heading.Sprint("Commit:"), st.metadata.Sprint(gp.Commit.CommitID))
		}
	}

	fmt.Fprintf(out, "    %s %s\n", st.heading.Sprint("Blob:"), st.metadata.Sprint(match.BlobID.Hex()))

	src := match.Location.Source
	if src.Start.Line > 0 {
		fmt.Fprintf(out, "    %s %d:%d-%d:%d\n",
			st.heading.Sprint("Lines:"),
			src.Start.Line, src.Start.Column,
			src.End.Line, src.End.Column)
	}

	parts := formatSnippetWithParts(match.Snippet.Before, match.Snippet.Matching, match.Snippet.After, maxSnippetLen)
	if parts.matching != "" {
		snippet := parts.prefix + parts.before + st.match.Sprint(parts.matching) + parts.after + parts.suffix
		fmt.Fprintf(out, "\n        %s\n", strings.ReplaceAll(snippet, "\n", "\n        "))
	}
	return nil
}
