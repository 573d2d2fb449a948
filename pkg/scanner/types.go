package scanner

import "github.com/praetorian-inc/annotscan/pkg/types"

// ContentItem is one piece of PHP source handed to the scanner.
type ContentItem struct {
	Source  string `json:"source"`  // caller-chosen name, e.g. "src/Entity/User.php"
	Content string `json:"content"` // the source text to scan
}

// ScanResult holds the matches of a single item.
type ScanResult struct {
	Source      string         `json:"source"`
	Matches     []*types.Match `json:"matches"`
	NewFindings int            `json:"new_findings"`
}

// BatchScanResult holds the results of a batch scan.
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"`
}

// ParseResult is the outcome of recognizing one annotation line.
// Parsed is nil when no rule recognizes the line.
type ParseResult struct {
	Line   string            `json:"line"`
	RuleID string            `json:"rule_id,omitempty"`
	Parsed *types.ParsedLine `json:"parsed"`
}
