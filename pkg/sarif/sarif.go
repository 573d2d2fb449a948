// Package sarif renders annotation matches as a SARIF 2.1.0 log.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "annotscan"
)

// findingFingerprint keys the finding ID in partialFingerprints.
const findingFingerprint = "findingId/v1"

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`

	ruleIndex map[string]int
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules,omitempty"`
}

// Rule describes one annotation rule.
type Rule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription Text            `json:"shortDescription"`
	HelpURI          string          `json:"helpUri,omitempty"`
	Properties       *RuleProperties `json:"properties,omitempty"`
}

// RuleProperties carries rule categories as SARIF tags.
type RuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

// Text is a SARIF message string object.
type Text struct {
	Text string `json:"text"`
}

// Result represents a single annotation match
type Result struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             Text              `json:"message"`
	Locations           []Location        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          ResultProperties  `json:"properties"`
}

// ResultProperties carries the parsed annotation.
type ResultProperties struct {
	QualifiedName string `json:"qualifiedName"`
	Description   string `json:"description"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
	ContextRegion    *Region          `json:"contextRegion,omitempty"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range
type Region struct {
	StartLine   int   `json:"startLine,omitempty"`
	StartColumn int   `json:"startColumn,omitempty"`
	EndLine     int   `json:"endLine,omitempty"`
	EndColumn   int   `json:"endColumn,omitempty"`
	ByteOffset  int64 `json:"byteOffset"`
	ByteLength  int64 `json:"byteLength"`
	Snippet     *Text `json:"snippet,omitempty"`
}

// NewReport creates a new SARIF report for the given tool version.
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:           ToolName,
						Version:        toolVersion,
						InformationURI: "https://github.com/praetorian-inc/annotscan",
						Rules:          []Rule{},
					},
				},
				Results: []Result{},
			},
		},
		ruleIndex: make(map[string]int),
	}
}

// AddRule adds an annotation rule to the report. Adding a rule ID twice is a no-op.
func (r *Report) AddRule(rule *types.Rule) {
	if _, ok := r.ruleIndex[rule.ID]; ok {
		return
	}

	description := rule.Description
	if description == "" {
		description = "@" + rule.Name + " annotation"
	}

	sarifRule := Rule{
		ID:               rule.ID,
		Name:             rule.Name,
		ShortDescription: Text{Text: description},
	}

	// First reference doubles as help link
	if len(rule.References) > 0 {
		sarifRule.HelpURI = rule.References[0]
	}
	if len(rule.Categories) > 0 {
		sarifRule.Properties = &RuleProperties{Tags: rule.Categories}
	}

	driver := &r.Runs[0].Tool.Driver
	r.ruleIndex[rule.ID] = len(driver.Rules)
	driver.Rules = append(driver.Rules, sarifRule)
}

// AddResult adds a match found in filePath. The match's rule is registered
// on the fly if AddRule was not called for it.
func (r *Report) AddResult(match *types.Match, filePath string) {
	idx, ok := r.ruleIndex[match.RuleID]
	if !ok {
		r.AddRule(&types.Rule{ID: match.RuleID, Name: match.RuleName})
		idx = r.ruleIndex[match.RuleID]
	}

	loc := match.Location
	region := Region{
		StartLine:   loc.Source.Start.Line,
		StartColumn: loc.Source.Start.Column,
		EndLine:     loc.Source.End.Line,
		EndColumn:   loc.Source.End.Column,
		ByteOffset:  loc.Offset.Start,
		ByteLength:  loc.Offset.End - loc.Offset.Start,
	}
	if len(match.Snippet.Matching) > 0 {
		region.Snippet = &Text{Text: string(match.Snippet.Matching)}
	}

	physical := PhysicalLocation{
		ArtifactLocation: ArtifactLocation{URI: formatFileURI(filePath)},
		Region:           region,
	}
	if len(match.Snippet.Before) > 0 || len(match.Snippet.After) > 0 {
		before := int64(len(match.Snippet.Before))
		physical.ContextRegion = &Region{
			ByteOffset: loc.Offset.Start - before,
			ByteLength: before + region.ByteLength + int64(len(match.Snippet.After)),
			Snippet: &Text{Text: string(match.Snippet.Before) +
				string(match.Snippet.Matching) + string(match.Snippet.After)},
		}
	}

	result := Result{
		RuleID:    match.RuleID,
		RuleIndex: idx,
		Level:     "note",
		Message:   Text{Text: "@" + match.QualifiedName + match.Description},
		Locations: []Location{{PhysicalLocation: physical}},
		Properties: ResultProperties{
			QualifiedName: match.QualifiedName,
			Description:   match.Description,
		},
	}
	if match.FindingID != "" {
		result.PartialFingerprints = map[string]string{findingFingerprint: match.FindingID}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		path = filepath.ToSlash(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	return filepath.ToSlash(path)
}
