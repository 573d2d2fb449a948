package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/annotscan/pkg/store"
)

// newReportCmd creates a fresh report command for testing
func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:  "report",
		RunE: runReport,
	}
	addReportFlags(cmd)
	return cmd
}

func executeReport(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := newReportCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// scanToDatastore scans a fresh project into dir/annotscan.db.
func scanToDatastore(t *testing.T, dir string) string {
	t.Helper()

	dbPath := filepath.Join(dir, "annotscan.db")
	_, _, err := executeScan(t, setupProject(t), "--output", dbPath)
	require.NoError(t, err)
	return dbPath
}

func TestReportCommand_HumanFormat(t *testing.T) {
	dbPath := scanToDatastore(t, t.TempDir())

	output, err := executeReport(t, "--datastore", dbPath, "--color", "never")
	require.NoError(t, err)

	assert.Contains(t, output, "Finding 1/3")
	assert.Contains(t, output, "Finding 3/3")
	assert.Contains(t, output, "Rule: Regex (symfony.validators.regex)")
	assert.Contains(t, output, `Annotation: @Assert\Regex("/^\w+$/")`)
	assert.Contains(t, output, "Match 2/2")
	assert.Contains(t, output, "User.php")
	assert.Contains(t, output, "Lines: 11:9-11:21")
	assert.NotContains(t, output, "\x1b[", "color disabled")
}

func TestReportCommand_HumanFormat_Color(t *testing.T) {
	dbPath := scanToDatastore(t, t.TempDir())

	output, err := executeReport(t, "--datastore", dbPath, "--color", "always")
	require.NoError(t, err)
	assert.Contains(t, output, "\x1b[")
}

func TestReportCommand_HumanFormat_MaxMatches(t *testing.T) {
	dbPath := scanToDatastore(t, t.TempDir())

	output, err := executeReport(t, "--datastore", dbPath, "--color", "never", "--max-matches", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "Showing 1/2 matches:")
	assert.NotContains(t, output, "Match 2/2")
}

func TestReportCommand_JSONFormat(t *testing.T) {
	dbPath := scanToDatastore(t, t.TempDir())

	output, err := executeReport(t, "--datastore", dbPath, "--format", "json")
	require.NoError(t, err)

	var findings []map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &findings))
	require.Len(t, findings, 3)

	total := 0
	for _, f := range findings {
		total += len(f["Matches"].([]any))
	}
	assert.Equal(t, 4, total)
}

func TestReportCommand_SARIFFormat(t *testing.T) {
	dbPath := scanToDatastore(t, t.TempDir())

	output, err := executeReport(t, "--datastore", dbPath, "--format", "sarif")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, "2.1.0", report["version"])
	assert.Contains(t, output, "symfony.validators.email")
}

func TestReportCommand_EmptyDatastore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	s, err := store.New(store.Config{Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	output, err := executeReport(t, "--datastore", dbPath, "--color", "never")
	require.NoError(t, err)
	assert.Contains(t, output, "No findings.")
}

func TestReportCommand_DatastoreDirectory(t *testing.T) {
	dir := t.TempDir()
	scanToDatastore(t, dir)

	output, err := executeReport(t, "--datastore", dir, "--color", "never")
	require.NoError(t, err)
	assert.Contains(t, output, "Finding 1/3")
}

func TestReportCommand_NonexistentDatastore(t *testing.T) {
	_, err := executeReport(t, "--datastore", filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorContains(t, err, "datastore not found")

	_, err = executeReport(t, "--datastore", t.TempDir())
	assert.ErrorContains(t, err, "datastore not found")

	_, err = executeReport(t, "--datastore", store.MemoryPath)
	assert.ErrorContains(t, err, "in-memory")
}

func TestReportCommand_UnknownFormat(t *testing.T) {
	dbPath := scanToDatastore(t, t.TempDir())

	_, err := executeReport(t, "--datastore", dbPath, "--format", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestColorEnabled(t *testing.T) {
	assert.True(t, colorEnabled("always"))
	assert.False(t, colorEnabled("never"))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, colorEnabled("auto"))
}

func TestFormatSnippetWithParts(t *testing.T) {
	tests := []struct {
		name     string
		before   string
		matching string
		after    string
		maxLen   int
		want     snippetParts
	}{
		{
			name:     "fits",
			before:   " * @",
			matching: `Assert\Regex`,
			after:    `("/x/")`,
			maxLen:   100,
			want:     snippetParts{before: " * @", matching: `Assert\Regex`, after: `("/x/")`},
		},
		{
			name:     "match too long",
			before:   "ab",
			matching: "0123456789",
			after:    "cd",
			maxLen:   10,
			want:     snippetParts{prefix: "...", matching: "0123", suffix: "..."},
		},
		{
			name:     "centered",
			before:   "aaaaaaaaaa",
			matching: "MM",
			after:    "bbbbbbbbbb",
			maxLen:   12,
			want:     snippetParts{prefix: "...", before: "aa", matching: "MM", after: "bb", suffix: "..."},
		},
		{
			name:     "shifted right at start",
			before:   "a",
			matching: "MM",
			after:    "bbbbbbbbbbbbbbbbbbbb",
			maxLen:   12,
			want:     snippetParts{before: "a", matching: "MM", after: "bbb", suffix: "..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatSnippetWithParts([]byte(tt.before), []byte(tt.matching), []byte(tt.after), tt.maxLen)
			assert.Equal(t, tt.want, got)
		})
	}
}
