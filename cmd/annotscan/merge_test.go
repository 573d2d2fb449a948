package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/annotscan/pkg/store"
)

// newMergeCmd creates a fresh merge command for testing
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:  "merge <source1.db> <source2.db> [source3.db...]",
		Args: cobra.MinimumNArgs(2),
		RunE: runMerge,
	}
	cmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
	return cmd
}

func TestMergeCmd_RequiresMinimumArgs(t *testing.T) {
	cmd := newMergeCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "requires at least 2 arg")

	cmd = newMergeCmd()
	cmd.SetArgs([]string{"source1.db"})
	err = cmd.Execute()
	assert.ErrorContains(t, err, "requires at least 2 arg")
}

func TestMergeCmd_MergesTwoDatastores(t *testing.T) {
	tmpDir := t.TempDir()

	source1 := filepath.Join(tmpDir, "source1.db")
	_, _, err := executeScan(t, setupProject(t), "--output", source1)
	require.NoError(t, err)

	other := t.TempDir()
	writeFiles(t, other, map[string]string{"Tag.php": "<?php /** @Assert\\Length(max=10) */"})
	source2 := filepath.Join(tmpDir, "source2.db")
	_, _, err = executeScan(t, other, "--output", source2)
	require.NoError(t, err)

	destPath := filepath.Join(tmpDir, "merged.db")
	var buf bytes.Buffer
	cmd := newMergeCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{source1, source2, "--output", destPath})
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Merge complete")
	assert.Contains(t, output, "Sources processed: 2")
	assert.Contains(t, output, "Blobs merged: 3")
	assert.Contains(t, output, "Matches merged: 5")
	assert.Contains(t, output, "Findings merged: 4")
	assert.Contains(t, output, "Output: "+destPath)

	dest, err := store.NewSQLite(destPath)
	require.NoError(t, err)
	defer dest.Close()

	findings, err := dest.GetFindings()
	require.NoError(t, err)
	assert.Len(t, findings, 4)

	rules, err := dest.GetRules()
	require.NoError(t, err)
	assert.Len(t, rules, 33)
}

func TestMergeCmd_MissingSource(t *testing.T) {
	tmpDir := t.TempDir()

	cmd := newMergeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{
		filepath.Join(tmpDir, "a.db"),
		filepath.Join(tmpDir, "b.db"),
		"--output", filepath.Join(tmpDir, "merged.db"),
	})
	assert.ErrorContains(t, cmd.Execute(), "merge failed")
}
