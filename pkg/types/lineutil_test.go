package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLineColumn(t *testing.T) {
	doc := []byte("<?php\n/**\n * @Assert\\Regex(\"/^\\w+$/\")\n */\n")

	tests := []struct {
		name    string
		content []byte
		offset  int
		line    int
		column  int
	}{
		{name: "empty content", content: nil, offset: 0, line: 1, column: 1},
		{name: "start", content: doc, offset: 0, line: 1, column: 1},
		{name: "newline belongs to its line", content: doc, offset: 5, line: 1, column: 6},
		{name: "docblock open", content: doc, offset: 6, line: 2, column: 1},
		{name: "qualified name", content: doc, offset: 14, line: 3, column: 5},
		{name: "past end", content: doc, offset: 1000, line: 5, column: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, column := ComputeLineColumn(tt.content, tt.offset)
			assert.Equal(t, tt.line, line, "line")
			assert.Equal(t, tt.column, column, "column")
		})
	}
}

func TestRuneToByteOffset(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		offset int
		want   int
	}{
		{name: "ascii", s: "Regex", offset: 3, want: 3},
		{name: "zero", s: "Regex", offset: 0, want: 0},
		{name: "negative clamps to zero", s: "Regex", offset: -2, want: 0},
		{name: "past end clamps", s: "Regex", offset: 10, want: 5},
		{name: "multibyte prefix", s: "é\\Regex", offset: 2, want: 3},
		{name: "exact end", s: "éé", offset: 2, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RuneToByteOffset(tt.s, tt.offset))
		})
	}
}
