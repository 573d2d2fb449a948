package rule

import (
	"testing"

	"github.com/praetorian-inc/annotscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string returns empty slice",
			input:    "",
			expected: []string{},
		},
		{
			name:     "single pattern",
			input:    "symfony.*",
			expected: []string{"symfony.*"},
		},
		{
			name:     "multiple patterns comma-separated",
			input:    "Regex,Email,^Not",
			expected: []string{"Regex", "Email", "^Not"},
		},
		{
			name:     "patterns with spaces are trimmed",
			input:    " Regex , Email ,, ",
			expected: []string{"Regex", "Email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePatterns(tt.input))
		})
	}
}

func filterTestRules() []*types.Rule {
	return []*types.Rule{
		{ID: "symfony.validators.notblank", Name: "NotBlank"},
		{ID: "symfony.validators.notnull", Name: "NotNull"},
		{ID: "symfony.validators.regex", Name: "Regex"},
		{ID: "custom.slug", Name: "Slug"},
	}
}

func ruleIDs(rules []*types.Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		config   FilterConfig
		expected []string
	}{
		{
			name:   "no patterns keeps everything",
			config: FilterConfig{},
			expected: []string{
				"symfony.validators.notblank",
				"symfony.validators.notnull",
				"symfony.validators.regex",
				"custom.slug",
			},
		},
		{
			name:     "include by ID",
			config:   FilterConfig{Include: []string{`^symfony\.`}},
			expected: []string{"symfony.validators.notblank", "symfony.validators.notnull", "symfony.validators.regex"},
		},
		{
			name:     "include by annotation name",
			config:   FilterConfig{Include: []string{"^Not"}},
			expected: []string{"symfony.validators.notblank", "symfony.validators.notnull"},
		},
		{
			name:     "exclude applies after include",
			config:   FilterConfig{Include: []string{`^symfony\.`}, Exclude: []string{"NotNull"}},
			expected: []string{"symfony.validators.notblank", "symfony.validators.regex"},
		},
		{
			name:     "exclude only",
			config:   FilterConfig{Exclude: []string{"symfony"}},
			expected: []string{"custom.slug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(filterTestRules(), tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ruleIDs(got))
		})
	}
}

func TestFilter_InvalidPattern(t *testing.T) {
	_, err := Filter(filterTestRules(), FilterConfig{Include: []string{"[unclosed"}})
	assert.Error(t, err)

	_, err = Filter(filterTestRules(), FilterConfig{Exclude: []string{"(bad"}})
	assert.Error(t, err)
}

func TestFilter_EmptyRules(t *testing.T) {
	got, err := Filter(nil, FilterConfig{Include: []string{"[unclosed"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}
