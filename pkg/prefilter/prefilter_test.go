package prefilter

import (
	"testing"

	"github.com/praetorian-inc/annotscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validatorRules() []*types.Rule {
	return []*types.Rule{
		{ID: "symfony.validators.email", Name: "Email"},
		{ID: "symfony.validators.length", Name: "Length"},
		{ID: "symfony.validators.minlength", Name: "MinLength"},
		{ID: "symfony.validators.regex", Name: "Regex"},
	}
}

func ids(rules []*types.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.ID)
	}
	return out
}

func TestPrefilter_NameIsDefaultKeyword(t *testing.T) {
	pf := New(validatorRules())

	filtered := pf.FilterString(`Assert\Regex("/^\w+/")`)

	require.Len(t, filtered, 1)
	assert.Equal(t, "symfony.validators.regex", filtered[0].ID)
}

func TestPrefilter_OverlappingKeywordsKeepInputOrder(t *testing.T) {
	pf := New(validatorRules())

	// "MinLength" contains "Length"; both rules are candidates.
	filtered := pf.FilterString("MinLength(3)")

	assert.Equal(t, []string{"symfony.validators.length", "symfony.validators.minlength"}, ids(filtered))
}

func TestPrefilter_NoMatchingKeywords(t *testing.T) {
	pf := New(validatorRules())

	assert.Empty(t, pf.FilterString("NotBlank"))
}

func TestPrefilter_CaseSensitive(t *testing.T) {
	pf := New(validatorRules())

	assert.Empty(t, pf.FilterString("regex"))
	assert.Len(t, pf.FilterString("Regex"), 1)
}

func TestPrefilter_ExplicitKeywords(t *testing.T) {
	rules := []*types.Rule{
		{ID: "custom.route", Name: "Route", Keywords: []string{"Route", "Routing"}},
	}
	pf := New(rules)

	assert.Len(t, pf.FilterString("Routing"), 1)
	assert.Len(t, pf.FilterString("Route"), 1)
}

func TestPrefilter_RulesWithoutKeywordsAlwaysReturned(t *testing.T) {
	rules := []*types.Rule{
		{ID: "regex", Name: "Regex"},
		{ID: "anonymous"},
	}
	pf := New(rules)

	assert.Equal(t, []string{"anonymous"}, ids(pf.FilterString("nothing here")))
	assert.Equal(t, []string{"regex", "anonymous"}, ids(pf.FilterString("Regex")))
}

func TestPrefilter_EmptyInput(t *testing.T) {
	pf := New(validatorRules())
	assert.Empty(t, pf.Filter(nil))
}

func TestPrefilter_NoRules(t *testing.T) {
	pf := New(nil)
	assert.Empty(t, pf.FilterString("Regex"))
}
