package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

const userEntity = `<?php
class User
{
    /**
     * @Assert\NotBlank()
     * @Assert\Email
     */
    private $email;
}
`

func newCore(t *testing.T, cfg Config) *Core {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t)
	}
	core, err := NewCore(cfg)
	require.NoError(t, err)
	t.Cleanup(core.Close)
	return core
}

func TestNewCore_BuiltinRules(t *testing.T) {
	core := newCore(t, Config{})

	builtin, err := GetBuiltinRules()
	require.NoError(t, err)
	assert.Len(t, core.matcher.Rules(), len(builtin))
}

func TestNewCore_EmptyRules(t *testing.T) {
	_, err := NewCore(Config{Rules: []*types.Rule{}})
	assert.Error(t, err)
}

func TestCore_Scan(t *testing.T) {
	core := newCore(t, Config{ContextLines: 1})

	res, err := core.Scan(userEntity, "User.php")
	require.NoError(t, err)

	assert.Equal(t, "User.php", res.Source)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "symfony.validators.notblank", res.Matches[0].RuleID)
	assert.Equal(t, "()", res.Matches[0].Description)
	assert.Equal(t, `Assert\Email`, res.Matches[1].QualifiedName)
	assert.Equal(t, 2, res.NewFindings)

	// Same content under another name opens no new findings.
	res, err = core.Scan(userEntity, "Copy.php")
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
	assert.Equal(t, 0, res.NewFindings)
}

func TestCore_ScanNoAnnotations(t *testing.T) {
	core := newCore(t, Config{})

	res, err := core.Scan("<?php echo 'hi';", "hi.php")
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0, res.NewFindings)
}

func TestCore_ScanBatch(t *testing.T) {
	core := newCore(t, Config{})

	res, err := core.ScanBatch([]ContentItem{
		{Source: "User.php", Content: userEntity},
		{Source: "Tag.php", Content: "<?php\n/** @Length(max=10) */\n"},
		{Source: "empty.php", Content: ""},
	})
	require.NoError(t, err)

	require.Len(t, res.Results, 3)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, "Tag.php", res.Results[1].Source)
	assert.Equal(t, "(max=10) ", res.Results[1].Matches[0].Description)
}

func TestCore_ParseLine(t *testing.T) {
	core := newCore(t, Config{})

	res := core.ParseLine(`\Symfony\Component\Validator\Constraints\NotBlank`)
	assert.Equal(t, "symfony.validators.notblank", res.RuleID)
	require.NotNil(t, res.Parsed)
	assert.Equal(t, "NotBlank", res.Parsed.Name)
	assert.Empty(t, res.Parsed.Description)

	res = core.ParseLine("NotBlanks")
	assert.Empty(t, res.RuleID)
	assert.Nil(t, res.Parsed)
}

func TestCore_Findings(t *testing.T) {
	core := newCore(t, Config{})

	_, err := core.Scan(userEntity, "User.php")
	require.NoError(t, err)
	_, err = core.Scan("<?php /** @Email */", "Other.php")
	require.NoError(t, err)

	findings, err := core.Findings()
	require.NoError(t, err)

	byName := map[string]*types.Finding{}
	for _, f := range findings {
		byName[f.QualifiedName] = f
	}
	require.Len(t, byName, 3, "Email and Assert\\Email are separate findings")
	assert.Len(t, byName[`Assert\NotBlank`].Matches, 1)
	assert.Len(t, byName["Email"].Matches, 1)
}
