package rule

import "embed"

// builtinFS embeds the Symfony validator rules and their rulesets.
//
//go:embed rules/*.yml rulesets/*.yml
var builtinFS embed.FS
