package query

import "strings"

// escaper neutralizes every regular-expression metacharacter by prefixing it
// with a backslash. The metacharacter set is process-wide constant
// configuration, so the table is built exactly once.
var escaper = strings.NewReplacer(
	`/`, `\/`,
	`.`, `\.`,
	`*`, `\*`,
	`+`, `\+`,
	`?`, `\?`,
	`|`, `\|`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	`\`, `\\`,
	`$`, `\$`,
	`^`, `\^`,
	`-`, `\-`,
)

// Escape returns s with every regex metacharacter backslash-escaped. All
// other characters pass through unchanged.
func Escape(s string) string {
	return escaper.Replace(s)
}
