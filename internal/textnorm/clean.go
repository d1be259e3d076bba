// Package textnorm strips markdown artifacts from model output so replies
// from different providers read the same.
package textnorm

import (
	"regexp"
	"strings"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Order matters: code spans go first so markers inside them cannot pair with
// emphasis outside, and whitespace is collapsed last.
var rules = []rule{
	{regexp.MustCompile("(?s)```.*?```"), ""},
	{regexp.MustCompile("`(.*?)`"), "$1"},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`#{1,6}\s*`), ""},
	{regexp.MustCompile(`\[(.*?)\]\(.*?\)`), "$1"},
	{regexp.MustCompile(`\n\s*\n`), "\n"},
	{regexp.MustCompile(`\s+`), " "},
}

// Clean removes bold and italic markers, headings, fenced and inline code,
// markdown links (keeping the link text) and collapses whitespace.
//
// The rule set is re-applied until the output stops changing, which makes
// Clean idempotent even for nested constructs such as "***x***".
func Clean(text string) string {
	if text == "" {
		return text
	}

	// After the first pass only single spaces remain as whitespace, so every
	// later pass that changes anything makes the string shorter.
	out := pass(text)
	for {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func pass(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return strings.TrimSpace(text)
}
