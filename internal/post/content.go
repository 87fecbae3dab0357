package post

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultLinkBase is where self-hosted images live relative to the site
// root once the blog tree has been extracted.
const DefaultLinkBase = "/blog"

var (
	// Matches a Markdown link target pointing at a Ghost-internal upload:
	// ](/content/images/yyyy/mm/anything). The leading "](" anchors the
	// match to the start of the link target, so external URLs that merely
	// contain the substring never match.
	internalLinkRe = regexp.MustCompile(`(?i)\]\(/content/images/(\d{4})/(\d{2})/([^)]+)\)`)

	// Footnotes that already carry an explicit number.
	numberedFootnoteRe = regexp.MustCompile(`\[\^(\d+)\]`)

	// A Ghost placeholder footnote definition, anchored at line start.
	placeholderDefRe = regexp.MustCompile(`(?m)^\[\^n\]:`)
)

const placeholderRef = "[^n]"

// RewriteInternalLinks rewrites Ghost-internal image/link targets to their
// extracted location under base, preserving the year/month/filename suffix
// and any surrounding link text.
//
//	![](/content/images/2020/01/asdf.jpg) -> ![](/blog/2020/01/asdf.jpg)
func RewriteInternalLinks(text, base string) string {
	if base == "" {
		base = DefaultLinkBase
	}
	base = strings.TrimSuffix(base, "/")
	return internalLinkRe.ReplaceAllString(text, "]("+base+"/${1}/${2}/${3})")
}

// ReifyFootnotes assigns sequence numbers to Ghost placeholder footnotes.
//
// Ghost writes every placeholder footnote identically, "[^n]" at the
// reference site and "[^n]:" at the definition site; Zola needs distinct
// increasing integers. Footnotes that are already explicitly numbered are
// left alone, and new numbers start above the maximum explicit number seen
// anywhere in the document. Definitions and inline references are numbered
// in two independent passes, each strictly in order of appearance, which
// assumes references and definitions appear in the same relative order;
// mismatched ordering yields mismatched numbering.
func ReifyFootnotes(text string) string {
	base := 0
	for _, m := range numberedFootnoteRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > base {
			base = n
		}
	}
	text = reifyDefinitions(text, base)
	return reifyReferences(text, base)
}

// reifyDefinitions renumbers placeholder definition lines, one at a time so
// each occurrence gets the next number.
func reifyDefinitions(text string, base int) string {
	var b strings.Builder
	for n := base + 1; ; n++ {
		loc := placeholderDefRe.FindStringIndex(text)
		if loc == nil {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:loc[0]])
		fmt.Fprintf(&b, "[^%d]:", n)
		text = text[loc[1]:]
	}
}

// reifyReferences renumbers inline placeholder references: every "[^n]" not
// immediately followed by a colon. Plain string scanning because RE2 has no
// lookahead.
func reifyReferences(text string, base int) string {
	var b strings.Builder
	n := base
	for {
		i := strings.Index(text, placeholderRef)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := i + len(placeholderRef)
		if end < len(text) && text[end] == ':' {
			// definition site, already handled
			b.WriteString(text[:end+1])
			text = text[end+1:]
			continue
		}
		n++
		b.WriteString(text[:i])
		fmt.Fprintf(&b, "[^%d]", n)
		text = text[end:]
	}
}
