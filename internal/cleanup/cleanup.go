// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cleanup post-processes assembled Markdown: it collapses blank-line
// runs, strips trailing whitespace, and normalizes spacing around headings and
// page markers. Fenced code blocks pass through byte for byte.
package cleanup

import (
	"regexp"
	"strings"

	"github.com/pdiddy/pdfmd/pkg/types"
)

var headingRe = regexp.MustCompile(`^#{1,6}\s+\S`)

// line is one input line with its fence state.
type line struct {
	text      string
	protected bool
}

// Clean runs the cleanup operations in fixed order: blank-line collapsing,
// trailing whitespace removal, then heading and page-marker spacing. The
// pageMarkerTemplate identifies marker lines; an empty template means no line
// is treated as a marker. Clean is idempotent.
func Clean(md string, cfg types.CleanupConfig, pageMarkerTemplate string) string {
	if md == "" {
		return ""
	}

	lines := split(md)

	if cfg.MaxConsecutiveLinebreaks > 0 {
		lines = collapseBlankRuns(lines, cfg.MaxConsecutiveLinebreaks)
	}
	if cfg.NormalizeWhitespace {
		for i := range lines {
			if !lines[i].protected {
				lines[i].text = strings.TrimRight(lines[i].text, " \t\r")
			}
		}
	}
	if cfg.FixHeadingSpacing {
		marker := markerPattern(pageMarkerTemplate)
		lines = fixSpacing(lines, func(s string) bool {
			t := strings.TrimSpace(s)
			return headingRe.MatchString(t) || (marker != nil && marker.MatchString(t))
		})
	}

	lines = trimBlankEdges(lines)
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text)
	}
	b.WriteByte('\n')
	return b.String()
}

// split breaks md into lines and marks fence delimiters and everything
// between them as protected. An unclosed fence protects the remainder.
func split(md string) []line {
	raw := strings.Split(strings.TrimSuffix(md, "\n"), "\n")
	out := make([]line, len(raw))
	inFence := false
	for i, s := range raw {
		delim := strings.HasPrefix(strings.TrimSpace(s), "```")
		out[i] = line{text: s, protected: inFence || delim}
		if delim {
			inFence = !inFence
		}
	}
	return out
}

func isBlank(l line) bool {
	return !l.protected && strings.TrimSpace(l.text) == ""
}

// collapseBlankRuns shortens every run of unprotected blank lines to max.
func collapseBlankRuns(lines []line, max int) []line {
	out := make([]line, 0, len(lines))
	run := 0
	for _, l := range lines {
		if isBlank(l) {
			run++
			if run > max {
				continue
			}
		} else {
			run = 0
		}
		out = append(out, l)
	}
	return out
}

// fixSpacing puts exactly one blank line before and after every line for
// which special reports true, except at the start and end of the document.
func fixSpacing(lines []line, special func(string) bool) []line {
	out := make([]line, 0, len(lines)+8)
	needBlank := false

	dropTrailingBlanks := func() {
		for len(out) > 0 && isBlank(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
	}

	for _, l := range lines {
		if !l.protected && special(l.text) {
			dropTrailingBlanks()
			if len(out) > 0 {
				out = append(out, line{})
			}
			out = append(out, l)
			needBlank = true
			continue
		}
		if needBlank {
			if isBlank(l) {
				continue
			}
			out = append(out, line{})
			needBlank = false
		}
		out = append(out, l)
	}
	return out
}

func trimBlankEdges(lines []line) []line {
	start, end := 0, len(lines)
	for start < end && isBlank(lines[start]) {
		start++
	}
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

// markerPattern turns a page marker template into a regexp matching any
// rendered marker. It returns nil for an empty template.
func markerPattern(tmpl string) *regexp.Regexp {
	tmpl = strings.TrimSpace(tmpl)
	if tmpl == "" {
		return nil
	}
	quoted := regexp.QuoteMeta(tmpl)
	quoted = strings.ReplaceAll(quoted, regexp.QuoteMeta("{page_num}"), `\d+`)
	return regexp.MustCompile("^" + quoted + "$")
}
