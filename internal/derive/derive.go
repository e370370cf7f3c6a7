// Package derive computes note fields that are functions of the body text:
// whether the body is meaningful enough to persist, the display title, and
// the search key fed to the index.
package derive

import (
	"regexp"
	"strings"

	"github.com/homebase-app/homebase/internal/task"
)

// TitleMaxLen is the default title truncation length in runes.
const TitleMaxLen = 80

// Leading block markers stripped before judging a line: headings, quote
// markers, checkbox and list bullets, ordered-list numbers. Markers can
// stack ("> - [ ] text"), so stripping repeats until the line is stable.
var markerRes = []*regexp.Regexp{
	regexp.MustCompile(`^\s*#{1,6}\s*`),
	regexp.MustCompile(`^\s*>\s*`),
	regexp.MustCompile(`^\s*[-*+]\s+\[[ xX]\]\s*`),
	regexp.MustCompile(`^\s*[-*+]\s+`),
	regexp.MustCompile(`^\s*\d+[.)]\s+`),
}

// stripLine removes block markers and task metadata tags from one line.
func stripLine(line string) string {
	line = strings.TrimRight(line, "\r")
	for {
		prev := line
		for _, re := range markerRes {
			line = re.ReplaceAllString(line, "")
		}
		if line == prev {
			break
		}
	}
	return task.StripMetadata(line)
}

// Meaningful reports whether any line has text left after stripping block
// markers and metadata tags. A bare checkbox or a lone heading marker is not
// meaningful; it gates whether a draft is worth a file.
func Meaningful(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if stripLine(line) != "" {
			return true
		}
	}
	return false
}

// Title returns the first stripped non-empty line, truncated to maxLen runes
// with an ellipsis when cut. Empty string when no such line exists. A
// maxLen of zero or less uses TitleMaxLen.
func Title(body string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = TitleMaxLen
	}
	for _, line := range strings.Split(body, "\n") {
		s := stripLine(line)
		if s == "" {
			continue
		}
		runes := []rune(s)
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "…"
		}
		return s
	}
	return ""
}

// SearchKey flattens the body into a lowercase single-line string with
// markers and metadata tags removed, for full-text indexing.
func SearchKey(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		if s := stripLine(line); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
