package insurer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/constants"
)

var (
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+`)
	spaceRunsRe = regexp.MustCompile(`[\s\x{00A0}]+`)
)

// document holds the views of the text every ruleset needs.
type document struct {
	text  string
	lines []string
	// flat is the lower-cased text with newlines replaced by spaces, so
	// phrases broken across lines still match.
	flat string
}

func newDocument(text string) *document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &document{
		text:  text,
		lines: strings.Split(text, "\n"),
		flat:  strings.ToLower(strings.ReplaceAll(text, "\n", " ")),
	}
}

// find returns the trimmed first group of re in the full text.
func (d *document) find(re *regexp.Regexp) string {
	return submatch(re, d.text)
}

// lineAfter returns the first non-empty line within the `within` lines that
// follow the first line containing label (case-insensitive).
func (d *document) lineAfter(label string, within int) string {
	label = strings.ToLower(label)
	for i, line := range d.lines {
		if !strings.Contains(strings.ToLower(line), label) {
			continue
		}
		for j := i + 1; j <= i+within && j < len(d.lines); j++ {
			if v := strings.TrimSpace(d.lines[j]); v != "" {
				return v
			}
		}
		return ""
	}
	return ""
}

// email prefers an address next to an e-mail label and falls back to the
// first address anywhere in the text.
func (d *document) email(labelled *regexp.Regexp) string {
	if v := d.find(labelled); v != "" {
		return v
	}
	return emailRe.FindString(d.text)
}

// flagged reports whether any "<keyword> ano" phrase appears in the flat text.
func (d *document) flagged(keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(d.flat, kw+" ano") {
			return true
		}
	}
	return false
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// digits removes spaces and no-break spaces from an amount like "450 000".
func digits(s string) string {
	return spaceRunsRe.ReplaceAllString(strings.TrimSpace(s), "")
}

func yesNo(b bool) string {
	if b {
		return constants.Yes
	}
	return constants.No
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// uniqueSorted trims, drops empties, deduplicates and sorts.
func uniqueSorted(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}
