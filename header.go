package cardgap

import (
	"regexp"
	"strings"
)

// headerRe matches a markdown heading of level two or deeper that starts
// right after a newline. The captured header runs until whitespace other
// than a plain space: tabs, line breaks, NBSP and the other Unicode
// separators all end it.
var headerRe = regexp.MustCompile(`\n(#{2,} (?:[^\p{Z}\t\n\v\f\r\x{1c}-\x{1f}\x{85}]| )*)`)

// decorationRe matches a run of non-word characters followed by a space,
// e.g. the "## " prefix or an emoji before the title.
var decorationRe = regexp.MustCompile(`[^\p{L}\p{N}_]+ `)

// ExtractHeaders returns the heading lines of a model card in document order.
// Only headings of level two or deeper that follow a newline are reported,
// so a heading on the very first line of the text is skipped. Headers keep
// their leading hashes. Empty text yields nil.
func ExtractHeaders(text string) []string {
	matches := headerRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	headers := make([]string, 0, len(matches))
	for _, m := range matches {
		headers = append(headers, m[1])
	}
	return headers
}

// NormalizeHeader reduces a raw heading to the form used for coverage
// comparison: decorative punctuation collapsed, the "[optional]" marker
// dropped, lower-cased, and a leading "model " qualifier removed.
//
//	NormalizeHeader("## Model Details [optional]") == "details"
func NormalizeHeader(header string) string {
	h := decorationRe.ReplaceAllString(header, " ")
	h = strings.ReplaceAll(h, "[optional]", "")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "model ")
	return strings.TrimSpace(h)
}

// NormalizeHeaders normalizes every header of a record in order.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		out = append(out, NormalizeHeader(h))
	}
	return out
}

// Capitalize upper-cases the first letter of s and lower-cases the rest,
// the way headers are displayed.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

// HeaderExtractor pulls raw heading lines out of card content.
type HeaderExtractor interface {
	ExtractHeaders(content string) []string
}

// HeaderExtractorFunc adapts a function to the HeaderExtractor interface.
type HeaderExtractorFunc func(content string) []string

// ExtractHeaders calls f(content).
func (f HeaderExtractorFunc) ExtractHeaders(content string) []string {
	return f(content)
}

// MarkdownExtractor extracts markdown headings using ExtractHeaders.
var MarkdownExtractor HeaderExtractor = HeaderExtractorFunc(ExtractHeaders)

// MultiExtractor returns an extractor that concatenates the results of the
// given extractors, in order, skipping headers already reported.
func MultiExtractor(extractors ...HeaderExtractor) HeaderExtractor {
	return HeaderExtractorFunc(func(content string) []string {
		var out []string
		seen := make(map[string]bool)
		for i, e := range extractors {
			for _, h := range e.ExtractHeaders(content) {
				// Duplicates within the first extractor are real card content.
				if i > 0 && seen[h] {
					continue
				}
				seen[h] = true
				out = append(out, h)
			}
		}
		return out
	})
}
