// Package goquery extracts section headings from HTML embedded in model cards.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/cardgap"
)

// Ensure HeadingExtractor implements cardgap.HeaderExtractor.
var _ cardgap.HeaderExtractor = (*HeadingExtractor)(nil)

// headingSelector matches the HTML headings that correspond to markdown
// headers of level two or deeper.
const headingSelector = "h2, h3, h4, h5, h6"

// HeadingExtractor reports <h2>-<h6> elements as markdown header lines, so
// "<h3>Training Data</h3>" becomes "### Training Data".
type HeadingExtractor struct{}

// NewHeadingExtractor creates a new HeadingExtractor.
func NewHeadingExtractor() *HeadingExtractor {
	return &HeadingExtractor{}
}

// ExtractHeaders returns the headings in document order. Cards without any
// HTML heading tag yield nil.
func (e *HeadingExtractor) ExtractHeaders(content string) []string {
	if !containsHeadingTag(content) {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var headers []string
	doc.Find(headingSelector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" {
			return
		}
		level := int(goquery.NodeName(sel)[1] - '0')
		headers = append(headers, strings.Repeat("#", level)+" "+text)
	})
	return headers
}

func containsHeadingTag(content string) bool {
	lower := strings.ToLower(content)
	for _, tag := range []string{"<h2", "<h3", "<h4", "<h5", "<h6"} {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}
