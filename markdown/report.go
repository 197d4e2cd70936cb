// Package markdown renders coverage reports as markdown documents.
package markdown

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fwojciec/cardgap"
	"github.com/nao1215/markdown"
)

// ReportWriter writes a cardgap.Report as markdown.
type ReportWriter struct {
	output io.Writer
}

// NewReportWriter creates a ReportWriter that outputs to w.
func NewReportWriter(w io.Writer) *ReportWriter {
	return &ReportWriter{output: w}
}

// Write renders the report for the given tags.
func (w *ReportWriter) Write(report *cardgap.Report, tags []string) error {
	md := markdown.NewMarkdown(w.output)

	title := report.ModelID
	if title == "" {
		title = "(no models)"
	}
	md.H1("Model card gaps: " + title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Tags", strings.Join(tags, ", ")},
			{"Models", strconv.Itoa(report.TotalRecords)},
			{"Models with headers", strconv.Itoa(report.RecordsWithHeaders)},
		},
	})
	md.PlainText("")

	md.H2("Present sections")
	md.PlainText("")
	if len(report.Present) == 0 {
		md.PlainText("The card has no section headers.")
	} else {
		present := make([]string, len(report.Present))
		for i, h := range report.Present {
			present[i] = cardgap.Capitalize(h)
		}
		md.BulletList(present...)
	}
	md.PlainText("")

	md.H2("Missing common sections")
	md.PlainText("")
	if len(report.Missing) == 0 {
		md.Tip("The card covers every common section.")
	} else {
		rows := make([][]string, len(report.Missing))
		for i, m := range report.Missing {
			rows[i] = []string{
				cardgap.Capitalize(m.Header),
				fmt.Sprintf("%.1f%%", m.Prevalence),
				strconv.Itoa(m.Count),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Section", "Used in", "Cards"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	return md.Build()
}
