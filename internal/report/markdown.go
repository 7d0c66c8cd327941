package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders a run summary as GitHub Flavored Markdown.
type MarkdownWriter struct {
	// output receives the rendered markdown.
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter targeting output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the summary.
func (w *MarkdownWriter) Write(s *Summary) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("webgrep Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Pattern", "`" + s.Pattern + "`"},
			{"Started", s.Started.Format("2006-01-02 15:04:05 MST")},
			{"Root URLs", strconv.Itoa(len(s.Roots))},
		},
	})
	md.PlainText("")

	for _, rs := range s.Roots {
		w.writeRoot(md, rs)
	}

	return md.Build()
}

// writeRoot renders one root URL's section.
func (w *MarkdownWriter) writeRoot(md *markdown.Markdown, rs *RootSummary) {
	md.H2(rs.URL)
	md.PlainText("")

	rows := make([][]string, 0, len(rs.TypeCounts)+3)
	for _, typ := range rs.Types() {
		rows = append(rows, []string{typ.String(), strconv.Itoa(rs.TypeCounts[typ])})
	}
	rows = append(rows,
		[]string{"**total**", "**" + strconv.Itoa(rs.Total()) + "**"},
		[]string{"matched", strconv.Itoa(rs.Matched)},
		[]string{"cache hits", strconv.Itoa(rs.CacheHits)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(rs.Failures) > 0 {
		md.PlainText("**Failures**")
		md.PlainText("")
		md.BulletList(rs.Failures...)
		md.PlainText("")
	}

	if rs.Err != "" {
		md.PlainText("Traversal error: " + rs.Err)
		md.PlainText("")
	}
}
