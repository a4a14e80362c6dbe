package wordfill

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

func quietLogger() *Logger {
	return NewLogger(io.Discard, LogOff)
}

func testConfig() *Config {
	return NewConfigWithDefaults(&Config{})
}

func testFiller(res Resources) *filler {
	return newFiller(testConfig(), quietLogger(), res)
}

// parseBody parses body markup as the body of word/document.xml.
func parseBody(t *testing.T, body string) *xml.Document {
	t.Helper()
	doc, err := xml.ParseDocument(strings.NewReader(docxtest.Document(body)))
	require.NoError(t, err)
	return doc
}

// fillBody parses body, fills it and returns the document.
func fillBody(t *testing.T, body string, data Data) *xml.Document {
	t.Helper()
	doc := parseBody(t, body)
	require.NoError(t, testFiller(nil).fillPart(doc.Body, NewScope(data)))
	return doc
}

// flatten renders a paragraph for assertions: breaks become "\n", drawings
// "[drawing]" and hyperlinks are wrapped in angle brackets.
func flatten(p *xml.Paragraph) string {
	var sb strings.Builder
	runText := func(r *xml.Run) {
		for _, c := range r.Content {
			switch v := c.(type) {
			case *xml.Text:
				sb.WriteString(v.Content)
			case *xml.Break:
				sb.WriteString("\n")
			case *xml.Drawing:
				sb.WriteString("[drawing]")
			}
		}
	}
	for _, item := range p.Content {
		switch v := item.(type) {
		case *xml.Run:
			runText(v)
		case *xml.Hyperlink:
			sb.WriteString("<")
			for _, c := range v.Content {
				if r, ok := c.(*xml.Run); ok {
					runText(r)
				}
			}
			sb.WriteString(">")
		}
	}
	return sb.String()
}

// texts flattens the top-level paragraphs of doc.
func texts(doc *xml.Document) []string {
	var out []string
	for _, el := range doc.Body.Elements {
		if p, ok := el.(*xml.Paragraph); ok {
			out = append(out, flatten(p))
		}
	}
	return out
}

// firstParagraph returns the first top-level paragraph of doc.
func firstParagraph(t *testing.T, doc *xml.Document) *xml.Paragraph {
	t.Helper()
	for _, el := range doc.Body.Elements {
		if p, ok := el.(*xml.Paragraph); ok {
			return p
		}
	}
	t.Fatal("document has no paragraph")
	return nil
}

// tableTexts flattens every cell of the n-th top-level table.
func tableTexts(t *testing.T, doc *xml.Document, n int) [][]string {
	t.Helper()
	tables := 0
	for _, el := range doc.Body.Elements {
		tbl, ok := el.(*xml.Table)
		if !ok {
			continue
		}
		if tables++; tables-1 != n {
			continue
		}
		var rows [][]string
		for _, row := range tbl.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var parts []string
				for _, p := range xml.Paragraphs(cell.Elements) {
					parts = append(parts, flatten(p))
				}
				cells = append(cells, strings.Join(parts, "|"))
			}
			rows = append(rows, cells)
		}
		return rows
	}
	t.Fatalf("table %d not found", n)
	return nil
}

func str(s string) Scalar { return StringValue(s) }

func items(names ...string) List {
	out := make(List, len(names))
	for i, n := range names {
		out[i] = Map{"name": str(n)}
	}
	return out
}
