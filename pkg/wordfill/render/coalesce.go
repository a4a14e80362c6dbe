package render

import (
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// markerElements are empty paragraph children that never carry text, such as
// the spelling marks Word drops between the halves of a word.
var markerElements = map[string]bool{
	"proofErr":  true,
	"permStart": true,
	"permEnd":   true,
}

// SpanGroup is a maximal run of contiguous plain-text spans within a paragraph.
// Runs[i] owns Spans[i].
type SpanGroup struct {
	Text  string
	Runs  []*xml.Run
	Spans []*xml.Text
}

// CoalesceSpans groups the paragraph's contiguous plain-text spans. A run that
// holds anything besides text ends the current group; bookmarks and
// proofing marks do not.
// Hyperlinks end the group too and their own runs are grouped separately.
func CoalesceSpans(p *xml.Paragraph) []SpanGroup {
	return coalesce(p.Content, nil)
}

func coalesce(content []xml.ParagraphContent, groups []SpanGroup) []SpanGroup {
	var (
		sb    strings.Builder
		runs  []*xml.Run
		spans []*xml.Text
	)
	flush := func() {
		if len(spans) > 0 {
			groups = append(groups, SpanGroup{Text: sb.String(), Runs: runs, Spans: spans})
		}
		sb.Reset()
		runs, spans = nil, nil
	}

	for _, item := range content {
		switch v := item.(type) {
		case *xml.Run:
			if !v.IsPlainText() {
				flush()
				continue
			}
			for _, c := range v.Content {
				t := c.(*xml.Text)
				sb.WriteString(t.Content)
				runs = append(runs, v)
				spans = append(spans, t)
			}
		case *xml.Bookmark:
			// transparent
		case *xml.Hyperlink:
			flush()
			groups = coalesce(v.Content, groups)
		case *xml.RawXMLElement:
			if !markerElements[v.Name.Local] {
				flush()
			}
		default:
			flush()
		}
	}
	flush()
	return groups
}

// locate maps an offset in g.Text to the index of the span holding that byte
// and the offset inside the span. Empty spans never hold a byte.
func (g SpanGroup) locate(offset int) (int, int) {
	pos := 0
	for i, s := range g.Spans {
		n := len(s.Content)
		if offset < pos+n {
			return i, offset - pos
		}
		pos += n
	}
	return -1, 0
}
