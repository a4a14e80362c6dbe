package render

import (
	"regexp"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// lineBreakPattern matches raw newlines and markup tags such as <br/> or </p>.
var lineBreakPattern = regexp.MustCompile(`<[a-zA-Z/][^>\n]*>|\r\n|\n`)

// SplitLines splits s on raw newlines and markup tags. The separators,
// tag text included, are dropped; a tag only ever marks a line boundary.
func SplitLines(s string) []string {
	return lineBreakPattern.Split(s, -1)
}

// NormalizeBreaks replaces span t of run r with one span per line, joined by
// explicit line breaks. It returns the spans now standing where t was; t itself
// is returned unchanged when it holds a single line.
func NormalizeBreaks(r *xml.Run, t *xml.Text) []*xml.Text {
	lines := SplitLines(t.Content)
	if len(lines) < 2 {
		return []*xml.Text{t}
	}

	spans := make([]*xml.Text, 0, len(lines))
	items := make([]xml.RunContent, 0, 2*len(lines)-1)
	for i, line := range lines {
		if i > 0 {
			items = append(items, &xml.Break{})
		}
		span := t.Clone()
		span.Space = "preserve"
		span.Content = line
		spans = append(spans, span)
		items = append(items, span)
	}
	r.Replace(t, items...)
	return spans
}
