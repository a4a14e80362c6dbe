package render

import (
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// MarkerRange is a begin/end marker pair among one container's direct children.
type MarkerRange struct {
	Container xml.Container
	Begin     *xml.Paragraph
	// End is nil when no matching end marker exists; the body then runs to the
	// end of the container.
	End  *xml.Paragraph
	Body []xml.BodyElement
}

// FindMarkerRange finds the first paragraph among c's direct children whose text
// contains begin, and the end paragraph that matches it. Nested begin/end pairs
// in between are skipped. A paragraph holding both markers closes itself.
func FindMarkerRange(c xml.Container, begin, end string) (MarkerRange, bool) {
	blocks := c.Blocks()
	start := -1
	for i, el := range blocks {
		if p, ok := el.(*xml.Paragraph); ok && strings.Contains(p.Text(), begin) {
			start = i
			break
		}
	}
	if start < 0 {
		return MarkerRange{}, false
	}

	r := MarkerRange{Container: c, Begin: blocks[start].(*xml.Paragraph)}
	if strings.Contains(r.Begin.Text(), end) {
		r.End = r.Begin
		return r, true
	}

	depth := 0
	for i := start + 1; i < len(blocks); i++ {
		p, ok := blocks[i].(*xml.Paragraph)
		if !ok {
			continue
		}
		text := p.Text()
		opens, closes := strings.Contains(text, begin), strings.Contains(text, end)
		switch {
		case opens && closes:
		case opens:
			depth++
		case closes:
			if depth == 0 {
				r.End = p
				r.Body = append([]xml.BodyElement(nil), blocks[start+1:i]...)
				return r, true
			}
			depth--
		}
	}
	r.Body = append([]xml.BodyElement(nil), blocks[start+1:]...)
	return r, true
}

// FindFirstMarkerRange searches root and every table cell beneath it.
func FindFirstMarkerRange(root xml.Container, begin, end string) (MarkerRange, bool) {
	for _, c := range xml.Containers(root) {
		if r, ok := FindMarkerRange(c, begin, end); ok {
			return r, true
		}
	}
	return MarkerRange{}, false
}

// Markers returns the begin and end paragraphs, skipping a missing end.
func (r MarkerRange) Markers() []xml.BodyElement {
	if r.End == nil || r.End == r.Begin {
		return []xml.BodyElement{r.Begin}
	}
	return []xml.BodyElement{r.Begin, r.End}
}
