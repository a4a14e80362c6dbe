package xml

import (
	"encoding/xml"
	"io"
	"strings"
)

// Paragraph represents a paragraph (w:p). Properties are kept raw; the engine
// never edits paragraph formatting.
type Paragraph struct {
	Properties *RawXMLElement
	Attrs      []xml.Attr
	Content    []ParagraphContent
}

func (p *Paragraph) isBodyElement() {}

// UnmarshalXML implements custom XML unmarshaling to preserve content order
func (p *Paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.Attrs = append([]xml.Attr(nil), start.Attr...)
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "pPr" {
				raw, err := decodeRaw(d, t)
				if err != nil {
					return err
				}
				p.Properties = raw
				continue
			}
			c, err := decodeInline(d, t)
			if err != nil {
				return err
			}
			p.Content = append(p.Content, c)
		case xml.EndElement:
			return nil
		}
	}
}

func (p *Paragraph) writeXML(e *encoder) {
	name := W("p")
	e.start(name, p.Attrs)
	if p.Properties != nil {
		p.Properties.writeXML(e)
	}
	for _, c := range p.Content {
		c.writeXML(e)
	}
	e.end(name)
}

// decodeInline decodes one paragraph-level element.
func decodeInline(d *xml.Decoder, t xml.StartElement) (ParagraphContent, error) {
	switch t.Name.Local {
	case "r":
		var run Run
		if err := d.DecodeElement(&run, &t); err != nil {
			return nil, err
		}
		return &run, nil
	case "hyperlink":
		var link Hyperlink
		if err := d.DecodeElement(&link, &t); err != nil {
			return nil, err
		}
		return &link, nil
	case "bookmarkStart", "bookmarkEnd":
		raw, err := decodeRaw(d, t)
		if err != nil {
			return nil, err
		}
		return &Bookmark{RawXMLElement: *raw}, nil
	default:
		return decodeRaw(d, t)
	}
}

// Clone returns a deep copy of the paragraph.
func (p *Paragraph) Clone() *Paragraph {
	c := &Paragraph{
		Properties: p.Properties.Clone(),
		Attrs:      append([]xml.Attr(nil), p.Attrs...),
		Content:    make([]ParagraphContent, 0, len(p.Content)),
	}
	for _, item := range p.Content {
		c.Content = append(c.Content, cloneInline(item))
	}
	return c
}

func cloneInline(item ParagraphContent) ParagraphContent {
	switch v := item.(type) {
	case *Run:
		return v.Clone()
	case *Hyperlink:
		return v.Clone()
	case *Bookmark:
		return &Bookmark{RawXMLElement: *v.RawXMLElement.Clone()}
	case *RawXMLElement:
		return v.Clone()
	}
	return item
}

// Runs returns every run in document order, including runs nested in hyperlinks.
func (p *Paragraph) Runs() []*Run {
	return collectRuns(p.Content, nil)
}

func collectRuns(content []ParagraphContent, out []*Run) []*Run {
	for _, item := range content {
		switch v := item.(type) {
		case *Run:
			out = append(out, v)
		case *Hyperlink:
			out = collectRuns(v.Content, out)
		}
	}
	return out
}

// SpanRef locates a text span together with the run that owns it.
type SpanRef struct {
	Run  *Run
	Text *Text
}

// Spans returns every text span of the paragraph in document order.
func (p *Paragraph) Spans() []SpanRef {
	var spans []SpanRef
	for _, r := range p.Runs() {
		for _, c := range r.Content {
			if t, ok := c.(*Text); ok {
				spans = append(spans, SpanRef{Run: r, Text: t})
			}
		}
	}
	return spans
}

// FieldCodes returns every field instruction span in document order.
func (p *Paragraph) FieldCodes() []*InstrText {
	var codes []*InstrText
	for _, r := range p.Runs() {
		for _, c := range r.Content {
			if it, ok := c.(*InstrText); ok {
				codes = append(codes, it)
			}
		}
	}
	return codes
}

// Text returns the flattened text of the paragraph.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, s := range p.Spans() {
		sb.WriteString(s.Text.Content)
	}
	return sb.String()
}

// IndexOf returns the index of item among the paragraph's direct children, or -1.
func (p *Paragraph) IndexOf(item ParagraphContent) int {
	for i, c := range p.Content {
		if c == item {
			return i
		}
	}
	return -1
}

// InsertAfter inserts items right after anchor. When anchor is not a direct
// child the items are appended.
func (p *Paragraph) InsertAfter(anchor ParagraphContent, items ...ParagraphContent) {
	idx := p.IndexOf(anchor)
	if idx < 0 {
		p.Content = append(p.Content, items...)
		return
	}
	p.Content = insertAt(p.Content, idx+1, items...)
}

// Parent returns the direct child of p that contains r: r itself or the
// hyperlink wrapping it. It returns nil when r is not part of p.
func (p *Paragraph) Parent(r *Run) ParagraphContent {
	for _, c := range p.Content {
		switch v := c.(type) {
		case *Run:
			if v == r {
				return v
			}
		case *Hyperlink:
			if v.IndexOf(r) >= 0 {
				return v
			}
		}
	}
	return nil
}

func insertAt[T any](list []T, idx int, items ...T) []T {
	out := make([]T, 0, len(list)+len(items))
	out = append(out, list[:idx]...)
	out = append(out, items...)
	return append(out, list[idx:]...)
}

// Hyperlink represents a hyperlink (w:hyperlink) wrapping runs.
type Hyperlink struct {
	Attrs   []xml.Attr
	Content []ParagraphContent
}

func (h *Hyperlink) isParagraphContent() {}

// UnmarshalXML implements custom XML unmarshaling for hyperlinks
func (h *Hyperlink) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	h.Attrs = append([]xml.Attr(nil), start.Attr...)
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			c, err := decodeInline(d, t)
			if err != nil {
				return err
			}
			h.Content = append(h.Content, c)
		case xml.EndElement:
			return nil
		}
	}
}

func (h *Hyperlink) writeXML(e *encoder) {
	name := W("hyperlink")
	e.start(name, h.Attrs)
	for _, c := range h.Content {
		c.writeXML(e)
	}
	e.end(name)
}

// Clone returns a deep copy of the hyperlink.
func (h *Hyperlink) Clone() *Hyperlink {
	c := &Hyperlink{Attrs: append([]xml.Attr(nil), h.Attrs...)}
	for _, item := range h.Content {
		c.Content = append(c.Content, cloneInline(item))
	}
	return c
}

// IndexOf returns the index of item among the hyperlink's children, or -1.
func (h *Hyperlink) IndexOf(item ParagraphContent) int {
	for i, c := range h.Content {
		if c == item {
			return i
		}
	}
	return -1
}

// Bookmark is a w:bookmarkStart or w:bookmarkEnd marker.
type Bookmark struct {
	RawXMLElement
}

func (b *Bookmark) isParagraphContent() {}

func (b *Bookmark) writeXML(e *encoder) { b.RawXMLElement.writeXML(e) }
