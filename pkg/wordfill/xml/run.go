package xml

import (
	"encoding/xml"
	"io"
)

// Run represents a run of content sharing one set of run properties.
type Run struct {
	Properties *RunProperties
	Attrs      []xml.Attr
	Content    []RunContent
}

func (r *Run) isParagraphContent() {}

// UnmarshalXML implements custom XML unmarshaling to preserve unknown elements
func (r *Run) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	r.Attrs = append([]xml.Attr(nil), start.Attr...)
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
			switch t.Name.Local {
			case "rPr":
				var props RunProperties
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				r.Properties = &props
			case "t":
				var text Text
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, &text)
			case "instrText":
				var code InstrText
				if err := d.DecodeElement(&code, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, &code)
			case "br":
				var br Break
				if err := d.DecodeElement(&br, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, &br)
			case "tab":
				if err := d.Skip(); err != nil {
					return err
				}
				r.Content = append(r.Content, &Tab{})
			case "fldChar":
				raw, err := decodeRaw(d, t)
				if err != nil {
					return err
				}
				r.Content = append(r.Content, &FieldChar{RawXMLElement: *raw})
			case "drawing":
				raw, err := decodeRaw(d, t)
				if err != nil {
					return err
				}
				r.Content = append(r.Content, &Drawing{RawXMLElement: *raw})
			default:
				raw, err := decodeRaw(d, t)
				if err != nil {
					return err
				}
				r.Content = append(r.Content, raw)
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (r *Run) writeXML(e *encoder) {
	name := W("r")
	e.start(name, r.Attrs)
	if r.Properties != nil {
		r.Properties.writeXML(e)
	}
	for _, c := range r.Content {
		c.writeXML(e)
	}
	e.end(name)
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() *Run {
	c := r.CloneEmpty()
	for _, item := range r.Content {
		c.Content = append(c.Content, cloneRunContent(item))
	}
	return c
}

// CloneEmpty returns a run carrying a copy of r's properties and no content.
func (r *Run) CloneEmpty() *Run {
	return &Run{
		Properties: r.Properties.Clone(),
		Attrs:      append([]xml.Attr(nil), r.Attrs...),
	}
}

func cloneRunContent(item RunContent) RunContent {
	switch v := item.(type) {
	case *Text:
		return v.Clone()
	case *InstrText:
		c := *v
		return &c
	case *Break:
		c := *v
		return &c
	case *Tab:
		return &Tab{}
	case *FieldChar:
		return &FieldChar{RawXMLElement: *v.RawXMLElement.Clone()}
	case *Drawing:
		return &Drawing{RawXMLElement: *v.RawXMLElement.Clone()}
	case *RawXMLElement:
		return v.Clone()
	}
	return item
}

// IsPlainText reports whether every child of the run is a text span.
// A run holding nothing but properties counts as plain text.
func (r *Run) IsPlainText() bool {
	for _, c := range r.Content {
		if _, ok := c.(*Text); !ok {
			return false
		}
	}
	return true
}

// IndexOf returns the position of item in the run, or -1.
func (r *Run) IndexOf(item RunContent) int {
	for i, c := range r.Content {
		if c == item {
			return i
		}
	}
	return -1
}

// Replace substitutes item with the given content, in place. It reports false
// when item is not part of the run.
func (r *Run) Replace(item RunContent, with ...RunContent) bool {
	idx := r.IndexOf(item)
	if idx < 0 {
		return false
	}
	out := make([]RunContent, 0, len(r.Content)-1+len(with))
	out = append(out, r.Content[:idx]...)
	out = append(out, with...)
	out = append(out, r.Content[idx+1:]...)
	r.Content = out
	return true
}

// InsertBefore inserts item before anchor, or appends it when anchor is missing.
func (r *Run) InsertBefore(anchor, item RunContent) {
	idx := r.IndexOf(anchor)
	if idx < 0 {
		r.Content = append(r.Content, item)
		return
	}
	r.Content = insertAt(r.Content, idx, item)
}

// Remove deletes item from the run.
func (r *Run) Remove(item RunContent) {
	r.Replace(item)
}

// RunProperties keeps the children of w:rPr in source order.
type RunProperties struct {
	Elements []*RawXMLElement
}

// UnmarshalXML implements custom XML unmarshaling for run properties
func (rp *RunProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			raw, err := decodeRaw(d, t)
			if err != nil {
				return err
			}
			rp.Elements = append(rp.Elements, raw)
		case xml.EndElement:
			return nil
		}
	}
}

func (rp *RunProperties) writeXML(e *encoder) {
	name := W("rPr")
	if len(rp.Elements) == 0 {
		e.empty(name, nil)
		return
	}
	e.start(name, nil)
	for _, el := range rp.Elements {
		el.writeXML(e)
	}
	e.end(name)
}

// Clone returns a deep copy, or nil for nil properties.
func (rp *RunProperties) Clone() *RunProperties {
	if rp == nil {
		return nil
	}
	c := &RunProperties{Elements: make([]*RawXMLElement, 0, len(rp.Elements))}
	for _, el := range rp.Elements {
		c.Elements = append(c.Elements, el.Clone())
	}
	return c
}

// Get returns the property element with the given local name.
func (rp *RunProperties) Get(local string) *RawXMLElement {
	if rp == nil {
		return nil
	}
	for _, el := range rp.Elements {
		if el.Name.Local == local {
			return el
		}
	}
	return nil
}

// rPr child order from the schema; Word rejects properties out of sequence.
var runPropertyOrder = []string{
	"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike", "dstrike",
	"outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid", "vanish", "webHidden",
	"color", "spacing", "w", "kern", "position", "sz", "szCs", "highlight", "u", "effect",
	"bdr", "shd", "fitText", "vertAlign", "rtl", "cs", "em", "lang", "eastAsianLayout",
	"specVanish", "oMath",
}

func propertyRank(local string) int {
	for i, name := range runPropertyOrder {
		if name == local {
			return i
		}
	}
	return len(runPropertyOrder)
}

// Set replaces or inserts the w:<local> property with the given attributes.
func (rp *RunProperties) Set(local string, attrs ...xml.Attr) {
	el := &RawXMLElement{Name: W(local), Attrs: attrs}
	for i, existing := range rp.Elements {
		if existing.Name.Local == local {
			rp.Elements[i] = el
			return
		}
	}
	rank := propertyRank(local)
	for i, existing := range rp.Elements {
		if propertyRank(existing.Name.Local) > rank {
			rp.Elements = insertAt(rp.Elements, i, el)
			return
		}
	}
	rp.Elements = append(rp.Elements, el)
}

// Text represents a text span (w:t).
type Text struct {
	Space   string `xml:"space,attr,omitempty"`
	Content string `xml:",chardata"`
}

func (t *Text) isRunContent() {}

func (t *Text) writeXML(e *encoder) { e.textElement(W("t"), t.Space, t.Content) }

// Clone returns a copy of the span.
func (t *Text) Clone() *Text {
	c := *t
	return &c
}

// NewText returns a whitespace-preserving text span.
func NewText(s string) *Text {
	return &Text{Space: "preserve", Content: s}
}

// InstrText is a field-code instruction span (w:instrText).
type InstrText struct {
	Space   string `xml:"space,attr,omitempty"`
	Content string `xml:",chardata"`
}

func (it *InstrText) isRunContent() {}

func (it *InstrText) writeXML(e *encoder) { e.textElement(W("instrText"), it.Space, it.Content) }

// Break represents a break (w:br).
type Break struct {
	Type  string `xml:"type,attr,omitempty"`
	Clear string `xml:"clear,attr,omitempty"`
}

func (b *Break) isRunContent() {}

func (b *Break) writeXML(e *encoder) {
	var attrs []xml.Attr
	if b.Type != "" {
		attrs = append(attrs, WAttr("type", b.Type))
	}
	if b.Clear != "" {
		attrs = append(attrs, WAttr("clear", b.Clear))
	}
	e.empty(W("br"), attrs)
}

// Tab represents a tab character (w:tab).
type Tab struct{}

func (t *Tab) isRunContent() {}

func (t *Tab) writeXML(e *encoder) { e.empty(W("tab"), nil) }

// FieldChar is a complex field boundary (w:fldChar).
type FieldChar struct {
	RawXMLElement
}

func (f *FieldChar) isRunContent() {}

func (f *FieldChar) writeXML(e *encoder) { f.RawXMLElement.writeXML(e) }

// Type returns the fldCharType attribute: begin, separate or end.
func (f *FieldChar) Type() string { return f.Attr("fldCharType") }

// Drawing is an inline or anchored drawing (w:drawing).
type Drawing struct {
	RawXMLElement
}

func (dr *Drawing) isRunContent() {}

func (dr *Drawing) writeXML(e *encoder) { dr.RawXMLElement.writeXML(e) }
