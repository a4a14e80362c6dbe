package xml

import (
	"encoding/xml"
)

// Namespace URIs used by the nodes the engine creates.
const (
	NamespaceW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceXML = "http://www.w3.org/XML/1998/namespace"
	NamespaceWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NamespaceA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespacePic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// conventionalPrefixes maps well-known namespace URIs to the prefixes Word uses.
var conventionalPrefixes = map[string]string{
	NamespaceW:   "w",
	NamespaceR:   "r",
	NamespaceXML: "xml",
	NamespaceWP:  "wp",
	NamespaceA:   "a",
	NamespacePic: "pic",
	"http://schemas.openxmlformats.org/officeDocument/2006/math":          "m",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing": "wp14",
	"http://schemas.openxmlformats.org/markup-compatibility/2006":         "mc",
	"urn:schemas-microsoft-com:vml":                                       "v",
	"urn:schemas-microsoft-com:office:office":                             "o",
	"urn:schemas-microsoft-com:office:word":                               "w10",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingShape":    "wps",
	"http://schemas.microsoft.com/office/word/2010/wordml":                "w14",
	"http://schemas.microsoft.com/office/word/2012/wordml":                "w15",
}

// BodyElement is a block-level node: a paragraph, a table or preserved raw markup.
type BodyElement interface {
	isBodyElement()
	writeXML(e *encoder)
}

// ParagraphContent is anything that can appear directly inside a paragraph.
type ParagraphContent interface {
	isParagraphContent()
	writeXML(e *encoder)
}

// RunContent is anything that can appear inside a run, after its properties.
type RunContent interface {
	isRunContent()
	writeXML(e *encoder)
}

// Container owns an ordered list of block elements.
type Container interface {
	Blocks() []BodyElement
	SetBlocks(blocks []BodyElement)
}

// RawXMLElement is an element preserved verbatim. Inner holds the element's
// inner markup exactly as it appeared in the source.
type RawXMLElement struct {
	Name  xml.Name
	Attrs []xml.Attr
	Inner []byte
}

func (r *RawXMLElement) isBodyElement()      {}
func (r *RawXMLElement) isParagraphContent() {}
func (r *RawXMLElement) isRunContent()       {}

// Attr returns the value of the attribute with the given local name.
func (r *RawXMLElement) Attr(local string) string {
	if r == nil {
		return ""
	}
	for _, a := range r.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Clone returns a deep copy.
func (r *RawXMLElement) Clone() *RawXMLElement {
	if r == nil {
		return nil
	}
	c := &RawXMLElement{Name: r.Name}
	c.Attrs = append([]xml.Attr(nil), r.Attrs...)
	c.Inner = append([]byte(nil), r.Inner...)
	return c
}

func (r *RawXMLElement) writeXML(e *encoder) {
	if len(r.Inner) == 0 {
		e.empty(r.Name, r.Attrs)
		return
	}
	e.start(r.Name, r.Attrs)
	e.raw(r.Inner)
	e.end(r.Name)
}

// W returns a name in the WordprocessingML namespace.
func W(local string) xml.Name {
	return xml.Name{Space: NamespaceW, Local: local}
}

// WAttr returns a w:-prefixed attribute.
func WAttr(local, value string) xml.Attr {
	return xml.Attr{Name: W(local), Value: value}
}

// NewRaw builds a raw element in the w namespace with the given attributes and inner markup.
func NewRaw(local string, inner string, attrs ...xml.Attr) *RawXMLElement {
	return &RawXMLElement{Name: W(local), Attrs: attrs, Inner: []byte(inner)}
}

// decodeRaw captures the element that starts with start as a RawXMLElement.
func decodeRaw(d *xml.Decoder, start xml.StartElement) (*RawXMLElement, error) {
	var v struct {
		Inner []byte `xml:",innerxml"`
	}
	if err := d.DecodeElement(&v, &start); err != nil {
		return nil, err
	}
	return &RawXMLElement{
		Name:  start.Name,
		Attrs: append([]xml.Attr(nil), start.Attr...),
		Inner: v.Inner,
	}, nil
}
