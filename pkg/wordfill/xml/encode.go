package xml

import (
	"bytes"
	"encoding/xml"
)

// encoder writes tree nodes back to WordprocessingML. Names carry namespace URIs
// after decoding, so every name is mapped back to a prefix on the way out.
// encoding/xml's Encoder cannot emit raw inner markup or chosen prefixes, hence
// the hand-written writer.
type encoder struct {
	buf      bytes.Buffer
	prefixes map[string]string
}

func newEncoder(declared map[string]string) *encoder {
	return &encoder{prefixes: declared}
}

func (e *encoder) qname(n xml.Name) string {
	switch {
	case n.Space == "":
		return n.Local
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	}
	if p, ok := e.prefixes[n.Space]; ok {
		if p == "" {
			return n.Local
		}
		return p + ":" + n.Local
	}
	if p, ok := conventionalPrefixes[n.Space]; ok {
		return p + ":" + n.Local
	}
	// An undeclared prefix is kept as decoded.
	return n.Space + ":" + n.Local
}

func (e *encoder) attrs(attrs []xml.Attr) {
	for _, a := range attrs {
		e.buf.WriteByte(' ')
		e.buf.WriteString(e.qname(a.Name))
		e.buf.WriteString(`="`)
		xml.EscapeText(&e.buf, []byte(a.Value))
		e.buf.WriteByte('"')
	}
}

func (e *encoder) start(n xml.Name, attrs []xml.Attr) {
	e.buf.WriteByte('<')
	e.buf.WriteString(e.qname(n))
	e.attrs(attrs)
	e.buf.WriteByte('>')
}

func (e *encoder) empty(n xml.Name, attrs []xml.Attr) {
	e.buf.WriteByte('<')
	e.buf.WriteString(e.qname(n))
	e.attrs(attrs)
	e.buf.WriteString("/>")
}

func (e *encoder) end(n xml.Name) {
	e.buf.WriteString("</")
	e.buf.WriteString(e.qname(n))
	e.buf.WriteByte('>')
}

func (e *encoder) text(s string) {
	xml.EscapeText(&e.buf, []byte(s))
}

func (e *encoder) raw(b []byte) {
	e.buf.Write(b)
}

// textElement writes a w:t or w:instrText style element, preserving whitespace.
func (e *encoder) textElement(n xml.Name, space, content string) {
	var attrs []xml.Attr
	if space != "" || needsPreserve(content) {
		if space == "" {
			space = "preserve"
		}
		attrs = []xml.Attr{{Name: xml.Name{Space: NamespaceXML, Local: "space"}, Value: space}}
	}
	e.start(n, attrs)
	e.text(content)
	e.end(n)
}

func needsPreserve(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == ' ' || first == '\t' || last == ' ' || last == '\t'
}
