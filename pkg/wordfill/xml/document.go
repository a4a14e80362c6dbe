package xml

import (
	"encoding/xml"
	"fmt"
	"io"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Document is one decoded WordprocessingML part. For word/document.xml the
// blocks live under <w:body>; header and footer parts (<w:hdr>, <w:ftr>) hold
// their blocks directly under the root, which is recorded in Bare.
type Document struct {
	Name  xml.Name
	Attrs []xml.Attr
	// Leading keeps root children that precede the body (e.g. w:background).
	Leading []*RawXMLElement
	Body    *Body
	Bare    bool
}

// UnmarshalXML implements custom XML unmarshaling to preserve root attributes and order
func (doc *Document) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	doc.Name = start.Name
	doc.Attrs = append([]xml.Attr(nil), start.Attr...)
	doc.Bare = start.Name.Local == "hdr" || start.Name.Local == "ftr"
	if doc.Bare {
		doc.Body = &Body{}
	}

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
			if doc.Bare {
				el, err := decodeBlock(d, t)
				if err != nil {
					return err
				}
				doc.Body.Elements = append(doc.Body.Elements, el)
				continue
			}
			if t.Name.Local == "body" {
				var body Body
				if err := d.DecodeElement(&body, &t); err != nil {
					return err
				}
				doc.Body = &body
				continue
			}
			raw, err := decodeRaw(d, t)
			if err != nil {
				return err
			}
			doc.Leading = append(doc.Leading, raw)
		case xml.EndElement:
			return nil
		}
	}
}

// declaredPrefixes returns the namespace URI -> prefix map declared on the root.
func (doc *Document) declaredPrefixes() map[string]string {
	prefixes := make(map[string]string)
	for _, a := range doc.Attrs {
		switch {
		case a.Name.Space == "xmlns":
			prefixes[a.Value] = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefixes[a.Value] = ""
		}
	}
	return prefixes
}

// Marshal serializes the part, including the XML declaration.
func (doc *Document) Marshal() ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	e := newEncoder(doc.declaredPrefixes())
	e.raw([]byte(xmlHeader))

	name := doc.Name
	if name.Local == "" {
		name = W("document")
	}
	e.start(name, doc.Attrs)
	for _, raw := range doc.Leading {
		raw.writeXML(e)
	}
	if doc.Body != nil {
		if doc.Bare {
			for _, el := range doc.Body.Elements {
				el.writeXML(e)
			}
		} else {
			doc.Body.writeXML(e)
		}
	}
	e.end(name)
	return e.buf.Bytes(), nil
}

// Body represents the document body
type Body struct {
	// Elements maintains the order of all body elements
	Elements []BodyElement
	// SectionProperties at the end of the body (critical for Word compatibility)
	SectionProperties *RawXMLElement
}

// Blocks implements Container.
func (b *Body) Blocks() []BodyElement { return b.Elements }

// SetBlocks implements Container.
func (b *Body) SetBlocks(blocks []BodyElement) { b.Elements = blocks }

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			if t.Name.Local == "sectPr" {
				raw, err := decodeRaw(d, t)
				if err != nil {
					return err
				}
				b.SectionProperties = raw
				continue
			}
			el, err := decodeBlock(d, t)
			if err != nil {
				return err
			}
			b.Elements = append(b.Elements, el)
		case xml.EndElement:
			return nil
		}
	}
}

func (b *Body) writeXML(e *encoder) {
	name := W("body")
	e.start(name, nil)
	for _, el := range b.Elements {
		el.writeXML(e)
	}
	if b.SectionProperties != nil {
		b.SectionProperties.writeXML(e)
	}
	e.end(name)
}

// decodeBlock decodes one block-level element.
func decodeBlock(d *xml.Decoder, t xml.StartElement) (BodyElement, error) {
	switch t.Name.Local {
	case "p":
		var para Paragraph
		if err := d.DecodeElement(&para, &t); err != nil {
			return nil, err
		}
		return &para, nil
	case "tbl":
		var table Table
		if err := d.DecodeElement(&table, &t); err != nil {
			return nil, err
		}
		return &table, nil
	default:
		return decodeRaw(d, t)
	}
}

// ParseDocument parses a WordprocessingML part (document, header or footer).
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Body == nil {
		doc.Body = &Body{}
	}

	return &doc, nil
}
