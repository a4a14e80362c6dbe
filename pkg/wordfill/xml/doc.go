// Package xml provides the document tree model used by wordfill.
//
// A DOCX part (word/document.xml, word/headerN.xml, word/footerN.xml) is decoded into
// a pointer-based tree whose nodes keep their identity while the engine mutates it.
// Anything the engine does not need to understand is preserved verbatim as a
// RawXMLElement, so a decode/encode round trip keeps unknown markup intact.
//
// # Structure Organization
//
//   - types.go: Core interfaces (BodyElement, ParagraphContent, RunContent, Container)
//     and RawXMLElement
//   - document.go: Document and Body, ParseDocument, Marshal
//   - paragraph.go: Paragraph, Hyperlink, Bookmark and span enumeration
//   - run.go: Run, RunProperties, Text, Break, Tab, FieldChar, InstrText, Drawing
//   - table.go: Table, TableRow, TableCell
//   - encode.go: the prefix-aware serializer
//   - walk.go: snapshot traversal helpers
//
// # Key Concepts
//
// Container: anything that owns an ordered list of block elements. Body and TableCell
// are containers; block-range expansion works on a container's direct children.
//
// Span: a *Text owned by exactly one *Run. The engine holds on to spans by pointer, so
// clones are always deep and insertion never copies an existing node.
//
// # Usage
//
//	doc, err := xml.ParseDocument(bytes.NewReader(partXML))
//	if err != nil {
//	    return err
//	}
//	for _, p := range xml.Paragraphs(doc.Body.Elements) {
//	    fmt.Println(p.Text())
//	}
//	out, err := doc.Marshal()
//
// # XML Namespaces
//
// Names decoded from the source carry their namespace URI. The serializer maps URIs
// back to the prefixes declared on the part's root element and falls back to the
// conventional WordprocessingML prefixes for nodes created by the engine.
package xml
