package xml

import (
	"encoding/xml"
	"io"
	"strings"
)

// Table represents a table (w:tbl). Table properties and the grid are kept raw.
type Table struct {
	Properties *RawXMLElement
	Grid       *RawXMLElement
	// Extra keeps other non-row children (e.g. bookmarks) ahead of the rows.
	Extra []*RawXMLElement
	Rows  []*TableRow
}

func (t *Table) isBodyElement() {}

// UnmarshalXML implements custom XML unmarshaling for tables
func (t *Table) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "tr":
				var row TableRow
				if err := d.DecodeElement(&row, &tok); err != nil {
					return err
				}
				t.Rows = append(t.Rows, &row)
			default:
				raw, err := decodeRaw(d, tok)
				if err != nil {
					return err
				}
				switch tok.Name.Local {
				case "tblPr":
					t.Properties = raw
				case "tblGrid":
					t.Grid = raw
				default:
					t.Extra = append(t.Extra, raw)
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (t *Table) writeXML(e *encoder) {
	name := W("tbl")
	e.start(name, nil)
	if t.Properties != nil {
		t.Properties.writeXML(e)
	}
	if t.Grid != nil {
		t.Grid.writeXML(e)
	}
	for _, raw := range t.Extra {
		raw.writeXML(e)
	}
	for _, row := range t.Rows {
		row.writeXML(e)
	}
	e.end(name)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Properties: t.Properties.Clone(),
		Grid:       t.Grid.Clone(),
	}
	for _, raw := range t.Extra {
		c.Extra = append(c.Extra, raw.Clone())
	}
	for _, row := range t.Rows {
		c.Rows = append(c.Rows, row.Clone())
	}
	return c
}

// IndexOf returns the position of row among the table's direct rows, or -1.
func (t *Table) IndexOf(row *TableRow) int {
	for i, r := range t.Rows {
		if r == row {
			return i
		}
	}
	return -1
}

// InsertRowBefore inserts row before anchor. When anchor is no longer a direct
// row of the table the row is appended at the end.
func (t *Table) InsertRowBefore(anchor, row *TableRow) {
	idx := t.IndexOf(anchor)
	if idx < 0 {
		t.Rows = append(t.Rows, row)
		return
	}
	t.Rows = insertAt(t.Rows, idx, row)
}

// RemoveRow deletes row from the table.
func (t *Table) RemoveRow(row *TableRow) {
	idx := t.IndexOf(row)
	if idx < 0 {
		return
	}
	t.Rows = append(t.Rows[:idx:idx], t.Rows[idx+1:]...)
}

// Text returns the flattened text of every row.
func (t *Table) Text() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		sb.WriteString(row.Text())
	}
	return sb.String()
}

// TableRow represents a table row (w:tr).
type TableRow struct {
	Attrs []xml.Attr
	// Properties keeps w:tblPrEx and w:trPr in source order.
	Properties []*RawXMLElement
	Cells      []*TableCell
}

// UnmarshalXML implements custom XML unmarshaling for table rows
func (r *TableRow) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			if t.Name.Local == "tc" {
				var cell TableCell
				if err := d.DecodeElement(&cell, &t); err != nil {
					return err
				}
				r.Cells = append(r.Cells, &cell)
				continue
			}
			raw, err := decodeRaw(d, t)
			if err != nil {
				return err
			}
			r.Properties = append(r.Properties, raw)
		case xml.EndElement:
			return nil
		}
	}
}

func (r *TableRow) writeXML(e *encoder) {
	name := W("tr")
	e.start(name, r.Attrs)
	for _, raw := range r.Properties {
		raw.writeXML(e)
	}
	for _, cell := range r.Cells {
		cell.writeXML(e)
	}
	e.end(name)
}

// Clone returns a deep copy of the row.
func (r *TableRow) Clone() *TableRow {
	c := &TableRow{Attrs: append([]xml.Attr(nil), r.Attrs...)}
	for _, raw := range r.Properties {
		c.Properties = append(c.Properties, raw.Clone())
	}
	for _, cell := range r.Cells {
		c.Cells = append(c.Cells, cell.Clone())
	}
	return c
}

// Text returns the flattened text of the row, nested tables included.
func (r *TableRow) Text() string {
	var sb strings.Builder
	for _, cell := range r.Cells {
		for _, p := range Paragraphs(cell.Elements) {
			sb.WriteString(p.Text())
		}
	}
	return sb.String()
}

// Paragraphs returns every paragraph of the row in document order.
func (r *TableRow) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, cell := range r.Cells {
		out = append(out, Paragraphs(cell.Elements)...)
	}
	return out
}

// TableCell represents a table cell (w:tc).
type TableCell struct {
	Properties *RawXMLElement
	Elements   []BodyElement
}

// Blocks implements Container.
func (c *TableCell) Blocks() []BodyElement { return c.Elements }

// SetBlocks implements Container. A cell always keeps at least one paragraph.
func (c *TableCell) SetBlocks(blocks []BodyElement) {
	if len(blocks) == 0 {
		blocks = []BodyElement{&Paragraph{}}
	}
	c.Elements = blocks
}

// UnmarshalXML implements custom XML unmarshaling for table cells
func (c *TableCell) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			if t.Name.Local == "tcPr" {
				raw, err := decodeRaw(d, t)
				if err != nil {
					return err
				}
				c.Properties = raw
				continue
			}
			el, err := decodeBlock(d, t)
			if err != nil {
				return err
			}
			c.Elements = append(c.Elements, el)
		case xml.EndElement:
			return nil
		}
	}
}

func (c *TableCell) writeXML(e *encoder) {
	name := W("tc")
	e.start(name, nil)
	if c.Properties != nil {
		c.Properties.writeXML(e)
	}
	for _, el := range c.Elements {
		el.writeXML(e)
	}
	e.end(name)
}

// Clone returns a deep copy of the cell.
func (c *TableCell) Clone() *TableCell {
	clone := &TableCell{Properties: c.Properties.Clone()}
	clone.Elements = CloneBlocks(c.Elements)
	return clone
}
