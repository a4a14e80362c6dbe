package xml

// The helpers below return snapshots: slices built before the caller starts
// mutating, so insertions and removals never disturb an ongoing traversal.

// Paragraphs returns every paragraph under elements in document order,
// descending into table cells.
func Paragraphs(elements []BodyElement) []*Paragraph {
	var out []*Paragraph
	for _, el := range elements {
		switch v := el.(type) {
		case *Paragraph:
			out = append(out, v)
		case *Table:
			for _, row := range v.Rows {
				out = append(out, row.Paragraphs()...)
			}
		}
	}
	return out
}

// Tables returns every table under elements in document order. An outer table
// precedes the tables nested in its cells.
func Tables(elements []BodyElement) []*Table {
	var out []*Table
	for _, el := range elements {
		if t, ok := el.(*Table); ok {
			out = append(out, t)
			for _, row := range t.Rows {
				for _, cell := range row.Cells {
					out = append(out, Tables(cell.Elements)...)
				}
			}
		}
	}
	return out
}

// Containers returns root followed by every table cell beneath it, in document order.
func Containers(root Container) []Container {
	out := []Container{root}
	for _, t := range Tables(root.Blocks()) {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				out = append(out, cell)
			}
		}
	}
	return out
}

// ContainersIn returns every table cell container found under elements.
func ContainersIn(elements []BodyElement) []Container {
	var out []Container
	for _, t := range Tables(elements) {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				out = append(out, cell)
			}
		}
	}
	return out
}

// CloneBlock returns a deep copy of a block element.
func CloneBlock(el BodyElement) BodyElement {
	switch v := el.(type) {
	case *Paragraph:
		return v.Clone()
	case *Table:
		return v.Clone()
	case *RawXMLElement:
		return v.Clone()
	}
	return el
}

// CloneBlocks deep-copies a list of block elements.
func CloneBlocks(elements []BodyElement) []BodyElement {
	out := make([]BodyElement, 0, len(elements))
	for _, el := range elements {
		out = append(out, CloneBlock(el))
	}
	return out
}

// IndexOfBlock returns the position of el among blocks, or -1.
func IndexOfBlock(blocks []BodyElement, el BodyElement) int {
	for i, b := range blocks {
		if b == el {
			return i
		}
	}
	return -1
}

// InsertBlocksAfter inserts items after anchor in c, or appends them when anchor
// is not a direct child of c.
func InsertBlocksAfter(c Container, anchor BodyElement, items ...BodyElement) {
	blocks := c.Blocks()
	idx := IndexOfBlock(blocks, anchor)
	if idx < 0 {
		c.SetBlocks(append(blocks, items...))
		return
	}
	c.SetBlocks(insertAt(blocks, idx+1, items...))
}

// RemoveBlocks deletes every listed element from c.
func RemoveBlocks(c Container, items ...BodyElement) {
	if len(items) == 0 {
		return
	}
	drop := make(map[BodyElement]bool, len(items))
	for _, it := range items {
		drop[it] = true
	}
	blocks := c.Blocks()
	kept := make([]BodyElement, 0, len(blocks))
	for _, b := range blocks {
		if !drop[b] {
			kept = append(kept, b)
		}
	}
	c.SetBlocks(kept)
}
