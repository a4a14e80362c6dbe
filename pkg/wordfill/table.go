package wordfill

import (
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// maxRowRoots is the number of distinct list roots one table row may bind.
const maxRowRoots = 2

var (
	// rowMarkerReplacer strips control markers before a row's bindings are read.
	rowMarkerReplacer = strings.NewReplacer(
		"{{foreach", "",
		"endforeach}}", "",
		inlineIfOpen, "",
		inlineIfThen, "",
		inlineIfClose, "",
	)
	dottedTokenPattern = regexp.MustCompile(`\{\{([^{}]*\.[^{}]*)\}\}`)
	bindingPathPattern = regexp.MustCompile(`^[\p{L}\p{N}_]+(?:\.[\p{L}\p{N}_]+)+$`)
)

// rowBindings returns the distinct dotted paths of a row's text in order of
// appearance, and the distinct binding roots (each path minus its last segment).
func rowBindings(text string) (paths, roots []string) {
	text = rowMarkerReplacer.Replace(text)
	seenPath := make(map[string]bool)
	seenRoot := make(map[string]bool)
	for _, m := range dottedTokenPattern.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(m[1])
		if !bindingPathPattern.MatchString(path) || seenPath[path] {
			continue
		}
		seenPath[path] = true
		paths = append(paths, path)
		root := path[:strings.LastIndex(path, ".")]
		if !seenRoot[root] {
			seenRoot[root] = true
			roots = append(roots, root)
		}
	}
	return paths, roots
}

// checkRow reports a ConfigurationError when the row binds too many lists.
func checkRow(row *xml.TableRow, location string) error {
	_, roots := rowBindings(row.Text())
	if len(roots) > maxRowRoots {
		return NewConfigurationError(location,
			"table row binds %d list roots (%s), at most %d are supported",
			len(roots), strings.Join(roots, ", "), maxRowRoots)
	}
	return nil
}

// expandTables runs the row expander over every table among elements whose
// text holds a placeholder. Tables nested in a cell are expanded with the
// scope of the row that holds them, once that row is filled.
func (f *filler) expandTables(elements []xml.BodyElement, scope *Scope) error {
	for _, el := range elements {
		t, ok := el.(*xml.Table)
		if !ok || !strings.Contains(t.Text(), "{{") {
			continue
		}
		if err := f.expandTable(t, scope); err != nil {
			return err
		}
	}
	return nil
}

// expandTable expands the table's rows. The row list is snapshotted first:
// clones are inserted while the template rows are walked.
func (f *filler) expandTable(t *xml.Table, scope *Scope) error {
	rows := append([]*xml.TableRow(nil), t.Rows...)
	for i, row := range rows {
		if err := checkRow(row, rowLocation(i)); err != nil {
			return err
		}
		if err := f.expandRow(t, row, scope); err != nil {
			return err
		}
	}
	return nil
}

func (f *filler) expandRow(t *xml.Table, row *xml.TableRow, scope *Scope) error {
	text := row.Text()
	paths, roots := rowBindings(text)
	if len(paths) == 0 {
		if strings.Contains(text, "{{") {
			return f.fillRow(row, scope)
		}
		return nil
	}

	root := roots[0]
	v, ok := scope.Resolve(root)
	if !ok {
		f.log.Debug("Row binding %q is absent, row left unchanged", root)
		return nil
	}

	switch v := v.(type) {
	case List:
		f.log.Debug("Expanding row over %q (%d elements)", root, len(v))
		for _, el := range v {
			clone := row.Clone()
			if err := f.fillRow(clone, scope.With(prefixed(root, el))); err != nil {
				return err
			}
			t.InsertRowBefore(row, clone)
		}
		t.RemoveRow(row)
		return nil
	case ForeachList:
		return f.fillRow(row, scope)
	default:
		return f.fillRow(row, scope.With(prefixed(root, v)))
	}
}

// fillRow expands the tables nested in the row's cells and evaluates their
// @if blocks, then substitutes the row's text and field codes.
func (f *filler) fillRow(row *xml.TableRow, scope *Scope) error {
	for _, cell := range row.Cells {
		if err := f.expandTables(cell.Elements, scope); err != nil {
			return err
		}
		f.evaluateBlocks(cell, scope)
	}
	var blocks []xml.BodyElement
	for _, cell := range row.Cells {
		blocks = append(blocks, cell.Elements...)
	}
	if err := f.substituteBlocks(blocks, scope); err != nil {
		return err
	}
	f.substituteFieldCodes(blocks, scope)
	return nil
}
