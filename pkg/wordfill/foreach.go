package wordfill

import (
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/render"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

const (
	blockForeachBegin = "@foreach"
	blockForeachEnd   = "@endforeach"

	inlineForeachOpen  = "{{foreach"
	inlineForeachClose = "endforeach}}"
)

// foreachPathPattern reads the iteration path from an @foreach paragraph.
var foreachPathPattern = regexp.MustCompile(`\{\{([\p{L}\p{N}_]+(?:\.[\p{L}\p{N}_]+)*)\}\}`)

// foreachPath returns the iteration path named by an @foreach paragraph.
func foreachPath(text string) (string, bool) {
	m := foreachPathPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// expandForeach unrolls @foreach/@endforeach ranges under root until none
// is left. The marker paragraphs go away; a non-empty list repeats the body
// once per element, in order, and anything else removes the body. Inner
// ranges surface inside each instance and are unrolled with that element's
// scope.
func (f *filler) expandForeach(root xml.Container, scope *Scope) error {
	for {
		r, ok := render.FindFirstMarkerRange(root, blockForeachBegin, blockForeachEnd)
		if !ok {
			return nil
		}
		path, ok := foreachPath(r.Begin.Text())
		if !ok {
			return NewConfigurationError("@foreach", "no data path in %q", strings.TrimSpace(r.Begin.Text()))
		}

		blocks := r.Container.Blocks()
		start := xml.IndexOfBlock(blocks, r.Begin)
		stop := len(blocks)
		if r.End != nil {
			stop = xml.IndexOfBlock(blocks, r.End) + 1
		}
		pristine := xml.CloneBlocks(r.Body)

		var expanded []xml.BodyElement
		v, _ := scope.Resolve(path)
		if list, ok := v.(List); ok && len(list) > 0 {
			f.log.Debug("Expanding @foreach %q (%d elements)", path, len(list))
			for i, el := range list {
				nodes := r.Body
				if i > 0 {
					nodes = xml.CloneBlocks(pristine)
				}
				instance := &xml.Body{Elements: nodes}
				if err := f.fillInstance(instance, elementScope(scope, path, el)); err != nil {
					return err
				}
				expanded = append(expanded, instance.Elements...)
			}
		} else {
			f.log.Debug("@foreach %q has no elements, removing its body", path)
		}

		out := make([]xml.BodyElement, 0, len(blocks)-(stop-start)+len(expanded))
		out = append(out, blocks[:start]...)
		out = append(out, expanded...)
		out = append(out, blocks[stop:]...)
		r.Container.SetBlocks(out)
	}
}

// fillInstance fills one loop instance with the element's scope: nested
// loops, tables, @if blocks, then text and field codes.
func (f *filler) fillInstance(instance *xml.Body, scope *Scope) error {
	if err := f.expandForeach(instance, scope); err != nil {
		return err
	}
	if err := f.expandTables(instance.Elements, scope); err != nil {
		return err
	}
	f.evaluateBlocks(instance, scope)
	if err := f.substituteBlocks(instance.Elements, scope); err != nil {
		return err
	}
	f.substituteFieldCodes(instance.Elements, scope)
	return nil
}
