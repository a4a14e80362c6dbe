package wordfill

import (
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/render"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// tokenPattern matches one {{key}} placeholder.
var tokenPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// listKind classifies the items of a bound list.
type listKind int

const (
	listMixed listKind = iota
	listScalars
	listInline
	listPictures
)

func classify(list List) listKind {
	kind := listMixed
	for i, item := range list {
		var k listKind
		switch item.(type) {
		case Scalar:
			k = listScalars
		case Hyperlink, ColoredText:
			k = listInline
		case Picture:
			k = listPictures
		default:
			return listMixed
		}
		if i > 0 && k != kind {
			return listMixed
		}
		kind = k
	}
	return kind
}

// substituteBlocks replaces the placeholders of every paragraph under elements.
func (f *filler) substituteBlocks(elements []xml.BodyElement, scope *Scope) error {
	for _, p := range xml.Paragraphs(elements) {
		if err := f.substituteParagraph(p, scope); err != nil {
			return err
		}
	}
	return nil
}

func (f *filler) substituteParagraph(p *xml.Paragraph, scope *Scope) error {
	if !strings.Contains(p.Text(), "{{") {
		return nil
	}
	for _, s := range p.Spans() {
		if !strings.Contains(s.Text.Content, "{{") {
			continue
		}
		r := ownerRun(p, s.Text)
		if r == nil {
			continue
		}
		if err := f.substituteSpan(p, r, s.Text, scope, 0, false); err != nil {
			return err
		}
	}
	return nil
}

// ownerRun finds the run currently holding t. Inline payloads move content
// into new runs, so a span's owner can change while a paragraph is filled.
func ownerRun(p *xml.Paragraph, t *xml.Text) *xml.Run {
	for _, r := range p.Runs() {
		if r.IndexOf(t) >= 0 {
			return r
		}
	}
	return nil
}

// substituteSpan replaces the placeholders of span t, left to right. Scalars
// are written in place. A list of scalars turns the span into one copy per
// item separated by line breaks; links and coloured text are placed beside
// the run; pictures become drawings inside it. Unknown keys stay literal.
func (f *filler) substituteSpan(p *xml.Paragraph, r *xml.Run, t *xml.Text, scope *Scope, depth int, dirty bool) error {
	text := f.expandInlineForeach(t.Content, scope)
	changed := dirty || text != t.Content

	var out strings.Builder
	pos := 0
	for {
		loc := tokenPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		key := strings.TrimSpace(text[pos+loc[2] : pos+loc[3]])

		v, ok := scope.Resolve(key)
		if !ok {
			out.WriteString(text[pos:end])
			pos = end
			continue
		}

		before := out.String() + text[pos:start]
		rest := text[end:]
		switch v := v.(type) {
		case Scalar:
			out.WriteString(text[pos:start])
			out.WriteString(v.Format(f.cfg.DateLayout))
			pos, changed = end, true
			continue
		case Hyperlink, ColoredText:
			return f.substituteInline(p, r, t, before, List{v}, rest, scope, depth)
		case Picture:
			return f.substitutePictures(p, r, t, before, List{v}, rest, scope, depth)
		case List:
			switch {
			case len(v) == 0:
				out.WriteString(text[pos:start])
				pos, changed = end, true
				continue
			case classify(v) == listScalars:
				return f.substituteLines(p, r, t, before, v, rest, scope, depth)
			case classify(v) == listInline:
				return f.substituteInline(p, r, t, before, v, rest, scope, depth)
			case classify(v) == listPictures:
				return f.substitutePictures(p, r, t, before, v, rest, scope, depth)
			}
		}
		f.log.Debug("Placeholder %q is bound to a structured value, left as is", key)
		out.WriteString(text[pos:end])
		pos = end
	}
	out.WriteString(text[pos:])
	if !changed && strings.Contains(text, inlineIfOpen) {
		changed = f.evaluateInline(text, scope) != text
	}

	if changed {
		t.Content = out.String()
		f.finalize(r, t, scope)
	}
	return nil
}

// finalize resolves inline conditionals and turns newlines and markup breaks
// into explicit breaks.
func (f *filler) finalize(r *xml.Run, t *xml.Text, scope *Scope) {
	t.Content = f.evaluateInline(t.Content, scope)
	render.NormalizeBreaks(r, t)
}

// continueSpan carries on with the text left after a payload.
func (f *filler) continueSpan(p *xml.Paragraph, t *xml.Text, scope *Scope, depth int) error {
	r := ownerRun(p, t)
	if r == nil {
		return nil
	}
	return f.substituteSpan(p, r, t, scope, depth, true)
}

// substituteLines replaces t with one copy per item, joined by line breaks.
// Each copy is filled again so later placeholders in the span are honoured.
func (f *filler) substituteLines(p *xml.Paragraph, r *xml.Run, t *xml.Text, before string, items List, rest string, scope *Scope, depth int) error {
	copies := make([]*xml.Text, len(items))
	with := make([]xml.RunContent, 0, 2*len(items)-1)
	for i, item := range items {
		c := t.Clone()
		c.Content = before + item.(Scalar).Format(f.cfg.DateLayout) + rest
		copies[i] = c
		if i > 0 {
			with = append(with, &xml.Break{})
		}
		with = append(with, c)
	}
	r.Replace(t, with...)

	for _, c := range copies {
		if depth+1 >= f.cfg.MaxRenderDepth {
			f.log.Warn("Maximum render depth %d reached, remaining placeholders left as is", f.cfg.MaxRenderDepth)
			if owner := ownerRun(p, c); owner != nil {
				f.finalize(owner, c, scope)
			}
			continue
		}
		owner := ownerRun(p, c)
		if owner == nil {
			continue
		}
		if err := f.substituteSpan(p, owner, c, scope, depth+1, true); err != nil {
			return err
		}
	}
	return nil
}

// substituteInline places hyperlinks and coloured runs at paragraph level
// where the placeholder was, splitting r around them.
func (f *filler) substituteInline(p *xml.Paragraph, r *xml.Run, t *xml.Text, before string, items List, rest string, scope *Scope, depth int) error {
	var nodes []xml.ParagraphContent
	for i, item := range items {
		if i > 0 {
			nodes = append(nodes, breakRun(r))
		}
		switch v := item.(type) {
		case Hyperlink:
			nodes = append(nodes, hyperlinkElement(v, f.res.AddHyperlink(v.URL)))
		case ColoredText:
			nodes = append(nodes, coloredRun(r, v))
		}
	}

	anchor := &xml.Text{}
	tail := t.Clone()
	tail.Content = rest
	with := []xml.RunContent{t, anchor}
	if rest != "" {
		with = append(with, tail)
	}
	r.Replace(t, with...)
	render.ReplaceWithInline(p, r, anchor, nodes...)

	f.settle(r, t, before, scope)
	if rest == "" {
		return nil
	}
	return f.continueSpan(p, tail, scope, depth)
}

// substitutePictures puts one drawing per picture into r where the
// placeholder was.
func (f *filler) substitutePictures(p *xml.Paragraph, r *xml.Run, t *xml.Text, before string, items List, rest string, scope *Scope, depth int) error {
	with := []xml.RunContent{t}
	for _, item := range items {
		pic := item.(Picture)
		data, err := pic.Data()
		if err != nil {
			return err
		}
		relID, err := f.res.AddImage(data, pic.Ext())
		if err != nil {
			return NewDocumentError("embed image", pic.Path, err)
		}
		f.drawings++
		with = append(with, drawingElement(pic, relID, f.drawings))
		if len(items) > 1 {
			with = append(with, xml.NewText(" "))
		}
	}
	tail := t.Clone()
	tail.Content = rest
	if rest != "" {
		with = append(with, tail)
	}
	r.Replace(t, with...)

	f.settle(r, t, before, scope)
	if rest == "" {
		return nil
	}
	return f.continueSpan(p, tail, scope, depth)
}

// settle gives t the text preceding a payload, dropping t when that is empty.
func (f *filler) settle(r *xml.Run, t *xml.Text, before string, scope *Scope) {
	if before == "" {
		r.Remove(t)
		return
	}
	t.Content = before
	f.finalize(r, t, scope)
}

// expandInlineForeach renders the {{foreach ... endforeach}} segments of text
// once per entry of the ForeachList they reference. Text without markers is
// treated as one segment when it references a ForeachList.
func (f *filler) expandInlineForeach(text string, scope *Scope) string {
	if !strings.Contains(text, inlineForeachOpen) {
		if expanded, ok := f.renderForeachSegment(text, scope); ok {
			return expanded
		}
		return text
	}
	for {
		start := strings.Index(text, inlineForeachOpen)
		if start < 0 {
			return text
		}
		end := strings.Index(text[start:], inlineForeachClose)
		if end < 0 {
			return text
		}
		end += start
		segment := text[start+len(inlineForeachOpen) : end]
		if expanded, ok := f.renderForeachSegment(segment, scope); ok {
			segment = expanded
		}
		text = text[:start] + segment + text[end+len(inlineForeachClose):]
	}
}

// renderForeachSegment fills segment once per entry of the first ForeachList
// one of its {{list.field}} placeholders points into. Empty results are
// skipped; each entry's separator follows it when another result comes next.
func (f *filler) renderForeachSegment(segment string, scope *Scope) (string, bool) {
	key, list, ok := foreachListOf(segment, scope)
	if !ok {
		return "", false
	}

	var parts, seps []string
	for _, entry := range list.Entries {
		es := scope.With(prefixed(key, entry.Fields))
		filled := f.evaluateInline(f.scalarText(segment, es), es)
		if filled == "" {
			continue
		}
		parts = append(parts, filled)
		seps = append(seps, entry.Separator)
	}

	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteString(seps[i-1])
		}
		sb.WriteString(part)
	}
	return sb.String(), true
}

func foreachListOf(text string, scope *Scope) (string, ForeachList, bool) {
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(m[1])
		dot := strings.LastIndex(path, ".")
		if dot <= 0 {
			continue
		}
		key := path[:dot]
		if v, ok := scope.Resolve(key); ok {
			if list, ok := v.(ForeachList); ok {
				return key, list, true
			}
		}
	}
	return "", ForeachList{}, false
}

// scalarText replaces the placeholders of text that resolve to scalars.
func (f *filler) scalarText(text string, scope *Scope) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		key := strings.TrimSpace(tok[2 : len(tok)-2])
		if v, ok := scope.Resolve(key); ok {
			if s, ok := v.(Scalar); ok {
				return s.Format(f.cfg.DateLayout)
			}
		}
		return tok
	})
}

// substituteFieldCodes replaces placeholders inside field instructions.
// Only string values are written there.
func (f *filler) substituteFieldCodes(elements []xml.BodyElement, scope *Scope) {
	for _, p := range xml.Paragraphs(elements) {
		for _, code := range p.FieldCodes() {
			if !strings.Contains(code.Content, "{{") {
				continue
			}
			code.Content = tokenPattern.ReplaceAllStringFunc(code.Content, func(tok string) string {
				key := strings.TrimSpace(tok[2 : len(tok)-2])
				if v, ok := scope.Resolve(key); ok {
					if s, ok := v.(Scalar); ok && s.Kind == StringKind {
						return s.Str
					}
				}
				return tok
			})
		}
	}
}
