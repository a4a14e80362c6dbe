package render

import (
	"encoding/xml"

	wxml "github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// ReplaceWithInline removes item from run r and puts items in its place at
// paragraph level: r keeps the content before item, a new run with r's
// properties receives the content after it. When r sits inside a hyperlink
// the hyperlink is split the same way so the inserted items never nest in it.
func ReplaceWithInline(p *wxml.Paragraph, r *wxml.Run, item wxml.RunContent, items ...wxml.ParagraphContent) {
	idx := r.IndexOf(item)
	if idx < 0 {
		return
	}
	tail := r.CloneEmpty()
	tail.Content = append([]wxml.RunContent(nil), r.Content[idx+1:]...)
	r.Content = r.Content[:idx:idx]

	switch parent := p.Parent(r).(type) {
	case *wxml.Run:
		if len(tail.Content) > 0 {
			items = append(items, tail)
		}
		p.InsertAfter(r, items...)
	case *wxml.Hyperlink:
		hi := parent.IndexOf(r)
		rest := append([]wxml.ParagraphContent(nil), parent.Content[hi+1:]...)
		parent.Content = parent.Content[: hi+1 : hi+1]
		split := &wxml.Hyperlink{Attrs: append([]xml.Attr(nil), parent.Attrs...)}
		if len(tail.Content) > 0 {
			split.Content = append(split.Content, tail)
		}
		split.Content = append(split.Content, rest...)
		if len(split.Content) > 0 {
			items = append(items, split)
		}
		p.InsertAfter(parent, items...)
	default:
		p.Content = append(p.Content, items...)
	}
}
