package render

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// DefaultHealLimit is the longest accumulation, in characters, that healing rewrites.
const DefaultHealLimit = 1000

var simpleTagPattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// HealParagraph repairs every tag of p that is fragmented across spans: first
// proactively, then by targeted healing of whatever tags still straddle spans
// within a coalesced group. The paragraph's flattened text never changes.
// It returns the number of repairs made.
func HealParagraph(p *xml.Paragraph, limit int) int {
	healed := HealFragmentedTags(p, limit)
	for {
		progress := false
		for _, g := range CoalesceSpans(p) {
			for _, r := range tagRanges(g.Text) {
				if utf8.RuneCountInString(g.Text[r[0]:r[1]]) > limit {
					continue
				}
				if healRange(g, r[0], r[1]) {
					progress = true
					break
				}
			}
			if progress {
				break
			}
		}
		if !progress {
			return healed
		}
		healed++
	}
}

// HealSubstring makes the first occurrence of sub in the group's text live in a
// single span. Straddled spans are blanked, or truncated to their remainder.
// It reports whether any span changed.
func HealSubstring(g SpanGroup, sub string) bool {
	if sub == "" {
		return false
	}
	idx := strings.Index(g.Text, sub)
	if idx < 0 {
		return false
	}
	return healRange(g, idx, idx+len(sub))
}

func healRange(g SpanGroup, start, end int) bool {
	si, so := g.locate(start)
	ei, eo := g.locate(end - 1)
	if si < 0 || ei < 0 || si == ei {
		return false
	}

	first := g.Spans[si]
	first.Content = first.Content[:so] + g.Text[start:end]
	for i := si + 1; i < ei; i++ {
		g.Spans[i].Content = ""
	}
	last := g.Spans[ei]
	last.Content = last.Content[eo+1:]
	return true
}

// tagRanges returns the byte ranges of the tags in text: inline foreach and if
// regions first, then plain {{...}} tags.
func tagRanges(text string) [][2]int {
	var ranges [][2]int
	ranges = appendRegions(ranges, text, "{{foreach", "endforeach}}")
	ranges = appendRegions(ranges, text, "{{if(", "endif}}")
	for _, m := range simpleTagPattern.FindAllStringIndex(text, -1) {
		ranges = append(ranges, [2]int{m[0], m[1]})
	}
	return ranges
}

func appendRegions(ranges [][2]int, text, open, close string) [][2]int {
	from := 0
	for {
		i := strings.Index(text[from:], open)
		if i < 0 {
			return ranges
		}
		start := from + i
		j := strings.Index(text[start+len(open):], close)
		if j < 0 {
			return ranges
		}
		end := start + len(open) + j + len(close)
		ranges = append(ranges, [2]int{start, end})
		from = end
	}
}

// HealFragmentedTags scans the paragraph's spans in order. Once a span's text
// starts with "{" it accumulates following spans until the buffer holds a
// balanced tag, then puts the whole buffer into a clone of the first span,
// inserted before it, and blanks every contributing span. Buffers longer than
// limit characters are left untouched. It returns the number of tags healed.
func HealFragmentedTags(p *xml.Paragraph, limit int) int {
	var (
		sb     strings.Builder
		pool   []xml.SpanRef
		active bool
		healed int
	)

	for _, s := range p.Spans() {
		if !active {
			if !strings.HasPrefix(strings.TrimLeftFunc(s.Text.Content, unicode.IsSpace), "{") {
				continue
			}
			active = true
		}
		sb.WriteString(s.Text.Content)
		pool = append(pool, s)

		buf := sb.String()
		if !balancedTag(buf) {
			continue
		}
		// A single contributing span is already whole.
		if len(pool) > 1 && utf8.RuneCountInString(buf) <= limit {
			head := pool[0]
			clone := head.Text.Clone()
			clone.Content = buf
			head.Run.InsertBefore(head.Text, clone)
			for _, c := range pool {
				c.Text.Content = ""
			}
			healed++
		}
		sb.Reset()
		pool = nil
		active = false
	}
	return healed
}

func balancedTag(buf string) bool {
	s := strings.TrimLeftFunc(buf, unicode.IsSpace)
	if !strings.HasPrefix(s, "{{") || !strings.Contains(s, "}}") {
		return false
	}
	if strings.Count(s, "{{foreach") != strings.Count(s, "endforeach}}") {
		return false
	}
	return strings.Count(s, "{{if") == strings.Count(s, "endif}}")
}
