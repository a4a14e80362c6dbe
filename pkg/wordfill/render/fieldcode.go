package render

import (
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// DefaultFieldCodeMasks lists the field instructions merged by default.
var DefaultFieldCodeMasks = []string{`\s*DisplayBarcode\s*`}

// SimplifyFieldCodes merges field instructions that Word split over several runs.
// After a run holding a begin field char, the instruction spans of the following
// runs are concatenated; when the result matches one of masks it is stored in
// the first span and the others are removed. It returns the number of fields merged.
func SimplifyFieldCodes(p *xml.Paragraph, masks []*regexp.Regexp) int {
	runs := p.Runs()
	merged := 0

	for i, r := range runs {
		if !hasFieldBegin(r) {
			continue
		}

		type owned struct {
			run  *xml.Run
			code *xml.InstrText
		}
		var codes []owned
		for j := i + 1; j < len(runs); j++ {
			code := firstInstrText(runs[j])
			if code == nil {
				break
			}
			codes = append(codes, owned{run: runs[j], code: code})
		}
		if len(codes) < 2 {
			continue
		}

		var sb strings.Builder
		for _, c := range codes {
			sb.WriteString(c.code.Content)
		}
		joined := sb.String()
		if !matchesAny(joined, masks) {
			continue
		}

		codes[0].code.Content = joined
		for _, c := range codes[1:] {
			c.run.Remove(c.code)
		}
		merged++
	}
	return merged
}

// CompileMasks compiles field-code masks, skipping patterns that do not compile.
func CompileMasks(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}

func matchesAny(s string, masks []*regexp.Regexp) bool {
	for _, m := range masks {
		if m.MatchString(s) {
			return true
		}
	}
	return false
}

func hasFieldBegin(r *xml.Run) bool {
	for _, c := range r.Content {
		if fc, ok := c.(*xml.FieldChar); ok && fc.Type() == "begin" {
			return true
		}
	}
	return false
}

func firstInstrText(r *xml.Run) *xml.InstrText {
	for _, c := range r.Content {
		if it, ok := c.(*xml.InstrText); ok {
			return it
		}
	}
	return nil
}
