package wordfill

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/render"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

const (
	inlineIfOpen  = "{{if("
	inlineIfThen  = ")if"
	inlineIfClose = "endif}}"

	blockIfBegin = "@if"
	blockIfEnd   = "@endif"
)

// dateLayouts are tried in order when an operand is compared as a date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// compare evaluates "left op right". The left operand decides the type,
// first match wins: number, date, boolean, string. The right operand must
// parse as the same type or the result is false. Relational operators only
// apply to numbers and dates.
//
// Unless strict is set, boolean equality is inverted: == holds when the two
// booleans differ and != when they match. Existing templates depend on it.
func compare(left, op, right string, strict bool) bool {
	if lf, ok := parseNumber(left); ok {
		rf, ok := parseNumber(right)
		if !ok {
			return false
		}
		li, lerr := strconv.ParseInt(left, 10, 64)
		ri, rerr := strconv.ParseInt(right, 10, 64)
		if lerr == nil && rerr == nil {
			return ordered(op, compareInts(li, ri))
		}
		return ordered(op, compareFloats(lf, rf))
	}

	if lt, ok := parseDate(left); ok {
		rt, ok := parseDate(right)
		if !ok {
			return false
		}
		return ordered(op, lt.Compare(rt))
	}

	if lb, ok := parseBool(left); ok {
		rb, ok := parseBool(right)
		if !ok {
			return false
		}
		switch op {
		case "==":
			return (lb == rb) == strict
		case "!=":
			return (lb != rb) == strict
		}
		return false
	}

	switch op {
	case "==":
		return left == right
	case "!=":
		return left != right
	}
	return false
}

func ordered(op string, c int) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case ">":
		return c > 0
	case "<":
		return c < 0
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	}
	return false
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// truthy is the unary @if test.
func truthy(s string) bool {
	s = strings.TrimSpace(s)
	if b, ok := parseBool(s); ok {
		return b
	}
	if f, ok := parseNumber(s); ok {
		return f != 0
	}
	return s != ""
}

// operand renders an operand: a path that resolves to a scalar gives its text,
// anything else is used verbatim.
func (f *filler) operand(s string, scope *Scope) string {
	s = strings.TrimSpace(s)
	if v, ok := scope.Resolve(s); ok {
		if sc, ok := v.(Scalar); ok {
			if sc.Kind == TimeKind {
				return sc.Time.Format(time.RFC3339)
			}
			return sc.Format(f.cfg.DateLayout)
		}
	}
	return s
}

// evaluateInline rewrites every {{if(A,OP,B)if ... endif}} region of text.
// A true condition drops only the markers, a false one drops the region.
// The opening marker may be closed with "}}" and the closing one opened with
// "{{". Text with an unterminated region is returned as it stands.
func (f *filler) evaluateInline(text string, scope *Scope) string {
	for {
		start := strings.Index(text, inlineIfOpen)
		if start < 0 {
			return text
		}
		then := strings.Index(text[start:], inlineIfThen)
		if then < 0 {
			return text
		}
		then += start
		bodyStart := then + len(inlineIfThen)
		if strings.HasPrefix(text[bodyStart:], "}}") {
			bodyStart += 2
		}
		end := strings.Index(text[bodyStart:], inlineIfClose)
		if end < 0 {
			return text
		}
		end += bodyStart
		bodyEnd := end
		if bodyEnd-2 >= bodyStart && text[bodyEnd-2:bodyEnd] == "{{" {
			bodyEnd -= 2
		}
		regionEnd := end + len(inlineIfClose)

		args := strings.Split(text[start+len(inlineIfOpen):then], ",")
		keep := len(args) == 3 &&
			compare(f.operand(args[0], scope), strings.TrimSpace(args[1]), f.operand(args[2], scope), f.cfg.StrictBooleans)

		if keep {
			text = text[:start] + text[bodyStart:bodyEnd] + text[regionEnd:]
		} else {
			text = text[:start] + text[regionEnd:]
		}
	}
}

// blockCondition evaluates the statement of an @if paragraph: "@if A OP B"
// or the unary "@if A".
func (f *filler) blockCondition(text string, scope *Scope) bool {
	idx := strings.Index(text, blockIfBegin)
	if idx < 0 {
		return false
	}
	stmt := text[idx+len(blockIfBegin):]
	if end := strings.Index(stmt, blockIfEnd); end >= 0 {
		stmt = stmt[:end]
	}
	fields := strings.Fields(stmt)
	switch len(fields) {
	case 1:
		return truthy(f.operand(fields[0], scope))
	case 3:
		return compare(f.operand(fields[0], scope), fields[1], f.operand(fields[2], scope), f.cfg.StrictBooleans)
	}
	f.log.Debug("Malformed @if statement %q evaluates false", strings.TrimSpace(stmt))
	return false
}

// evaluateBlocks resolves every @if/@endif pair under root, outermost first.
// A false condition removes the markers and everything between them; a true
// one removes only the markers.
func (f *filler) evaluateBlocks(root xml.Container, scope *Scope) {
	for {
		r, ok := render.FindFirstMarkerRange(root, blockIfBegin, blockIfEnd)
		if !ok {
			return
		}
		remove := r.Markers()
		if !f.blockCondition(r.Begin.Text(), scope) {
			remove = append(remove, r.Body...)
		}
		xml.RemoveBlocks(r.Container, remove...)
	}
}
