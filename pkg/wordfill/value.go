package wordfill

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout is the layout used to render time scalars.
const DefaultDateLayout = "2006-01-02 15:04:05"

// emuPerPixel converts pixel sizes to English Metric Units.
const emuPerPixel = 9525

// Value is one node of the data graph bound into a template. The set of
// implementations is closed: Scalar, List, Map, Record, Hyperlink,
// ColoredText, Picture and ForeachList.
type Value interface {
	isValue()
}

// ScalarKind tells which field of a Scalar is meaningful.
type ScalarKind int

const (
	StringKind ScalarKind = iota
	IntKind
	FloatKind
	BoolKind
	TimeKind
)

// Scalar is a leaf value.
type Scalar struct {
	Kind  ScalarKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
}

func StringValue(s string) Scalar  { return Scalar{Kind: StringKind, Str: s} }
func IntValue(i int64) Scalar      { return Scalar{Kind: IntKind, Int: i} }
func FloatValue(f float64) Scalar  { return Scalar{Kind: FloatKind, Float: f} }
func BoolValue(b bool) Scalar      { return Scalar{Kind: BoolKind, Bool: b} }
func TimeValue(t time.Time) Scalar { return Scalar{Kind: TimeKind, Time: t} }

func (s Scalar) isValue()       {}
func (s Scalar) String() string { return s.Format(DefaultDateLayout) }

// Format renders the scalar as document text. Times use layout.
func (s Scalar) Format(layout string) string {
	switch s.Kind {
	case IntKind:
		return strconv.FormatInt(s.Int, 10)
	case FloatKind:
		return strconv.FormatFloat(s.Float, 'f', -1, 64)
	case BoolKind:
		return strconv.FormatBool(s.Bool)
	case TimeKind:
		if layout == "" {
			layout = DefaultDateLayout
		}
		return s.Time.Format(layout)
	default:
		return s.Str
	}
}

// List is an ordered sequence of values.
type List []Value

func (List) isValue() {}

// Map binds names to values.
type Map map[string]Value

func (Map) isValue() {}

// AsMap lets a Map stand wherever an Object is expected.
func (m Map) AsMap() Map { return m }

// Object is implemented by host types that bind as a set of named fields.
type Object interface {
	AsMap() Map
}

// Record places an Object in the data graph.
type Record struct {
	Object
}

func (Record) isValue() {}

// Hyperlink renders as a clickable link.
type Hyperlink struct {
	URL  string
	Text string
	// TargetFrame is the w:tgtFrame of the link, e.g. "_blank". Empty means none.
	TargetFrame string
	// Underline is the w:u value of the link run. Empty means "single".
	Underline string
}

func (Hyperlink) isValue() {}

// ColoredText renders as a run with explicit foreground and highlight colours.
// Colours are hex RGB, with or without a leading '#'.
type ColoredText struct {
	Text      string
	Color     string
	Highlight string
}

func (ColoredText) isValue() {}

// Picture renders as an embedded image. Bytes take precedence over Path.
type Picture struct {
	Path      string
	Bytes     []byte
	Extension string
	// Width and Height are in pixels; zero means 400.
	Width  int
	Height int
	// Anchor places the picture as a floating drawing instead of inline.
	Anchor       bool
	BehindDoc    bool
	AllowOverlap bool
	// HorizontalOffset and VerticalOffset position an anchored picture, in pixels.
	HorizontalOffset int64
	VerticalOffset   int64
}

func (Picture) isValue() {}

// Data loads the picture bytes, reading Path when Bytes is empty.
func (p Picture) Data() ([]byte, error) {
	if len(p.Bytes) > 0 {
		return p.Bytes, nil
	}
	if p.Path == "" {
		return nil, fmt.Errorf("picture has neither bytes nor path")
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, NewDocumentError("read image", p.Path, err)
	}
	return data, nil
}

// Ext returns the lower-case image extension without the dot.
func (p Picture) Ext() string {
	ext := p.Extension
	if ext == "" {
		ext = filepath.Ext(p.Path)
	}
	switch ext = strings.ToLower(strings.TrimPrefix(ext, ".")); ext {
	case "":
		return "png"
	case "jpeg":
		return "jpg"
	}
	return ext
}

func (p Picture) cx() int64 { return int64(orDefault(p.Width, 400)) * emuPerPixel }
func (p Picture) cy() int64 { return int64(orDefault(p.Height, 400)) * emuPerPixel }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ForeachEntry is one item of a ForeachList.
type ForeachEntry struct {
	Fields Map
	// Separator is written after this entry when another non-empty entry follows.
	Separator string
}

// ForeachList renders inline between {{foreach and endforeach}}: each entry
// fills the segment with its fields and the results are joined.
type ForeachList struct {
	Entries []ForeachEntry
}

func (ForeachList) isValue() {}

// Data is the top-level data graph: names to values.
type Data map[string]Value

// NewData converts a plain Go map into Data.
func NewData(m map[string]any) Data {
	d := make(Data, len(m))
	for k, v := range m {
		d[k] = FromAny(v)
	}
	return d
}

// FromAny converts decoded JSON/YAML trees and plain Go collections into a Value.
// Values that already are a Value are returned as is; nil becomes an empty string.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return StringValue("")
	case Value:
		return x
	case Object:
		return Record{Object: x}
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return unsignedValue(uint64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return unsignedValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntValue(i)
		}
		if f, err := x.Float64(); err == nil {
			return FloatValue(f)
		}
		return StringValue(x.String())
	case time.Time:
		return TimeValue(x)
	case []string:
		out := make(List, len(x))
		for i, s := range x {
			out[i] = StringValue(s)
		}
		return out
	case []any:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = FromAny(item)
		}
		return out
	case []map[string]any:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = FromAny(item)
		}
		return out
	case []Hyperlink:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = item
		}
		return out
	case []ColoredText:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = item
		}
		return out
	case []Picture:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = item
		}
		return out
	case map[string]any:
		out := make(Map, len(x))
		for k, item := range x {
			out[k] = FromAny(item)
		}
		return out
	case map[string]string:
		out := make(Map, len(x))
		for k, item := range x {
			out[k] = StringValue(item)
		}
		return out
	case fmt.Stringer:
		return StringValue(x.String())
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// unsignedValue keeps values beyond the int64 range exact as text.
func unsignedValue(x uint64) Scalar {
	if x > math.MaxInt64 {
		return StringValue(strconv.FormatUint(x, 10))
	}
	return IntValue(int64(x))
}
