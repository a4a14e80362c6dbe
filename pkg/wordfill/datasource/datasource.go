// Package datasource builds template data from JSON, YAML and SQLite.
//
// Objects carrying a "_type" key become rich values:
//
//	{"_type": "hyperlink", "url": "https://example.com", "text": "Example"}
//	{"_type": "color", "text": "Overdue", "color": "#FF0000", "highlight": "#FFFF00"}
//	{"_type": "picture", "path": "logo.png", "width": 120, "height": 40}
//	{"_type": "foreach", "entries": [{"fields": {"name": "a"}, "separator": ", "}]}
package datasource

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

// Format names a data file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// typeKey marks an object as a rich value.
const typeKey = "_type"

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported data file %q: want .json, .yaml or .yml", path)
}

// LoadFile reads a JSON or YAML data file. Relative picture paths resolve
// against the file's directory.
func LoadFile(path string) (wordfill.Data, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, wordfill.NewDocumentError("open data", path, err)
	}
	defer f.Close()

	data, err := Decode(f, format, filepath.Dir(path))
	if err != nil {
		return nil, wordfill.NewDocumentError("decode data", path, err)
	}
	return data, nil
}

// LoadFiles reads every file and merges them in order.
func LoadFiles(paths ...string) (wordfill.Data, error) {
	out := wordfill.Data{}
	for _, p := range paths {
		data, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		Merge(out, data)
	}
	return out, nil
}

// Decode reads one document in the given format. baseDir anchors relative
// picture paths; empty leaves them as written.
func Decode(r io.Reader, format Format, baseDir string) (wordfill.Data, error) {
	var root map[string]any
	var err error
	switch format {
	case FormatJSON:
		root, err = decodeJSON(r)
	case FormatYAML:
		root, err = decodeYAML(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	c := converter{baseDir: baseDir}
	data := make(wordfill.Data, len(root))
	for k, v := range root {
		val, err := c.convert(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		data[k] = val
	}
	return data, nil
}

// Merge copies src into dst; keys of src replace those of dst.
func Merge(dst, src wordfill.Data) {
	for k, v := range src {
		dst[k] = v
	}
}

type converter struct {
	baseDir string
}

func (c converter) convert(v any) (wordfill.Value, error) {
	switch x := v.(type) {
	case map[string]any:
		return c.object(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = item
		}
		return c.object(m)
	case []any:
		list := make(wordfill.List, len(x))
		for i, item := range x {
			val, err := c.convert(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = val
		}
		return list, nil
	}
	return wordfill.FromAny(v), nil
}

func (c converter) object(m map[string]any) (wordfill.Value, error) {
	typ, _ := m[typeKey].(string)
	switch strings.ToLower(typ) {
	case "":
		out := make(wordfill.Map, len(m))
		for k, item := range m {
			val, err := c.convert(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = val
		}
		return out, nil
	case "hyperlink", "link":
		return wordfill.Hyperlink{
			URL:         str(m["url"]),
			Text:        str(m["text"]),
			TargetFrame: str(m["target_frame"]),
			Underline:   str(m["underline"]),
		}, nil
	case "color", "colored_text":
		return wordfill.ColoredText{
			Text:      str(m["text"]),
			Color:     str(m["color"]),
			Highlight: str(m["highlight"]),
		}, nil
	case "picture", "image":
		return c.picture(m)
	case "foreach":
		return c.foreach(m)
	}
	return nil, fmt.Errorf("unknown %s %q", typeKey, typ)
}

func (c converter) picture(m map[string]any) (wordfill.Value, error) {
	pic := wordfill.Picture{
		Path:             str(m["path"]),
		Extension:        str(m["extension"]),
		Width:            int(num(m["width"])),
		Height:           int(num(m["height"])),
		Anchor:           boolean(m["anchor"]),
		BehindDoc:        boolean(m["behind_doc"]),
		AllowOverlap:     boolean(m["allow_overlap"]),
		HorizontalOffset: num(m["horizontal_offset"]),
		VerticalOffset:   num(m["vertical_offset"]),
	}
	if b64 := str(m["base64"]); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("picture base64: %w", err)
		}
		pic.Bytes = data
	}
	if pic.Path != "" && c.baseDir != "" && !filepath.IsAbs(pic.Path) {
		pic.Path = filepath.Join(c.baseDir, pic.Path)
	}
	if pic.Path == "" && len(pic.Bytes) == 0 {
		return nil, fmt.Errorf("picture needs a path or base64 data")
	}
	return pic, nil
}

func (c converter) foreach(m map[string]any) (wordfill.Value, error) {
	raw, _ := m["entries"].([]any)
	separator := str(m["separator"])
	list := wordfill.ForeachList{}
	for i, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("foreach entry %d is not an object", i)
		}
		fields := entry
		sep := separator
		if inner, ok := entry["fields"].(map[string]any); ok {
			fields = inner
			if s, ok := entry["separator"]; ok {
				sep = str(s)
			}
		}
		val, err := c.object(fields)
		if err != nil {
			return nil, fmt.Errorf("foreach entry %d: %w", i, err)
		}
		fm, ok := val.(wordfill.Map)
		if !ok {
			return nil, fmt.Errorf("foreach entry %d must hold plain fields", i)
		}
		list.Entries = append(list.Entries, wordfill.ForeachEntry{Fields: fm, Separator: sep})
	}
	return list, nil
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func num(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	case fmt.Stringer:
		n, _ := strconv.ParseFloat(x.String(), 64)
		return int64(n)
	}
	return 0
}

func boolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

// Keys returns the top-level keys of data in sorted order.
func Keys(data wordfill.Data) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
