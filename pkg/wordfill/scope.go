package wordfill

import "strings"

// Scope resolves binding paths. Each scope holds a field map and falls back
// to its parent, so loop bodies see both the current element and outer names.
type Scope struct {
	vars   Map
	parent *Scope
}

// NewScope returns the root scope over data.
func NewScope(data Data) *Scope {
	return &Scope{vars: Map(data)}
}

// With returns a child scope whose vars shadow s.
func (s *Scope) With(vars Map) *Scope {
	return &Scope{vars: vars, parent: s}
}

// Resolve looks path up in the scope chain, innermost first. Within one scope
// the longest dotted prefix that is itself a key wins and the remaining
// segments descend into it, so keys such as "items.name" bound by a row
// expansion shadow a walk through "items". A missing step yields false.
func (s *Scope) Resolve(path string) (Value, bool) {
	if path == "" {
		return nil, false
	}
	segs := strings.Split(path, ".")
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := lookup(sc.vars, segs); ok {
			return v, true
		}
	}
	return nil, false
}

func lookup(vars Map, segs []string) (Value, bool) {
	for i := len(segs); i >= 1; i-- {
		v, ok := vars[strings.Join(segs[:i], ".")]
		if !ok {
			continue
		}
		if i == len(segs) {
			return v, true
		}
		if v, ok := Resolve(v, strings.Join(segs[i:], ".")); ok {
			return v, true
		}
	}
	return nil, false
}

// Resolve descends from root along a dotted path. Maps and Records are
// entered by key; any other value, lists included, ends the walk and the
// path is absent.
func Resolve(root Value, path string) (Value, bool) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		var fields Map
		switch v := cur.(type) {
		case Map:
			fields = v
		case Record:
			if v.Object == nil {
				return nil, false
			}
			fields = v.AsMap()
		default:
			return nil, false
		}
		next, ok := fields[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// fieldsOf returns the named fields of a map-like value, or nil.
func fieldsOf(v Value) Map {
	switch v := v.(type) {
	case Map:
		return v
	case Record:
		if v.Object != nil {
			return v.AsMap()
		}
	}
	return nil
}

// prefixed returns the fields of v keyed "prefix.field".
func prefixed(prefix string, v Value) Map {
	fields := fieldsOf(v)
	out := make(Map, len(fields))
	for k, field := range fields {
		out[prefix+"."+k] = field
	}
	return out
}

// elementScope binds one loop element: its fields plain and prefixed with
// path. A non-map element is bound to path itself.
func elementScope(parent *Scope, path string, el Value) *Scope {
	vars := prefixed(path, el)
	fields := fieldsOf(el)
	if fields == nil {
		vars[path] = el
	}
	for k, field := range fields {
		vars[k] = field
	}
	return parent.With(vars)
}
