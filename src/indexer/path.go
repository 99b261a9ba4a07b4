package indexer

import (
	"strings"
)

// StructuralError reports a backend section or key the caller depends on
// that is absent from the payload.
type StructuralError struct {
	Path string
}

func (e *StructuralError) Error() string {
	return "missing backend section: " + e.Path
}

// lookup finds key in n, falling back to a namespace-prefixed key with the
// same local name ("ns3:Output" for "Output") and back. Among several such
// keys the lexically first wins.
func lookup(n Node, key string) (any, bool) {
	if v, ok := n[key]; ok {
		return v, true
	}
	want := localName(key)
	found := ""
	for k := range n {
		if localName(k) == want && (found == "" || k < found) {
			found = k
		}
	}
	if found == "" {
		return nil, false
	}
	return n[found], true
}

func localName(k string) string {
	if i := strings.LastIndexByte(k, ':'); i >= 0 {
		return k[i+1:]
	}
	return k
}

// Get walks path through nested objects. Any missing step yields a
// *StructuralError naming the path walked so far.
func Get(n Node, path ...string) (any, error) {
	var cur any = n
	for i, key := range path {
		m, ok := cur.(Node)
		if !ok {
			return nil, &StructuralError{Path: strings.Join(path[:i], ".")}
		}
		v, ok := lookup(m, key)
		if !ok {
			return nil, &StructuralError{Path: strings.Join(path[:i+1], ".")}
		}
		cur = v
	}
	return cur, nil
}

// Section is Get for a value that must be an object.
func Section(n Node, path ...string) (Node, error) {
	v, err := Get(n, path...)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Node)
	if !ok {
		return nil, &StructuralError{Path: strings.Join(path, ".")}
	}
	return m, nil
}

// Opt returns the value at path or def when any step is missing or null.
func Opt(n Node, def any, path ...string) any {
	v, err := Get(n, path...)
	if err != nil || v == nil {
		return def
	}
	return v
}

// Has reports whether path resolves.
func Has(n Node, path ...string) bool {
	_, err := Get(n, path...)
	return err == nil
}

// String returns the value at path as a string, or "" when absent or not a string.
func String(n Node, path ...string) string {
	v, err := Get(n, path...)
	if err != nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return IDString(v)
}
