// Package mapping projects backend payloads into the gateway's field
// vocabulary so they can be compared with gateway references.
package mapping

import (
	"fmt"
	"strings"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/normalize"
)

// reader reads fields from one backend section and keeps the first
// missing-key error, so a mapper can read a whole section before checking.
type reader struct {
	node indexer.Node
	name string
	err  error
}

func newReader(n indexer.Node, name string) *reader {
	return &reader{node: n, name: name}
}

// sub opens a nested section. A missing section poisons the returned reader.
func (r *reader) sub(path ...string) *reader {
	name := r.name + "." + strings.Join(path, ".")
	if r.err != nil {
		return &reader{name: name, err: r.err}
	}
	sec, err := indexer.Section(r.node, path...)
	if err != nil {
		return &reader{name: name, err: &indexer.StructuralError{Path: name}}
	}
	return &reader{node: sec, name: name}
}

// req returns a required field.
func (r *reader) req(key string) any {
	if r.err != nil {
		return nil
	}
	v, err := indexer.Get(r.node, key)
	if err != nil {
		r.err = &indexer.StructuralError{Path: r.name + "." + key}
		return nil
	}
	return v
}

// opt returns a field, or def when the key is absent.
func (r *reader) opt(key string, def any) any {
	if r.err != nil {
		return nil
	}
	if !indexer.Has(r.node, key) {
		return def
	}
	v, _ := indexer.Get(r.node, key)
	return v
}

// or returns a required field, replacing nil or empty values with def.
func (r *reader) or(key string, def any) any {
	v := r.req(key)
	if r.err != nil {
		return nil
	}
	if empty(v) {
		return def
	}
	return v
}

func (r *reader) float(key string) float64 {
	v := r.req(key)
	if r.err != nil {
		return 0
	}
	f, err := toFloat(v)
	if err != nil {
		r.err = fmt.Errorf("%s.%s: %w", r.name, key, err)
	}
	return f
}

func (r *reader) str(key string) string {
	v := r.req(key)
	if v == nil {
		return ""
	}
	return indexer.IDString(v)
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func toFloat(v any) (float64, error) {
	f, ok := normalize.Float(v)
	if !ok {
		return 0, fmt.Errorf("cannot convert %q to float", fmt.Sprint(v))
	}
	return f, nil
}
