// Package indexer turns backend collections into id-keyed mappings and
// provides path lookups over nested backend payloads.
package indexer

import (
	"fmt"
	"strconv"
)

// Node is one nested backend object.
type Node = map[string]any

type Shape int

const (
	Sequence Shape = iota
	Single
)

func (s Shape) String() string {
	if s == Single {
		return "single"
	}
	return "sequence"
}

// Collection is a backend collection resolved once into a uniform list.
// XML payloads carry a lone element as an object rather than a one-element
// list; Shape records which form arrived.
type Collection struct {
	Shape Shape
	Items []Node
}

// Wrappers are the keys an id may be nested under, in priority order.
var Wrappers = []string{"Key", "Acct", "Lot"}

// AsCollection normalizes v into a Collection. Non-object list elements are
// dropped; nil yields an empty sequence.
func AsCollection(v any) Collection {
	switch t := v.(type) {
	case nil:
		return Collection{Shape: Sequence}
	case []any:
		items := make([]Node, 0, len(t))
		for _, e := range t {
			if n, ok := e.(Node); ok {
				items = append(items, n)
			}
		}
		return Collection{Shape: Sequence, Items: items}
	case []Node:
		return Collection{Shape: Sequence, Items: t}
	case Node:
		return Collection{Shape: Single, Items: []Node{t}}
	}
	return Collection{Shape: Sequence}
}

// ByID indexes v by idField. The flat strategy is tried first, then each
// wrapper in Wrappers; a strategy applies only if every element yields an id
// under it. Ids are stringified so 123 and "123" index the same entry. When
// no strategy applies the result is empty, never nil.
func ByID(v any, idField string) map[string]Node {
	return AsCollection(v).ByID(idField)
}

func (c Collection) ByID(idField string) map[string]Node {
	if len(c.Items) == 0 {
		return map[string]Node{}
	}
	if out, ok := indexWith(c.Items, func(n Node) (any, bool) {
		return lookup(n, idField)
	}); ok {
		return out
	}
	for _, w := range Wrappers {
		if out, ok := indexWith(c.Items, func(n Node) (any, bool) {
			inner, ok := lookup(n, w)
			if !ok {
				return nil, false
			}
			m, ok := inner.(Node)
			if !ok {
				return nil, false
			}
			return lookup(m, idField)
		}); ok {
			return out
		}
	}
	return map[string]Node{}
}

func indexWith(items []Node, id func(Node) (any, bool)) (map[string]Node, bool) {
	out := make(map[string]Node, len(items))
	for _, n := range items {
		v, ok := id(n)
		if !ok {
			return nil, false
		}
		out[IDString(v)] = n
	}
	return out, true
}

// IDString renders an id value as a string key.
func IDString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
