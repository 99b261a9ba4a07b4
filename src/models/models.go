package models

import "sort"

// Record is a flat object keyed by tag name. Gateway reference entries and
// backend-derived records share this shape so they can be compared key by key.
type Record map[string]any

// Keys returns the record's tag names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeySet returns the record's tag names as a set.
func (r Record) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(r))
	for k := range r {
		set[k] = struct{}{}
	}
	return set
}

// String returns the value at key if it is a string, otherwise "".
func (r Record) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Merge copies every entry of other into r, overwriting existing keys.
func (r Record) Merge(other Record) Record {
	for k, v := range other {
		r[k] = v
	}
	return r
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
