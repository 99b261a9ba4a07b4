package schema

import "sort"

// TagSet is an unordered set of tag names.
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Union returns a new set holding the tags of s and every other set.
func (s TagSet) Union(others ...TagSet) TagSet {
	out := make(TagSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	for _, o := range others {
		for t := range o {
			out[t] = struct{}{}
		}
	}
	return out
}

// With returns a copy of s extended by tags.
func (s TagSet) With(tags ...string) TagSet {
	return s.Union(NewTagSet(tags...))
}

// Minus returns the tags of s absent from other.
func (s TagSet) Minus(other TagSet) TagSet {
	out := make(TagSet)
	for t := range s {
		if !other.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
