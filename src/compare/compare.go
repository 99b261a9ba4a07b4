// Package compare checks gateway objects against expected tag sets and
// backend-derived records.
package compare

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/username/mgscheck/src/normalize"
	"github.com/username/mgscheck/src/schema"
)

// DefaultTolerance is the allowed relative deviation between numeric values.
const DefaultTolerance = 0.05

// Options tune value comparison.
type Options struct {
	Tolerance float64
	// Aliases maps a gateway value to the backend value it stands for.
	// Only exact matches are consulted.
	Aliases map[string]string
}

func DefaultOptions() Options {
	return Options{
		Tolerance: DefaultTolerance,
		Aliases:   map[string]string{"EAS": "Brokerage"},
	}
}

// TagResult holds the outcome of a tag-set comparison.
type TagResult struct {
	Missing []string
	Extra   []string
}

// Passed reports whether every expected tag was present. Extra tags never fail.
func (r TagResult) Passed() bool { return len(r.Missing) == 0 }

// Tags compares an object's tag set with the expected one.
func Tags(actual, expected schema.TagSet) TagResult {
	return TagResult{
		Missing: expected.Minus(actual).Sorted(),
		Extra:   actual.Minus(expected).Sorted(),
	}
}

var ErrMismatch = errors.New("values differ")

// Equals compares two values exactly after normalization. A null on one side
// only is always a mismatch; aliased gateway values must equal their alias.
func Equals(gateway, backend any, opts Options) error {
	g := normalize.Value(gateway)
	b := normalize.Value(backend)
	msg := fmt.Sprintf(`Comparing prepared values: mgs: "%v"(%T), s2: "%v"(%T)`, g, g, b, b)

	if g == nil || b == nil {
		if g == nil && b == nil {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrMismatch, msg)
	}
	if s, ok := g.(string); ok {
		if alias, ok := opts.Aliases[s]; ok {
			if b == alias {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrMismatch, msg)
		}
	}
	if gm, ok := g.(map[string]any); ok {
		if bm, ok := b.(map[string]any); ok && equalMaps(gm, bm, opts) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrMismatch, msg)
	}
	if !reflect.DeepEqual(g, b) {
		return fmt.Errorf("%w: %s", ErrMismatch, msg)
	}
	return nil
}

// equalMaps compares nested objects key by key with the top-level rules.
func equalMaps(g, b map[string]any, opts Options) bool {
	if len(g) != len(b) {
		return false
	}
	for k, bv := range b {
		gv, ok := g[k]
		if !ok {
			return false
		}
		var err error
		if IsFloat(gv) || IsFloat(bv) {
			err = Floats(gv, bv, opts.Tolerance)
		} else {
			err = Equals(gv, bv, opts)
		}
		if err != nil {
			return false
		}
	}
	return true
}

// Floats compares two numeric values within tolerance. The error is relative
// to the backend value unless either side is zero, in which case the absolute
// difference is used. Values that do not convert to float are mismatches.
func Floats(gateway, backend any, tolerance float64) error {
	g, ok := normalize.Float(gateway)
	if !ok {
		return fmt.Errorf("%w: could not convert mgs value %q to float", ErrMismatch, fmt.Sprint(gateway))
	}
	b, ok := normalize.Float(backend)
	if !ok {
		return fmt.Errorf("%w: could not convert s2 value %q to float", ErrMismatch, fmt.Sprint(backend))
	}

	diff := math.Abs(g - b)
	relative := diff
	if g != 0 && b != 0 {
		relative = diff / math.Abs(b)
	}
	if relative > tolerance || math.IsNaN(relative) {
		return fmt.Errorf("%w: Diff: %v(%v - %v), relative_error: %v, tolerance: %v;", ErrMismatch, diff, g, b, relative, tolerance)
	}
	return nil
}

// IsFloat reports whether v normalizes to a float.
func IsFloat(v any) bool {
	_, ok := normalize.Value(v).(float64)
	return ok
}
