package compare

import (
	"fmt"
	"reflect"

	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/normalize"
)

// CheckValues compares gateway against backend for every key of backend.
// Gateway-only keys are skipped. Float comparison is used when either side
// normalizes to a float, exact comparison otherwise.
func CheckValues(c *Context, gateway, backend map[string]any) {
	ids := IDsMessage(gateway)

	var skipped []string
	for k := range gateway {
		if _, ok := backend[k]; !ok {
			skipped = append(skipped, k)
		}
	}
	if len(skipped) > 0 {
		c.log.Debug("Skipping keys absent from backend record", "label", c.label, "keys", skipped, "ids", ids)
	}

	for _, key := range models.Record(backend).Keys() {
		s2 := backend[key]
		mgs, ok := gateway[key]
		if !ok {
			c.add(models.Failure{
				Kind:    models.FailureValue,
				Key:     key,
				Backend: s2,
				Message: fmt.Sprintf("No expected key %s found in gateway object", key),
				IDs:     ids,
			})
			continue
		}

		var err error
		if IsFloat(mgs) || IsFloat(s2) {
			err = Floats(mgs, s2, c.Options.Tolerance)
		} else {
			err = Equals(mgs, s2, c.Options)
		}
		if err != nil {
			c.add(models.Failure{
				Kind:    models.FailureValue,
				Key:     key,
				Gateway: mgs,
				Backend: s2,
				Message: fmt.Sprintf("Key: %q, MGS value: %q, S2 value: %q;\n%v", key, fmt.Sprint(mgs), fmt.Sprint(s2), err),
				IDs:     ids,
			})
		}
	}
}

// ViewToReference compares view values with the related reference object
// exactly, iterating over view keys. A view key missing from the reference
// is a failure.
func ViewToReference(c *Context, view, reference map[string]any, skip ...string) {
	skipSet := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipSet[s] = struct{}{}
	}
	ids := IDsMessage(reference)

	for _, key := range models.Record(view).Keys() {
		if _, ok := skipSet[key]; ok {
			c.log.Warn("Key check skipped", "label", c.label, "key", key)
			continue
		}
		ref, ok := reference[key]
		if !ok {
			c.add(models.Failure{
				Kind:    models.FailureValue,
				Key:     key,
				Message: fmt.Sprintf("No expected key %s found in reference", key),
				IDs:     ids,
			})
			continue
		}
		if !equalRaw(view[key], ref) {
			c.add(models.Failure{
				Kind:    models.FailureValue,
				Key:     key,
				Gateway: view[key],
				Backend: ref,
				Message: fmt.Sprintf("expected: %v, actual: %v, key:%s", view[key], ref, key),
				IDs:     ids,
			})
		}
	}
}

// equalRaw compares raw values without normalization, aliasing or tolerance.
func equalRaw(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// ValueOrZero normalizes v and falls back to 0 for values that are not numeric.
func ValueOrZero(v any) float64 {
	f, ok := normalize.Float(v)
	if !ok {
		return 0
	}
	return f
}
