package compare

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/schema"
)

// Context accumulates the failures of one verification call. Checks never
// stop at the first mismatch; Err reports everything at the end.
type Context struct {
	Options  Options
	label    string
	log      *slog.Logger
	failures []models.Failure
}

func NewContext(label string, opts Options) *Context {
	return &Context{Options: opts, label: label, log: logger.L}
}

// WithLogger sets the logger used for debug output.
func (c *Context) WithLogger(l *slog.Logger) *Context {
	c.log = l
	return c
}

func (c *Context) Label() string { return c.label }

func (c *Context) add(f models.Failure) {
	if f.Label == "" {
		f.Label = c.label
	}
	c.failures = append(c.failures, f)
}

// Fail records a soft failure.
func (c *Context) Fail(kind models.FailureKind, msg string, obj map[string]any) {
	f := models.Failure{Kind: kind, Message: msg}
	if obj != nil {
		f.IDs = IDsMessage(obj)
	}
	c.add(f)
}

// Assert records msg as a soft failure when cond is false.
func (c *Context) Assert(cond bool, msg string) bool {
	if !cond {
		c.Fail(models.FailureValue, msg, nil)
	}
	return cond
}

// Hard records an error that aborted one entity's comparison. Structural
// errors are tagged as such so reports can tell them apart.
func (c *Context) Hard(err error, obj map[string]any) {
	kind := models.FailureRequest
	var se *indexer.StructuralError
	if errors.As(err, &se) {
		kind = models.FailureStructural
	}
	f := models.Failure{Kind: kind, Hard: true, Message: err.Error()}
	if obj != nil {
		f.IDs = IDsMessage(obj)
	}
	c.add(f)
}

// CheckTags records a failure when obj lacks any expected tag.
func (c *Context) CheckTags(obj map[string]any, expected schema.TagSet, name string) {
	actual := make(schema.TagSet, len(obj))
	for k := range obj {
		actual[k] = struct{}{}
	}
	res := Tags(actual, expected)
	if res.Passed() {
		return
	}
	c.add(models.Failure{
		Kind:    models.FailureTags,
		Key:     name,
		Message: fmt.Sprintf("%s: Missing tags:%v, extra tags: %v", name, res.Missing, res.Extra),
		IDs:     IDsMessage(obj),
	})
}

// CheckObjectsTags runs CheckTags over every object.
func (c *Context) CheckObjectsTags(objs []map[string]any, expected schema.TagSet, name string) {
	for _, o := range objs {
		c.CheckTags(o, expected, name)
	}
}

// Failures returns the failures recorded so far.
func (c *Context) Failures() []models.Failure {
	return c.failures
}

func (c *Context) Passed() bool { return len(c.failures) == 0 }

// Err returns every failure as one *AssertionError, or nil.
func (c *Context) Err() error {
	if len(c.failures) == 0 {
		return nil
	}
	return &AssertionError{Failures: c.failures}
}

// AssertionError lists every failure of a verification call.
type AssertionError struct {
	Failures []models.Failure
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test not passed with %d assertion fails:\n", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n")
		b.WriteString(f.String())
		b.WriteString("\n")
	}
	return b.String()
}

// IDsMessage lists the identifying keys of obj, one "key:value" per line.
func IDsMessage(obj map[string]any) string {
	var b strings.Builder
	for _, k := range schema.ReferenceIDs {
		if v, ok := obj[k]; ok && truthy(v) {
			fmt.Fprintf(&b, "%s:%v\n", k, v)
		}
	}
	if b.Len() == 0 {
		return "No ids found in object!"
	}
	return b.String()
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
