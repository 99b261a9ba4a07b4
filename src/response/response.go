// Package response gives typed access to gateway mobile responses.
package response

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/username/mgscheck/src/models"
)

const root = "mobile_response"

var (
	ErrInvalidJSON      = errors.New("gateway response is not valid JSON")
	ErrNoMobileResponse = errors.New("gateway response has no " + root)
)

// Response wraps one gateway response document.
type Response struct {
	doc gjson.Result
}

// Parse validates raw and wraps it.
func Parse(raw []byte) (*Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(raw)
	if !doc.Get(root).IsObject() {
		return nil, ErrNoMobileResponse
	}
	return &Response{doc: doc}, nil
}

// Get runs a gjson path relative to mobile_response.
func (r *Response) Get(path string) gjson.Result {
	return r.doc.Get(root + "." + path)
}

// Views returns the data object of every view of type typ, in response order.
func (r *Response) Views(typ string) List {
	return r.collect(fmt.Sprintf("views.#(type==%q)#.data", typ), false)
}

// ViewObjects returns the whole view objects (type, data, cta, action) of type typ.
func (r *Response) ViewObjects(typ string) List {
	return r.collect(fmt.Sprintf("views.#(type==%q)#", typ), false)
}

// References returns every reference entry of type typ. Data lists of
// repeated reference blocks are concatenated.
func (r *Response) References(typ string) List {
	return r.collect(fmt.Sprintf("references.#(type==%q)#.data", typ), true)
}

func (r *Response) collect(path string, flatten bool) List {
	out := List{}
	r.Get(path).ForEach(func(_, v gjson.Result) bool {
		if flatten && v.IsArray() {
			v.ForEach(func(_, e gjson.Result) bool {
				if rec, ok := Value(e).(map[string]any); ok {
					out = append(out, rec)
				}
				return true
			})
			return true
		}
		if rec, ok := Value(v).(map[string]any); ok {
			out = append(out, rec)
		}
		return true
	})
	return out
}

// ViewTypes lists the type of every view, in response order.
func (r *Response) ViewTypes() []string {
	return r.types("views")
}

// ReferenceTypes lists the type of every reference block, in response order.
func (r *Response) ReferenceTypes() []string {
	return r.types("references")
}

func (r *Response) types(section string) []string {
	var out []string
	for _, t := range r.Get(section + ".#.type").Array() {
		out = append(out, t.String())
	}
	return out
}

// HasViewType reports whether a view of type typ is present.
func (r *Response) HasViewType(typ string) bool {
	return contains(r.ViewTypes(), typ)
}

// HasReferenceType reports whether a reference block of type typ is present.
func (r *Response) HasReferenceType(typ string) bool {
	return contains(r.ReferenceTypes(), typ)
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// Value converts a gjson result to plain Go values. Objects become
// map[string]any, arrays []any, integral numbers int64 and other numbers
// float64.
func Value(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return v.Str
	case gjson.Number:
		if !strings.ContainsAny(v.Raw, ".eE") {
			return v.Int()
		}
		return v.Float()
	case gjson.JSON:
		if v.IsArray() {
			out := []any{}
			v.ForEach(func(_, e gjson.Result) bool {
				out = append(out, Value(e))
				return true
			})
			return out
		}
		out := map[string]any{}
		v.ForEach(func(k, e gjson.Result) bool {
			out[k.Str] = Value(e)
			return true
		})
		return out
	}
	return nil
}

// List is a filterable collection of response objects. Elements are shared
// with the caller and must be treated as read-only.
type List []models.Record

// Filter returns the elements whose key equals value. The receiver is not
// modified, so filters can be chained.
func (l List) Filter(key string, value any) List {
	out := List{}
	for _, e := range l {
		v, ok := e[key]
		if ok && equal(v, value) {
			out = append(out, e)
		}
	}
	return out
}

// Where applies Filter for every entry of filters.
func (l List) Where(filters map[string]any) List {
	out := l
	for k, v := range filters {
		out = out.Filter(k, v)
	}
	return out
}

// First returns the first element, if any.
func (l List) First() (models.Record, bool) {
	if len(l) == 0 {
		return nil, false
	}
	return l[0], true
}

// Maps returns the elements as plain maps.
func (l List) Maps() []map[string]any {
	out := make([]map[string]any, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

func equal(a, b any) bool {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
