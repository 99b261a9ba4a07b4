package verify

import (
	"fmt"
	"sort"
	"sync"

	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
)

// Coverage tracks which reference tags the flows compared against the
// backend and which tags the gateway actually returned.
type Coverage struct {
	mu      sync.Mutex
	scope   map[string]struct{}
	actual  map[string]map[string]schema.TagSet
	covered map[string]map[string]schema.TagSet
}

func NewCoverage() *Coverage {
	return &Coverage{
		scope:   map[string]struct{}{},
		actual:  map[string]map[string]schema.TagSet{},
		covered: map[string]map[string]schema.TagSet{},
	}
}

func add(m map[string]map[string]schema.TagSet, request, reference string, tags ...string) {
	sec, ok := m[request]
	if !ok {
		sec = map[string]schema.TagSet{}
		m[request] = sec
	}
	set, ok := sec[reference]
	if !ok {
		set = schema.TagSet{}
		sec[reference] = set
	}
	for _, t := range tags {
		set[t] = struct{}{}
	}
}

// UpdateActual records the tags of every reference object in resp.
func (c *Coverage) UpdateActual(request string, resp *response.Response) {
	if c == nil || resp == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, typ := range resp.ReferenceTypes() {
		for _, obj := range resp.References(typ) {
			add(c.actual, request, typ, obj.Keys()...)
		}
	}
}

// UpdateCovered marks tags of a reference as checked by request. The
// reference joins the report scope.
func (c *Coverage) UpdateCovered(request, reference string, tags ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scope[reference] = struct{}{}
	add(c.covered, request, reference, tags...)
}

// Report lists the references in scope, the "request.reference : tag"
// combinations returned but never checked, and those checked but no longer
// returned. Only references in scope are reported.
func (c *Coverage) Report() models.CoverageReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := models.CoverageReport{References: []string{}, Uncovered: []string{}, Deprecated: []string{}}
	for ref := range c.scope {
		r.References = append(r.References, ref)
	}
	sort.Strings(r.References)

	diff := func(from, to map[string]map[string]schema.TagSet) []string {
		var out []string
		for request, sec := range from {
			for ref, tags := range sec {
				if _, ok := c.scope[ref]; !ok {
					continue
				}
				other := to[request][ref]
				for _, tag := range tags.Minus(other).Sorted() {
					out = append(out, fmt.Sprintf("%s.%s : %s", request, ref, tag))
				}
			}
		}
		sort.Strings(out)
		return out
	}
	if u := diff(c.actual, c.covered); u != nil {
		r.Uncovered = u
	}
	if d := diff(c.covered, c.actual); d != nil {
		r.Deprecated = d
	}
	return r
}

func coverKeys(cov *Coverage, svc models.Service, reference string, backend models.Record) {
	cov.UpdateCovered(string(svc), reference, backend.Keys()...)
}
