package models

import (
	"fmt"
	"strings"
	"time"
)

type FailureKind string

const (
	FailureTags       FailureKind = "tags"
	FailureValue      FailureKind = "value"
	FailureStructural FailureKind = "structural"
	FailureRequest    FailureKind = "request"
)

// Failure is a single reported mismatch. Hard failures abort one entity's
// comparison; soft failures are accumulated and reported together.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Hard    bool        `json:"hard"`
	Label   string      `json:"label,omitempty"`
	Key     string      `json:"key,omitempty"`
	Gateway any         `json:"gateway,omitempty"`
	Backend any         `json:"backend,omitempty"`
	Message string      `json:"message"`
	IDs     string      `json:"ids,omitempty"`
}

func (f Failure) String() string {
	var b strings.Builder
	if f.Label != "" {
		b.WriteString(f.Label)
		b.WriteString(": ")
	}
	b.WriteString(f.Message)
	if f.IDs != "" {
		b.WriteString("\n")
		b.WriteString(f.IDs)
	}
	return b.String()
}

// FlowResult is the outcome of one service verification flow.
type FlowResult struct {
	Service  Service       `json:"service"`
	Passed   bool          `json:"passed"`
	Accounts int           `json:"accounts"`
	Failures []Failure     `json:"failures,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// HardFailures counts failures that aborted an entity's comparison.
func (r FlowResult) HardFailures() int {
	n := 0
	for _, f := range r.Failures {
		if f.Hard {
			n++
		}
	}
	return n
}

// CoverageReport lists tag coverage across the responses of a run.
type CoverageReport struct {
	References []string `json:"references"`
	Uncovered  []string `json:"uncovered"`
	Deprecated []string `json:"deprecated"`
}

// RunReport aggregates every flow of one run.
type RunReport struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Flows      []FlowResult    `json:"flows"`
	Coverage   *CoverageReport `json:"coverage,omitempty"`
}

func (r RunReport) Passed() bool {
	for _, f := range r.Flows {
		if !f.Passed {
			return false
		}
	}
	return true
}

// Summary renders a plain-text digest suitable for logs and e-mail.
func (r RunReport) Summary() string {
	var b strings.Builder
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Run %s %s in %s\n", r.ID, status, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	for _, f := range r.Flows {
		mark := "ok"
		if !f.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s accounts=%d failures=%d hard=%d\n", mark, f.Service, f.Accounts, len(f.Failures), f.HardFailures())
		if f.Error != "" {
			fmt.Fprintf(&b, "      error: %s\n", f.Error)
		}
		for _, fl := range f.Failures {
			for _, line := range strings.Split(fl.String(), "\n") {
				fmt.Fprintf(&b, "      %s\n", line)
			}
		}
	}
	if r.Coverage != nil && len(r.Coverage.Uncovered) > 0 {
		fmt.Fprintf(&b, "Uncovered tags:\n")
		for _, u := range r.Coverage.Uncovered {
			fmt.Fprintf(&b, "  %s\n", u)
		}
	}
	return b.String()
}
