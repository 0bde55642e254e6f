// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package validate

// Severity classifies a validation finding (§4.10).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityInfo     Severity = "info"
)

// Issue is one validation finding. The Validator only ever produces
// these; it never mutates the data it inspects (§4.10's closing rule) —
// a critical evidence issue names the offending entity so the
// Orchestrator can decide whether to drop it, rather than the
// Validator dropping it unilaterally.
type Issue struct {
	Severity Severity
	Category string
	Message  string
}

// Report is the structured issue list a single validation pass
// produces, consumed by both the refinement planner and the Quality
// Scorer (§9's redesign note: "Validator as a single pass producing a
// structured issue list").
type Report struct {
	Issues []Issue
}

func (r *Report) add(sev Severity, category, message string) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Category: category, Message: message})
}

// HasCritical reports whether any issue is critical-severity.
func (r Report) HasCritical() bool {
	return r.CountBySeverity(SeverityCritical) > 0
}

// CountBySeverity counts issues at exactly the given severity.
func (r Report) CountBySeverity(sev Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// Merge appends another report's issues onto this one.
func (r *Report) Merge(other Report) {
	r.Issues = append(r.Issues, other.Issues...)
}
