// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"regexp"
	"strconv"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Anchors carries the three named admission dates a relative reference
// resolves against (§4.7b).
type Anchors struct {
	Admission *note.Date
	Surgery   *note.Date
	Discharge *note.Date
}

var (
	podPattern            = regexp.MustCompile(`(?i)\bpod\s*#?\s*(\d+)\b|\bpost-?operative day\s*#?\s*(\d+)\b`)
	hdPattern             = regexp.MustCompile(`(?i)\bhd\s*#?\s*(\d+)\b|\bhospital day\s*#?\s*(\d+)\b`)
	absoluteDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b|\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	nextDayPattern        = regexp.MustCompile(`(?i)\bthe next day\b|\bthe following day\b`)
	byDischargePattern    = regexp.MustCompile(`(?i)\bby discharge\b|\bat discharge\b`)
)

// resolution is the outcome of resolving one entity's temporal context
// against its surrounding text and the admission/surgery/discharge
// anchors (§4.7b).
type resolution struct {
	date      *note.Date
	podOffset *int
	qualifier string
	failed    bool
}

// resolveDate inspects the text surrounding a source span for a POD/HD
// reference, an absolute date, or a recognized relative phrase, and
// resolves it against the given anchors. Unresolvable references are
// returned with failed=true rather than guessed (§4.7b).
func resolveDate(window string, anchors Anchors, nearestPreceding *note.Date) resolution {
	if m := podPattern.FindStringSubmatch(window); m != nil {
		n := firstNonEmpty(m[1], m[2])
		offset, err := strconv.Atoi(n)
		if err != nil {
			return resolution{failed: true, qualifier: "POD"}
		}
		if anchors.Surgery == nil {
			return resolution{failed: true, qualifier: "POD", podOffset: &offset}
		}
		d := anchors.Surgery.AddDays(offset)
		return resolution{date: &d, podOffset: &offset, qualifier: "POD"}
	}

	if m := hdPattern.FindStringSubmatch(window); m != nil {
		n := firstNonEmpty(m[1], m[2])
		offset, err := strconv.Atoi(n)
		if err != nil {
			return resolution{failed: true, qualifier: "HD"}
		}
		if anchors.Admission == nil {
			return resolution{failed: true, qualifier: "HD"}
		}
		d := anchors.Admission.AddDays(offset)
		return resolution{date: &d, qualifier: "HD"}
	}

	if m := absoluteDatePattern.FindStringSubmatch(window); m != nil {
		if d, ok := parseAbsoluteMatch(m); ok {
			return resolution{date: &d, qualifier: "absolute"}
		}
	}

	if nextDayPattern.MatchString(window) {
		if nearestPreceding == nil {
			return resolution{failed: true, qualifier: "next-day"}
		}
		d := nearestPreceding.AddDays(1)
		return resolution{date: &d, qualifier: "next-day"}
	}

	if byDischargePattern.MatchString(window) {
		if anchors.Discharge == nil {
			return resolution{failed: true, qualifier: "by-discharge"}
		}
		d := *anchors.Discharge
		return resolution{date: &d, qualifier: "by-discharge"}
	}

	return resolution{failed: true, qualifier: ""}
}

func parseAbsoluteMatch(m []string) (note.Date, bool) {
	if m[1] != "" {
		y, e1 := strconv.Atoi(m[1])
		mo, e2 := strconv.Atoi(m[2])
		d, e3 := strconv.Atoi(m[3])
		if e1 != nil || e2 != nil || e3 != nil {
			return note.Date{}, false
		}
		return note.Date{Year: y, Month: mo, Day: d}, true
	}
	if m[4] != "" {
		mo, e1 := strconv.Atoi(m[4])
		d, e2 := strconv.Atoi(m[5])
		y, e3 := strconv.Atoi(m[6])
		if e1 != nil || e2 != nil || e3 != nil {
			return note.Date{}, false
		}
		return note.Date{Year: y, Month: mo, Day: d}, true
	}
	return note.Date{}, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// withinAdmissionWindow enforces Invariant T1: a resolved date must
// fall within [admission, discharge] unless the entity is explicitly
// marked pre-admission.
func withinAdmissionWindow(d note.Date, anchors Anchors) bool {
	if anchors.Admission != nil && d.Before(*anchors.Admission) {
		return false
	}
	if anchors.Discharge != nil && d.After(*anchors.Discharge) {
		return false
	}
	return true
}
