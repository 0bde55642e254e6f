// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package validate

import (
	"regexp"
	"strings"
)

// sectionOrder is the closed set of narrative section keys in their
// required display order (§4.9).
var sectionOrder = []string{
	"demographics", "principalDiagnosis", "secondaryDiagnoses", "chiefComplaint",
	"historyOfPresentIllness", "hospitalCourse", "procedures", "complications",
	"consultations", "dischargeStatus", "dischargeMedications", "dischargeDisposition",
	"followUpPlan",
}

// criticalSections is the subset P4 requires to always be present.
var criticalSections = map[string]bool{
	"demographics": true, "principalDiagnosis": true, "hospitalCourse": true,
	"procedures": true, "dischargeMedications": true, "dischargeDisposition": true,
	"followUpPlan": true,
}

var placeholderPattern = regexp.MustCompile(`(?i)\bTODO\b|\[fill\]|\bxxxx+\b|\bTBD\b`)

// ValidateNarrative implements §4.10's narrative-completeness and
// style checks. It takes the rendered section text by key rather than
// a narrative.Narrative value so this package never imports the
// narrative package, which itself calls back into the Validator
// (§9: "no component reaches into another's state").
func (v *Validator) ValidateNarrative(sections map[string]string) Report {
	var r Report

	for key := range sections {
		known := false
		for _, s := range sectionOrder {
			if s == key {
				known = true
				break
			}
		}
		if !known {
			r.add(SeverityMinor, "narrative", "unknown section key: "+key)
		}
	}

	for _, key := range sectionOrder {
		text, present := sections[key]
		empty := !present || strings.TrimSpace(text) == ""
		notDocumented := strings.EqualFold(strings.TrimSpace(text), key+" not documented.") || strings.HasSuffix(strings.TrimSpace(text), "not documented.")
		if empty {
			if criticalSections[key] {
				r.add(SeverityCritical, "narrative", "critical section missing: "+key)
			} else {
				r.add(SeverityMajor, "narrative", "section missing: "+key)
			}
			continue
		}
		if notDocumented {
			continue
		}
		v.checkStyle(key, text, &r)
	}

	v.applyStrictness(&r)
	return r
}

// checkStyle is §4.10's minor style battery: placeholder tokens,
// presence of date markers where a section would be expected to carry
// one, and sentence lengths that would read as obviously malformed.
func (v *Validator) checkStyle(key, text string, r *Report) {
	if placeholderPattern.MatchString(text) {
		r.add(SeverityMinor, "style", key+": contains a placeholder token")
	}
	for _, sentence := range splitSentences(text) {
		words := len(strings.Fields(sentence))
		if words > 80 {
			preview := strings.TrimSpace(sentence)
			if len(preview) > 20 {
				preview = preview[:20]
			}
			r.add(SeverityMinor, "style", key+": sentence unusually long ("+preview+"...)")
		}
	}
}

func splitSentences(text string) []string {
	return regexp.MustCompile(`(?:[.!?]\s+|\n)`).Split(text, -1)
}
