// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package validate implements the Validator (§4.10): a single pass,
// invoked once after the Hybrid Merger/Temporal/Dedup stages and once
// after narrative generation, that inspects the pipeline's data and
// reports structured issues without ever modifying what it inspects.
//
// Grounded on the teacher's doctor.Diagnose two-pass shape
// (internal/superbrain/doctor/diagnosis.go: try the pattern table,
// fall back to an "unknown" diagnosis) generalized from one failing
// check to a fixed battery of checks run every time, each producing
// its own Issue rather than a single diagnosis.
package validate

import (
	"strconv"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Validator holds the knowledge pack used for pathology-appropriate
// completeness checks.
type Validator struct {
	pack   *knowledge.Pack
	strict bool
}

// New binds a Validator to the primary pathology's knowledge pack.
// strict implements spec.md §6's strictValidation option: when set,
// every Major issue this Validator would otherwise report is promoted
// to Critical, so a caller that only watches Report.HasCritical() gets
// a fail-fast signal under strict mode without a parallel reporting
// path.
func New(pack *knowledge.Pack, strict bool) *Validator {
	return &Validator{pack: pack, strict: strict}
}

// anticoagulantKeywords and antibioticKeywords drive the cross-field
// medication-indication plausibility check (§4.10): a handful of
// substrings, not a full formulary, since the core never needs a drug
// database to ask "is there at least one entry of the expected class."
var anticoagulantKeywords = []string{"heparin", "enoxaparin", "lovenox", "warfarin", "apixaban", "rivaroxaban", "coumadin", "eliquis", "xarelto"}
var antibioticKeywords = []string{"vancomycin", "cefazolin", "ceftriaxone", "antibiotic", "cillin", "mycin", "floxacin", "cephalosporin"}

// ValidateExtracted runs every extracted-data check (§4.10) and
// returns the combined issue list. It never mutates data or notes.
func (v *Validator) ValidateExtracted(data *note.ExtractedData, notes []note.Note) Report {
	var r Report
	v.checkEvidence(data, notes, &r)
	v.checkCrossFieldConsistency(data, &r)
	v.checkCompleteness(data, &r)
	v.checkNumericRanges(data, &r)
	v.applyStrictness(&r)
	return r
}

// applyStrictness promotes every Major issue to Critical when strict
// mode is on (§6 strictValidation).
func (v *Validator) applyStrictness(r *Report) {
	if !v.strict {
		return
	}
	for i := range r.Issues {
		if r.Issues[i].Severity == SeverityMajor {
			r.Issues[i].Severity = SeverityCritical
		}
	}
}

// checkEvidence enforces the reporting half of Invariant E1/P1: every
// entity's source spans must be verifiable substrings of their note.
// Entities failing this are named in a critical issue; removing them
// is the Orchestrator's job, consistent with "the validator never
// modifies data" (§4.10).
func (v *Validator) checkEvidence(data *note.ExtractedData, notes []note.Note, r *Report) {
	for _, e := range data.AllCategoryEntities() {
		if len(e.SourceSpans) == 0 {
			r.add(SeverityCritical, "evidence", string(e.Kind)+": no source span")
			continue
		}
		for _, s := range e.SourceSpans {
			if s.NoteIndex < 0 || s.NoteIndex >= len(notes) {
				r.add(SeverityCritical, "evidence", string(e.Kind)+": source span references unknown note")
				continue
			}
			if !strings.Contains(notes[s.NoteIndex].Text, s.MatchedText) {
				r.add(SeverityCritical, "evidence", string(e.Kind)+": matched text is not a substring of its note")
			}
		}
	}
}

// checkCrossFieldConsistency implements §4.10's major consistency
// checks: admission ≤ surgery ≤ discharge, procedure/complication
// dates within the admission window, and a handful of
// indication-implies-treatment plausibility checks.
func (v *Validator) checkCrossFieldConsistency(data *note.ExtractedData, r *Report) {
	admission, hasAdmission := data.DateValue(note.DateAdmission)
	surgery, hasSurgery := data.DateValue(note.DateSurgery)
	discharge, hasDischarge := data.DateValue(note.DateDischarge)

	if hasAdmission && hasSurgery && surgery.Before(admission) {
		r.add(SeverityMajor, "consistency", "surgery date precedes admission date")
	}
	if hasSurgery && hasDischarge && discharge.Before(surgery) {
		r.add(SeverityMajor, "consistency", "discharge date precedes surgery date")
	}
	if hasAdmission && hasDischarge && discharge.Before(admission) {
		r.add(SeverityMajor, "consistency", "discharge date precedes admission date")
	}

	for _, e := range data.Procedures {
		if d := e.Temporal.ResolvedDate; d != nil && hasAdmission && hasDischarge {
			if d.Before(admission) && !e.Temporal.PreAdmission {
				r.add(SeverityMajor, "consistency", "procedure date precedes admission date")
			}
			if d.After(discharge) {
				r.add(SeverityMajor, "consistency", "procedure date follows discharge date")
			}
		}
	}

	allMedNames := medicationNames(data)
	for _, e := range data.Complications {
		c, ok := e.Value.(note.Complication)
		if !ok {
			continue
		}
		name := strings.ToLower(c.NormalizedName)
		if name == "" {
			name = strings.ToLower(c.Name)
		}
		if isAny(name, "pulmonary embolism", "deep vein thrombosis", "dvt", "pe") && !anyContainsAny(allMedNames, anticoagulantKeywords) {
			r.add(SeverityMajor, "consistency", "thromboembolic complication documented without an anticoagulant")
		}
		if strings.Contains(name, "infection") && !anyContainsAny(allMedNames, antibioticKeywords) {
			r.add(SeverityMajor, "consistency", "infectious complication documented without an antibiotic")
		}
	}
}

func medicationNames(data *note.ExtractedData) []string {
	var out []string
	for _, group := range [][]note.Entity{data.MedicationsPre, data.MedicationsPost, data.MedicationsDischarge} {
		for _, e := range group {
			if m, ok := e.Value.(note.Medication); ok {
				out = append(out, strings.ToLower(m.Name))
			}
		}
	}
	return out
}

func isAny(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

func anyContainsAny(haystacks []string, needles []string) bool {
	for _, h := range haystacks {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

// checkCompleteness implements §4.10's pathology-appropriate
// completeness check: every field the primary pathology's knowledge
// pack names as expected must be populated. Core identifying fields
// (age, MRN, procedures, complications) are major when missing; named
// grading-scale fields are minor, since their absence more often
// reflects a note style choice than a missing clinical fact.
func (v *Validator) checkCompleteness(data *note.ExtractedData, r *Report) {
	if v.pack == nil {
		return
	}
	coreFields := map[string]bool{"age": true, "mrn": true, "procedures": true, "complications": true, "dischargedisposition": true}
	for _, field := range v.pack.ExpectedFields {
		if fieldPresent(data, field) {
			continue
		}
		sev := SeverityMinor
		if coreFields[strings.ToLower(field)] {
			sev = SeverityMajor
		}
		r.add(sev, "completeness", "expected field not populated: "+field)
	}
}

// fieldPresent checks one knowledge pack expected-field entry against
// the extracted data. Pack field names are hyphenated (e.g.
// "admission-date", "hunt-hess-grade") and mix structured field names
// with free-text procedure/complication names (e.g. "vasospasm", "csf
// leak"), so the key is normalized before matching and unmatched
// structured keys fall through to a procedure/complication/grading-scale
// name search rather than assuming every unknown key names a scale.
func fieldPresent(data *note.ExtractedData, field string) bool {
	key := strings.ReplaceAll(strings.ToLower(field), "-", "")
	switch key {
	case "age":
		return data.Demographic != nil && data.Demographic.Value.(note.Demographic).Age != nil
	case "mrn":
		return data.Demographic != nil && data.Demographic.Value.(note.Demographic).MRN != ""
	case "sex":
		return data.Demographic != nil && data.Demographic.Value.(note.Demographic).Sex != ""
	case "procedure", "procedures":
		return len(data.Procedures) > 0
	case "complication", "complications":
		return len(data.Complications) > 0
	case "admissiondate":
		return data.AdmissionDate != nil
	case "surgerydate":
		return data.SurgeryDate != nil
	case "dischargedate":
		return data.DischargeDate != nil
	case "consultations":
		return len(data.Consultations) > 0
	case "followup":
		return len(data.FollowUp) > 0
	case "imaging", "imagingfinding":
		return len(data.ImagingPre) > 0 || len(data.ImagingPost) > 0
	case "dischargedisposition":
		_, ok := data.Disposition()
		return ok
	}

	// hunt-hess-grade, fisher-grade, asia-grade name a grading scale
	// with a "-grade" suffix the pack doesn't use for ScaleName itself.
	scaleName := strings.TrimSuffix(strings.ToLower(field), "-grade")
	for _, e := range data.FunctionalScores {
		if s, ok := e.Value.(note.FunctionalScore); ok && strings.EqualFold(s.ScaleName, scaleName) {
			return true
		}
	}

	// Anything else names a procedure or complication directly
	// (e.g. "vasospasm", "csf leak", "shunt malfunction").
	for _, e := range data.Procedures {
		if p, ok := e.Value.(note.Procedure); ok && strings.EqualFold(p.NormalizedName, field) {
			return true
		}
	}
	for _, e := range data.Complications {
		if c, ok := e.Value.(note.Complication); ok && strings.EqualFold(c.NormalizedName, field) {
			return true
		}
	}
	return false
}

// checkNumericRanges implements §4.10/P8: age ∈ [0,120], functional
// scores within their documented pack range. This duplicates the
// extractors' own range filtering (patternextract, llmextract) as a
// second, independent layer — a range violation reaching this far
// indicates a bug upstream, and the Validator's job is to surface it
// rather than assume it cannot happen.
func (v *Validator) checkNumericRanges(data *note.ExtractedData, r *Report) {
	if data.Demographic != nil {
		if d, ok := data.Demographic.Value.(note.Demographic); ok && d.Age != nil {
			if *d.Age < 0 || *d.Age > 120 {
				r.add(SeverityMajor, "range", "age "+strconv.Itoa(*d.Age)+" outside [0,120]")
			}
		}
	}
	for _, e := range data.FunctionalScores {
		s, ok := e.Value.(note.FunctionalScore)
		if !ok {
			continue
		}
		if v.pack == nil {
			continue
		}
		min, max, known := v.pack.Range(s.ScaleName)
		if known && (s.Value < min || s.Value > max) {
			r.add(SeverityMajor, "range", s.ScaleName+" value outside documented range")
		}
	}
}
