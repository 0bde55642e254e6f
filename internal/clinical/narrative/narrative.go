// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package narrative implements the Narrative Generator (§4.9): LLM-mode
// section synthesis with a deterministic template-mode fallback,
// generated in dependency order so later sections can avoid verbatim
// restatement of earlier ones.
//
// Grounded on the teacher's dual LLM/local-fallback shape
// (internal/superbrain/sculptor and the cascade package's tiered
// retry-then-degrade pattern): prefer the LLM path, fall back to a
// deterministic local path rather than fail the request.
package narrative

import "github.com/ramihatou97/DCS-sub001/internal/clinical/note"

// Section is one of the closed-set narrative keys (§4.9).
type Section string

const (
	SectionDemographics             Section = "demographics"
	SectionPrincipalDiagnosis       Section = "principalDiagnosis"
	SectionSecondaryDiagnoses       Section = "secondaryDiagnoses"
	SectionChiefComplaint           Section = "chiefComplaint"
	SectionHistoryOfPresentIllness  Section = "historyOfPresentIllness"
	SectionHospitalCourse           Section = "hospitalCourse"
	SectionProcedures               Section = "procedures"
	SectionComplications            Section = "complications"
	SectionConsultations            Section = "consultations"
	SectionDischargeStatus          Section = "dischargeStatus"
	SectionDischargeMedications     Section = "dischargeMedications"
	SectionDischargeDisposition     Section = "dischargeDisposition"
	SectionFollowUpPlan             Section = "followUpPlan"
)

// SectionOrder is the dependency order sections are generated in
// (§4.9's "cross-section consistency"): each section sees every section
// generated before it.
var SectionOrder = []Section{
	SectionDemographics, SectionPrincipalDiagnosis, SectionSecondaryDiagnoses,
	SectionChiefComplaint, SectionHistoryOfPresentIllness, SectionHospitalCourse,
	SectionProcedures, SectionComplications, SectionConsultations,
	SectionDischargeStatus, SectionDischargeMedications, SectionDischargeDisposition,
	SectionFollowUpPlan,
}

// CriticalSections is the subset P4 requires to always be present.
var CriticalSections = map[Section]bool{
	SectionDemographics: true, SectionPrincipalDiagnosis: true, SectionHospitalCourse: true,
	SectionProcedures: true, SectionDischargeMedications: true, SectionDischargeDisposition: true,
	SectionFollowUpPlan: true,
}

// Style is spec.md §6's per-request narrative tone option.
type Style string

const (
	StyleFormal   Style = "formal"
	StyleConcise  Style = "concise"
	StyleDetailed Style = "detailed"
)

// Origin records which mode produced a section (§4.9).
type Origin string

const (
	OriginLLM      Origin = "llm"
	OriginTemplate Origin = "template"
)

// SectionContent is one generated section's text and provenance.
type SectionContent struct {
	Text   string
	Origin Origin
}

// Narrative is the Generator's output: every populated section keyed
// by its closed-set name (§3).
type Narrative map[Section]SectionContent

// ToMap renders the Narrative as a plain string map for the Validator,
// which never imports this package (§9: "no component reaches into
// another's state").
func (n Narrative) ToMap() map[string]string {
	out := make(map[string]string, len(n))
	for k, v := range n {
		out[string(k)] = v.Text
	}
	return out
}

// notDocumented is the template-mode filler §4.9 mandates for a
// section with no supporting data.
func notDocumented(section Section) string {
	return string(section) + " not documented."
}

// hasData reports whether the given entity slice carries anything a
// template could render, used to decide between a real sentence and
// the notDocumented filler.
func hasData(entities []note.Entity) bool {
	return len(entities) > 0
}
