// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"fmt"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

const formalStyleRules = `Style rules: write in past tense, active voice, no speculation, and use explicit dates or post-operative day numbers wherever they are known rather than vague phrases like "later" or "subsequently". Do not restate a fact from an earlier section verbatim; refer to it briefly instead.`

const conciseStyleRules = `Style rules: write in past tense, active voice, no speculation. Be concise: state each fact once in as few words as possible, and omit qualifying detail (exact dates, dosage/route/frequency, surgeon names, linked-procedure references, follow-up instructions) unless omitting it would make the sentence ambiguous. Do not restate a fact from an earlier section verbatim; refer to it briefly instead.`

const detailedStyleRules = `Style rules: write in past tense, active voice, no speculation, and use explicit dates or post-operative day numbers wherever they are known rather than vague phrases like "later" or "subsequently". Include every qualifying detail already present in the extracted data below (dates, dosage, route, frequency, surgeon, linked procedures, follow-up instructions) rather than abbreviating it away. Do not restate a fact from an earlier section verbatim; refer to it briefly instead.`

// styleRulesFor picks the style-rules paragraph sent to the LLM for
// one section (spec.md §6's style option). Formal is the default and
// the baseline every other style varies from.
func styleRulesFor(style Style) string {
	switch style {
	case StyleConcise:
		return conciseStyleRules
	case StyleDetailed:
		return detailedStyleRules
	default:
		return formalStyleRules
	}
}

const sectionSchema = `{"section": "<string, must equal the section name given above>", "text": "<string, the generated prose for this section>"}`

// sectionLabel is the human-facing name used inside prompts.
var sectionLabel = map[Section]string{
	SectionDemographics:            "demographics",
	SectionPrincipalDiagnosis:      "principal diagnosis",
	SectionSecondaryDiagnoses:      "secondary diagnoses",
	SectionChiefComplaint:          "chief complaint",
	SectionHistoryOfPresentIllness: "history of present illness",
	SectionHospitalCourse:          "hospital course",
	SectionProcedures:              "procedures",
	SectionComplications:           "complications",
	SectionConsultations:           "consultations",
	SectionDischargeStatus:         "discharge status",
	SectionDischargeMedications:    "discharge medications",
	SectionDischargeDisposition:    "discharge disposition",
	SectionFollowUpPlan:            "follow-up plan",
}

// BuildPrompt assembles the LLM-mode prompt for one section (§4.9): the
// relevant slice of ExtractedData rendered as plain text, the sections
// already generated (for cross-section consistency), the pack's
// guidance, and the fixed style rules.
func BuildPrompt(section Section, data *note.ExtractedData, pack *knowledge.Pack, priorSections Narrative, style Style) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are writing the %q section of a neurosurgical discharge summary.\n", sectionLabel[section])
	b.WriteString(styleRulesFor(style))
	b.WriteString("\n\nRelevant extracted data:\n")
	b.WriteString(sectionDataSummary(section, data))
	if pack != nil && pack.NarrativeTemplate != "" {
		fmt.Fprintf(&b, "\nPathology guidance: this is a %s case; follow %s conventions.\n", pack.Name, pack.NarrativeTemplate)
	}
	if len(priorSections) > 0 {
		b.WriteString("\nSections already written (do not restate verbatim):\n")
		for _, s := range SectionOrder {
			if sc, ok := priorSections[s]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", sectionLabel[s], sc.Text)
			}
		}
	}
	b.WriteString("\nRespond with JSON matching this schema exactly, no text outside the JSON object:\n")
	b.WriteString(sectionSchema)
	return b.String()
}

// buildRetryPrompt is used once, after a malformed first response,
// tightening the instruction rather than changing the underlying
// request (§4.9: "one retry with a stricter prompt").
func buildRetryPrompt(base string, reason string) string {
	return base + "\n\nIMPORTANT: your previous response could not be parsed (" + reason + "). Return only the JSON object, with no markdown fences or commentary."
}

// sectionDataSummary renders the entities relevant to one section as
// plain lines an LLM can read, so the prompt never needs a generic
// dump of the entire ExtractedData.
func sectionDataSummary(section Section, data *note.ExtractedData) string {
	var lines []string
	addDates := func() {
		if d, ok := data.DateValue(note.DateAdmission); ok {
			lines = append(lines, "admission date: "+d.String())
		}
		if d, ok := data.DateValue(note.DateSurgery); ok {
			lines = append(lines, "surgery date: "+d.String())
		}
		if d, ok := data.DateValue(note.DateDischarge); ok {
			lines = append(lines, "discharge date: "+d.String())
		}
	}
	switch section {
	case SectionDemographics:
		if data.Demographic != nil {
			d := data.Demographic.Value.(note.Demographic)
			lines = append(lines, fmt.Sprintf("age: %v, sex: %s, mrn: %s", d.Age, d.Sex, d.MRN))
		}
	case SectionPrincipalDiagnosis, SectionSecondaryDiagnoses, SectionChiefComplaint:
		lines = append(lines, "primary pathology: "+string(data.PrimaryPathology))
		for _, e := range data.Diagnoses {
			dx := e.Value.(note.Diagnosis)
			lines = append(lines, fmt.Sprintf("diagnosis: %s (primary=%v)", dx.Name, dx.Primary))
		}
	case SectionHistoryOfPresentIllness:
		lines = append(lines, "primary pathology: "+string(data.PrimaryPathology))
		addDates()
	case SectionHospitalCourse, SectionProcedures:
		addDates()
		for _, e := range data.Procedures {
			p := e.Value.(note.Procedure)
			lines = append(lines, "procedure: "+p.Name+datePart(e))
		}
		if section == SectionHospitalCourse {
			for _, e := range data.Complications {
				c := e.Value.(note.Complication)
				lines = append(lines, "complication: "+c.Name+datePart(e))
			}
		}
	case SectionComplications:
		for _, e := range data.Complications {
			c := e.Value.(note.Complication)
			lines = append(lines, "complication: "+c.Name+datePart(e)+", linked procedure: "+c.LinkedProcedure)
		}
	case SectionConsultations:
		for _, e := range data.Consultations {
			c := e.Value.(note.Consultation)
			lines = append(lines, "consultation: "+c.Service)
		}
	case SectionDischargeStatus:
		for _, e := range data.FunctionalScores {
			s := e.Value.(note.FunctionalScore)
			lines = append(lines, fmt.Sprintf("functional score: %s=%g", s.ScaleName, s.Value))
		}
		for _, e := range data.NeuroExams {
			n := e.Value.(note.NeuroExam)
			lines = append(lines, "neuro exam: "+n.Finding)
		}
	case SectionDischargeMedications:
		for _, e := range data.MedicationsDischarge {
			m := e.Value.(note.Medication)
			lines = append(lines, fmt.Sprintf("medication: %s %s %s %s", m.Name, m.Dose, m.Route, m.Frequency))
		}
	case SectionDischargeDisposition:
		if d, ok := data.Disposition(); ok {
			lines = append(lines, "disposition: "+d.Value.(note.DischargeDisposition).Value)
		}
	case SectionFollowUpPlan:
		for _, e := range data.FollowUp {
			f := e.Value.(note.FollowUp)
			lines = append(lines, fmt.Sprintf("follow-up: %s in %s (%s)", f.Service, f.Interval, f.Instructions))
		}
	}
	if len(lines) == 0 {
		return "(no supporting data extracted for this section)"
	}
	return strings.Join(lines, "\n")
}

func datePart(e note.Entity) string {
	if e.Temporal.ResolvedDate != nil {
		return " on " + e.Temporal.ResolvedDate.String()
	}
	if e.Temporal.PODOffset != nil {
		return fmt.Sprintf(" on POD#%d", *e.Temporal.PODOffset)
	}
	return ""
}
