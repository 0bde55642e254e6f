// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// BuildTemplate renders one section deterministically from data, the
// template-mode guarantee of §4.9: non-empty output whenever supporting
// data exists, otherwise the literal notDocumented filler.
func BuildTemplate(section Section, data *note.ExtractedData, pack *knowledge.Pack, style Style) string {
	switch section {
	case SectionDemographics:
		return templateDemographics(data)
	case SectionPrincipalDiagnosis:
		return templatePrincipalDiagnosis(data)
	case SectionSecondaryDiagnoses:
		return templateSecondaryDiagnoses(data)
	case SectionChiefComplaint:
		return templateChiefComplaint(data)
	case SectionHistoryOfPresentIllness:
		return templateHPI(data)
	case SectionHospitalCourse:
		return templateHospitalCourse(data)
	case SectionProcedures:
		return templateProcedures(data, style)
	case SectionComplications:
		return templateComplications(data, style)
	case SectionConsultations:
		return templateConsultations(data)
	case SectionDischargeStatus:
		return templateDischargeStatus(data)
	case SectionDischargeMedications:
		return templateDischargeMedications(data, style)
	case SectionDischargeDisposition:
		return templateDischargeDisposition(data)
	case SectionFollowUpPlan:
		return templateFollowUpPlan(data, pack, style)
	default:
		return notDocumented(section)
	}
}

func templateDemographics(data *note.ExtractedData) string {
	if data.Demographic == nil {
		return notDocumented(SectionDemographics)
	}
	d := data.Demographic.Value.(note.Demographic)
	var parts []string
	if d.Age != nil {
		parts = append(parts, fmt.Sprintf("%d-year-old", *d.Age))
	}
	switch d.Sex {
	case "M":
		parts = append(parts, "male")
	case "F":
		parts = append(parts, "female")
	}
	subject := "Patient"
	if len(parts) > 0 {
		subject = strings.Join(parts, " ") + " patient"
	}
	sentence := subject + "."
	if d.MRN != "" {
		sentence = subject + " (MRN " + d.MRN + ")."
	}
	return strings.ToUpper(sentence[:1]) + sentence[1:]
}

func templatePrincipalDiagnosis(data *note.ExtractedData) string {
	for _, e := range data.Diagnoses {
		dx, ok := e.Value.(note.Diagnosis)
		if !ok || !dx.Primary {
			continue
		}
		return "Principal diagnosis: " + dx.Name + "."
	}
	if data.PrimaryPathology != "" {
		return "Principal diagnosis: " + pathologyLabel(data.PrimaryPathology) + "."
	}
	return notDocumented(SectionPrincipalDiagnosis)
}

func templateSecondaryDiagnoses(data *note.ExtractedData) string {
	var names []string
	for _, e := range data.Diagnoses {
		dx, ok := e.Value.(note.Diagnosis)
		if !ok || dx.Primary {
			continue
		}
		names = append(names, dx.Name)
	}
	for _, p := range data.SecondaryPathology {
		names = append(names, pathologyLabel(p))
	}
	if len(names) == 0 {
		return notDocumented(SectionSecondaryDiagnoses)
	}
	return "Secondary diagnoses: " + joinNatural(names) + "."
}

func templateChiefComplaint(data *note.ExtractedData) string {
	if data.PrimaryPathology == "" {
		return notDocumented(SectionChiefComplaint)
	}
	return "Patient presented with findings consistent with " + pathologyLabel(data.PrimaryPathology) + "."
}

func templateHPI(data *note.ExtractedData) string {
	admission, hasAdmission := data.DateValue(note.DateAdmission)
	if !hasAdmission && data.PrimaryPathology == "" {
		return notDocumented(SectionHistoryOfPresentIllness)
	}
	var b strings.Builder
	if data.PrimaryPathology != "" {
		b.WriteString("Patient was admitted for evaluation and management of " + pathologyLabel(data.PrimaryPathology) + ".")
	} else {
		b.WriteString("Patient was admitted for neurosurgical evaluation.")
	}
	if hasAdmission {
		b.WriteString(" Admission date: " + admission.String() + ".")
	}
	return b.String()
}

func templateHospitalCourse(data *note.ExtractedData) string {
	var sentences []string
	if procs := entityNames(data.Procedures, procedureName); len(procs) > 0 {
		sentences = append(sentences, "During the hospitalization, the patient underwent "+joinNatural(procs)+".")
	}
	if comps := entityNames(data.Complications, complicationName); len(comps) > 0 {
		sentences = append(sentences, "Hospital course was complicated by "+joinNatural(comps)+".")
	}
	if scores := latestScoreSentence(data.FunctionalScores); scores != "" {
		sentences = append(sentences, scores)
	}
	if len(sentences) == 0 {
		return notDocumented(SectionHospitalCourse)
	}
	return strings.Join(sentences, " ")
}

func templateProcedures(data *note.ExtractedData, style Style) string {
	if len(data.Procedures) == 0 {
		return notDocumented(SectionProcedures)
	}
	ordered := append([]note.Entity{}, data.Procedures...)
	sortByResolvedDate(ordered)
	var lines []string
	for _, e := range ordered {
		p := e.Value.(note.Procedure)
		name := p.NormalizedName
		if name == "" {
			name = p.Name
		}
		line := name
		if style != StyleConcise {
			if e.Temporal.ResolvedDate != nil {
				line += " (" + e.Temporal.ResolvedDate.String() + ")"
			}
			if p.Surgeon != "" {
				line += ", surgeon: " + p.Surgeon
			}
		}
		lines = append(lines, line)
	}
	return "Procedures performed: " + strings.Join(lines, "; ") + "."
}

func templateComplications(data *note.ExtractedData, style Style) string {
	if len(data.Complications) == 0 {
		return notDocumented(SectionComplications)
	}
	ordered := append([]note.Entity{}, data.Complications...)
	sortByResolvedDate(ordered)
	var lines []string
	for _, e := range ordered {
		c := e.Value.(note.Complication)
		name := c.NormalizedName
		if name == "" {
			name = c.Name
		}
		line := name
		if style != StyleConcise {
			if c.LinkedProcedure != "" {
				line += " following " + c.LinkedProcedure
			}
			if e.Temporal.ResolvedDate != nil {
				line += " (" + e.Temporal.ResolvedDate.String() + ")"
			}
		}
		lines = append(lines, line)
	}
	return "Complications: " + strings.Join(lines, "; ") + "."
}

func templateConsultations(data *note.ExtractedData) string {
	services := entityNames(data.Consultations, func(v any) string {
		return v.(note.Consultation).Service
	})
	if len(services) == 0 {
		return notDocumented(SectionConsultations)
	}
	return "Consultations obtained: " + joinNatural(services) + "."
}

func templateDischargeStatus(data *note.ExtractedData) string {
	sentence := latestScoreSentence(data.FunctionalScores)
	var examSentence string
	if len(data.NeuroExams) > 0 {
		ordered := append([]note.Entity{}, data.NeuroExams...)
		sortByResolvedDate(ordered)
		last := ordered[len(ordered)-1]
		examSentence = "At discharge, neurological exam showed " + last.Value.(note.NeuroExam).Finding + "."
	}
	switch {
	case sentence != "" && examSentence != "":
		return sentence + " " + examSentence
	case sentence != "":
		return sentence
	case examSentence != "":
		return examSentence
	default:
		return notDocumented(SectionDischargeStatus)
	}
}

func templateDischargeMedications(data *note.ExtractedData, style Style) string {
	names := entityNames(data.MedicationsDischarge, func(v any) string {
		m := v.(note.Medication)
		name := m.Name
		if name == "" {
			name = m.NormalizedName
		}
		if style == StyleConcise {
			return name
		}
		dose := strings.TrimSpace(m.Dose + " " + m.Route + " " + m.Frequency)
		if dose != "" {
			return name + " " + dose
		}
		return name
	})
	if len(names) == 0 {
		return notDocumented(SectionDischargeMedications)
	}
	return "Discharge medications: " + strings.Join(names, "; ") + "."
}

func templateDischargeDisposition(data *note.ExtractedData) string {
	d, ok := data.Disposition()
	if !ok {
		return notDocumented(SectionDischargeDisposition)
	}
	value := d.Value.(note.DischargeDisposition).Value
	if value == "expired" {
		return "Patient expired during this hospitalization."
	}
	return "Patient was discharged to " + value + "."
}

func templateFollowUpPlan(data *note.ExtractedData, pack *knowledge.Pack, style Style) string {
	var lines []string
	for _, e := range data.FollowUp {
		f := e.Value.(note.FollowUp)
		line := "Follow up with " + f.Service
		if f.Interval != "" {
			line += " in " + f.Interval
		}
		if f.Instructions != "" && style != StyleConcise {
			line += " (" + f.Instructions + ")"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 && pack != nil {
		for _, convention := range pack.FollowUpConventions {
			lines = append(lines, convention)
		}
	}
	if len(lines) == 0 {
		return notDocumented(SectionFollowUpPlan)
	}
	return "Follow-up plan: " + strings.Join(lines, "; ") + "."
}

// latestScoreSentence reports the most recently resolved functional
// score, the sentence the discharge-status and hospital-course
// templates both draw on.
func latestScoreSentence(scores []note.Entity) string {
	if len(scores) == 0 {
		return ""
	}
	ordered := append([]note.Entity{}, scores...)
	sortByResolvedDate(ordered)
	last := ordered[len(ordered)-1]
	s := last.Value.(note.FunctionalScore)
	return fmt.Sprintf("%s score of %g was documented.", strings.ToUpper(s.ScaleName), s.Value)
}

func procedureName(v any) string {
	p := v.(note.Procedure)
	if p.NormalizedName != "" {
		return p.NormalizedName
	}
	return p.Name
}

func complicationName(v any) string {
	c := v.(note.Complication)
	if c.NormalizedName != "" {
		return c.NormalizedName
	}
	return c.Name
}

func entityNames(entities []note.Entity, name func(any) string) []string {
	var out []string
	for _, e := range entities {
		n := name(e.Value)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func sortByResolvedDate(entities []note.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		di, dj := entities[i].Temporal.ResolvedDate, entities[j].Temporal.ResolvedDate
		if di == nil || dj == nil {
			return false
		}
		return di.Before(*dj)
	})
}

// joinNatural joins items with commas and a trailing "and", the
// readable-prose join every template-mode sentence needs.
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func pathologyLabel(p note.Pathology) string {
	return strings.ToLower(strings.ReplaceAll(string(p), "_", " "))
}
