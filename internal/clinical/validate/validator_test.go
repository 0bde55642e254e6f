// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func mkSpan(noteIdx int, text string) note.SourceSpan {
	return note.SourceSpan{NoteIndex: noteIdx, Start: 0, End: len(text), MatchedText: text}
}

func TestCheckEvidence_FlagsUnverifiableSpanAsCritical(t *testing.T) {
	v := New(nil, false)
	e, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: "craniotomy"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).
		WithSpan(note.SourceSpan{NoteIndex: 0, Start: 0, End: 10, MatchedText: "not in note"}).Build()
	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{e})
	notes := []note.Note{{Index: 0, Text: "Patient underwent craniotomy today."}}

	r := v.ValidateExtracted(data, notes)
	assert.True(t, r.HasCritical())
}

func TestCheckCrossFieldConsistency_SurgeryBeforeAdmissionIsMajor(t *testing.T) {
	v := New(nil, false)
	data := &note.ExtractedData{}
	admission, _ := note.NewEntity(note.KindDate, note.DateFact{Which: note.DateAdmission, Value: note.Date{Year: 2026, Month: 1, Day: 10}}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "admitted")).Build()
	surgery, _ := note.NewEntity(note.KindDate, note.DateFact{Which: note.DateSurgery, Value: note.Date{Year: 2026, Month: 1, Day: 5}}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "surgery")).Build()
	data.SetDate(note.DateAdmission, admission)
	data.SetDate(note.DateSurgery, surgery)

	r := v.ValidateExtracted(data, nil)
	assert.Equal(t, 1, r.CountBySeverity(SeverityMajor))
}

func TestCheckCrossFieldConsistency_PEWithoutAnticoagulantFlagged(t *testing.T) {
	v := New(nil, false)
	data := &note.ExtractedData{}
	comp, _ := note.NewEntity(note.KindComplication, note.Complication{Name: "pulmonary embolism", NormalizedName: "pulmonary embolism"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "PE")).Build()
	data.ReplaceComplications([]note.Entity{comp})

	r := v.ValidateExtracted(data, nil)
	found := false
	for _, i := range r.Issues {
		if i.Category == "consistency" && i.Severity == SeverityMajor {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckCrossFieldConsistency_PEWithAnticoagulantNotFlagged(t *testing.T) {
	v := New(nil, false)
	data := &note.ExtractedData{}
	comp, _ := note.NewEntity(note.KindComplication, note.Complication{Name: "pulmonary embolism", NormalizedName: "pulmonary embolism"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "PE")).Build()
	med, _ := note.NewEntity(note.KindMedication, note.Medication{Name: "enoxaparin"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "enoxaparin")).Build()
	data.ReplaceComplications([]note.Entity{comp})
	data.ReplaceMedicationsPost([]note.Entity{med})

	r := v.ValidateExtracted(data, nil)
	for _, i := range r.Issues {
		assert.NotEqual(t, "consistency", i.Category)
	}
}

func TestStrictValidation_PromotesMajorToCritical(t *testing.T) {
	v := New(nil, true)
	data := &note.ExtractedData{}
	admission, _ := note.NewEntity(note.KindDate, note.DateFact{Which: note.DateAdmission, Value: note.Date{Year: 2026, Month: 1, Day: 10}}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "admitted")).Build()
	surgery, _ := note.NewEntity(note.KindDate, note.DateFact{Which: note.DateSurgery, Value: note.Date{Year: 2026, Month: 1, Day: 5}}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "surgery")).Build()
	data.SetDate(note.DateAdmission, admission)
	data.SetDate(note.DateSurgery, surgery)

	r := v.ValidateExtracted(data, nil)
	assert.Equal(t, 0, r.CountBySeverity(SeverityMajor))
	assert.True(t, r.HasCritical())
}

func TestCheckNumericRanges_AgeOutOfBoundsFlagged(t *testing.T) {
	v := New(nil, false)
	age := 200
	d, _ := note.NewEntity(note.KindDemographic, note.Demographic{Age: &age}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(mkSpan(0, "200yo")).Build()
	data := &note.ExtractedData{}
	data.SetDemographic(d)

	r := v.ValidateExtracted(data, nil)
	assert.Equal(t, 1, r.CountBySeverity(SeverityMajor))
}

func TestCheckCompleteness_MissingCoreFieldIsMajor(t *testing.T) {
	pack := &knowledge.Pack{ExpectedFields: []string{"age", "mrn"}}
	v := New(pack, false)
	data := &note.ExtractedData{}

	r := v.ValidateExtracted(data, nil)
	assert.Equal(t, 2, r.CountBySeverity(SeverityMajor))
}

func TestValidateNarrative_MissingCriticalSectionIsCritical(t *testing.T) {
	v := New(nil, false)
	sections := map[string]string{
		"demographics":         "62-year-old male.",
		"principalDiagnosis":   "Subarachnoid hemorrhage.",
		"hospitalCourse":       "Uneventful recovery.",
		"dischargeMedications": "Nimodipine.",
		"dischargeDisposition": "Home.",
		"followUpPlan":         "Neurosurgery in 2 weeks.",
	}
	r := v.ValidateNarrative(sections)
	assert.True(t, r.HasCritical())
}

func TestValidateNarrative_AllSectionsPresentNoIssues(t *testing.T) {
	v := New(nil, false)
	sections := map[string]string{}
	for _, key := range sectionOrder {
		sections[key] = key + " not documented."
	}
	sections["demographics"] = "62-year-old male, MRN 12345."
	sections["principalDiagnosis"] = "Subarachnoid hemorrhage."
	sections["hospitalCourse"] = "The patient underwent successful aneurysm clipping without complication."
	sections["procedures"] = "Aneurysm clipping on POD0."
	sections["dischargeMedications"] = "Nimodipine 60mg every 4 hours."
	sections["dischargeDisposition"] = "Discharged home in stable condition."
	sections["followUpPlan"] = "Follow up with neurosurgery in 2 weeks."

	r := v.ValidateNarrative(sections)
	assert.False(t, r.HasCritical())
}
