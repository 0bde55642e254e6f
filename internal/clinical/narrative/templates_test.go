// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func span(text string) note.SourceSpan {
	return note.SourceSpan{NoteIndex: 0, Start: 0, End: len(text), MatchedText: text}
}

func TestBuildTemplate_DemographicsRendersAgeSex(t *testing.T) {
	age := 58
	data := &note.ExtractedData{}
	data.SetDemographic(note.Entity{
		Kind:        note.KindDemographic,
		Value:       note.Demographic{Age: &age, Sex: "F", MRN: "123456"},
		SourceSpans: []note.SourceSpan{span("58-year-old female")},
	})

	got := BuildTemplate(SectionDemographics, data, nil, StyleFormal)
	assert.Contains(t, got, "58-year-old")
	assert.Contains(t, got, "female")
	assert.Contains(t, got, "123456")
}

func TestBuildTemplate_EmptySectionYieldsNotDocumented(t *testing.T) {
	data := &note.ExtractedData{}
	got := BuildTemplate(SectionComplications, data, nil, StyleFormal)
	assert.Equal(t, "complications not documented.", got)
}

func TestBuildTemplate_DischargeDispositionHome(t *testing.T) {
	data := &note.ExtractedData{}
	e, err := note.NewEntity(note.KindDischargeDisposition, note.DischargeDisposition{Value: "home"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(span("discharged home")).Build()
	require.NoError(t, err)
	data.ReplaceDispositionCandidates([]note.Entity{e})

	got := BuildTemplate(SectionDischargeDisposition, data, nil, StyleFormal)
	assert.Equal(t, "Patient was discharged to home.", got)
}

func TestBuildTemplate_DischargeDispositionExpired(t *testing.T) {
	data := &note.ExtractedData{}
	e, err := note.NewEntity(note.KindDischargeDisposition, note.DischargeDisposition{Value: "expired"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(span("patient expired")).Build()
	require.NoError(t, err)
	data.ReplaceDispositionCandidates([]note.Entity{e})

	got := BuildTemplate(SectionDischargeDisposition, data, nil, StyleFormal)
	assert.Equal(t, "Patient expired during this hospitalization.", got)
}

func TestBuildTemplate_ProceduresListsMultipleWithDates(t *testing.T) {
	d1 := note.Date{Year: 2026, Month: 3, Day: 1}
	d2 := note.Date{Year: 2026, Month: 3, Day: 3}
	p1, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: "craniotomy", NormalizedName: "craniotomy"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(span("craniotomy")).
		WithTemporal(note.TemporalContext{Kind: note.KindNewEvent, ResolvedDate: &d1}).Build()
	p2, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: "evd placement", NormalizedName: "evd placement"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(span("evd placement")).
		WithTemporal(note.TemporalContext{Kind: note.KindNewEvent, ResolvedDate: &d2}).Build()

	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{p2, p1})

	got := BuildTemplate(SectionProcedures, data, nil, StyleFormal)
	assert.Contains(t, got, "craniotomy (2026-03-01)")
	assert.Contains(t, got, "evd placement (2026-03-03)")
	assert.Less(t, indexOf(got, "craniotomy"), indexOf(got, "evd placement"))
}

func TestBuildTemplate_ConciseStyleOmitsProcedureDate(t *testing.T) {
	d1 := note.Date{Year: 2026, Month: 3, Day: 1}
	p1, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: "craniotomy", NormalizedName: "craniotomy", Surgeon: "Dr. Lee"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(span("craniotomy")).
		WithTemporal(note.TemporalContext{Kind: note.KindNewEvent, ResolvedDate: &d1}).Build()

	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{p1})

	got := BuildTemplate(SectionProcedures, data, nil, StyleConcise)
	assert.NotContains(t, got, "2026-03-01")
	assert.NotContains(t, got, "Dr. Lee")
	assert.Contains(t, got, "craniotomy")
}

func TestBuildTemplate_FollowUpFallsBackToPackConventions(t *testing.T) {
	pack := &knowledge.Pack{FollowUpConventions: []string{"neurosurgery clinic in 2 weeks"}}
	data := &note.ExtractedData{}
	got := BuildTemplate(SectionFollowUpPlan, data, pack, StyleFormal)
	assert.Contains(t, got, "neurosurgery clinic in 2 weeks")
}

func TestJoinNatural(t *testing.T) {
	assert.Equal(t, "", joinNatural(nil))
	assert.Equal(t, "a", joinNatural([]string{"a"}))
	assert.Equal(t, "a and b", joinNatural([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", joinNatural([]string{"a", "b", "c"}))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
