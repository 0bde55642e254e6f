// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func mkEntity(kind note.Kind, value any, noteIdx, start, end int, matched string) note.Entity {
	e, _ := note.NewEntity(kind, value).WithConfidence(0.9).WithMethod(note.MethodPattern).
		WithSpan(note.SourceSpan{NoteIndex: noteIdx, Start: start, End: end, MatchedText: matched}).Build()
	return e
}

func TestClassifyReference_SectionHeaderWinsAsNewEvent(t *testing.T) {
	noteText := "Procedure: craniotomy for clot evacuation performed without incident."
	span := note.SourceSpan{NoteIndex: 0, Start: 11, End: 21, MatchedText: "craniotomy"}
	tc := classifyReference("craniotomy", span, noteText)
	assert.Equal(t, note.KindNewEvent, tc.Kind)
	assert.Equal(t, 0.95, tc.Confidence)
	assert.Equal(t, "section_header", tc.Indicator)
}

func TestClassifyReference_StatusPostWinsAsReference(t *testing.T) {
	noteText := "Patient is s/p craniotomy, neurologically intact."
	idx := len("Patient is s/p ")
	span := note.SourceSpan{NoteIndex: 0, Start: idx, End: idx + 10, MatchedText: "craniotomy"}
	tc := classifyReference("craniotomy", span, noteText)
	assert.Equal(t, note.KindReference, tc.Kind)
	assert.Equal(t, "explicit_reference_marker", tc.Indicator)
}

func TestClassifyReference_AmbiguousDefault(t *testing.T) {
	noteText := "craniotomy discussed in handoff notes."
	span := note.SourceSpan{NoteIndex: 0, Start: 0, End: 10, MatchedText: "craniotomy"}
	tc := classifyReference("craniotomy", span, noteText)
	assert.Equal(t, note.KindNewEvent, tc.Kind)
	assert.Equal(t, 0.50, tc.Confidence)
	assert.Equal(t, "ambiguous_default", tc.Indicator)
}

func TestEngineProcess_ResolvesPODRelativeToSurgeryDate(t *testing.T) {
	surgery := note.Date{Year: 2026, Month: 1, Day: 5}
	anchors := Anchors{Surgery: &surgery, Admission: &note.Date{Year: 2026, Month: 1, Day: 4}, Discharge: &note.Date{Year: 2026, Month: 1, Day: 12}}
	engine := New(anchors)

	noteText := "POD#3 patient developed a wound infection at the incision site."
	idx := len("POD#3 patient developed a ")
	entity := mkEntity(note.KindComplication, note.Complication{Name: "wound infection", NormalizedName: "wound infection"}, 0, idx, idx+16, "wound infection")
	notes := []note.Note{{Index: 0, Text: noteText}}

	out := engine.Process([]note.Entity{entity}, notes)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Temporal.ResolvedDate)
	assert.Equal(t, "2026-01-08", out[0].Temporal.ResolvedDate.String())
}

func TestEngineProcess_UnresolvableWithoutAnchorFlagsFailure(t *testing.T) {
	anchors := Anchors{} // no surgery date known
	engine := New(anchors)

	noteText := "POD#2 the patient remains stable."
	entity := mkEntity(note.KindProcedure, note.Procedure{Name: "craniotomy", NormalizedName: "craniotomy"}, 0, 0, 5, "POD#2")
	notes := []note.Note{{Index: 0, Text: noteText}}

	out := engine.Process([]note.Entity{entity}, notes)
	require.Len(t, out, 1)
	assert.True(t, out[0].Temporal.ResolutionFailed)
	assert.Nil(t, out[0].Temporal.ResolvedDate)
}

func TestEngineProcess_LinksComplicationToAdjacentProcedure(t *testing.T) {
	procDate := note.Date{Year: 2026, Month: 1, Day: 5}
	compDate := note.Date{Year: 2026, Month: 1, Day: 6}
	procedure := mkEntity(note.KindProcedure, note.Procedure{Name: "craniotomy", NormalizedName: "craniotomy", Date: &procDate}, 0, 0, 10, "craniotomy")
	procedure.Temporal.ResolvedDate = &procDate
	complication := mkEntity(note.KindComplication, note.Complication{Name: "seizure", NormalizedName: "seizure", Date: &compDate}, 1, 0, 7, "seizure")
	complication.Temporal.ResolvedDate = &compDate

	entities := []note.Entity{procedure, complication}
	linkCausalAdjacency(entities)
	linked := entities[1].Value.(note.Complication)
	assert.Equal(t, "craniotomy", linked.LinkedProcedure)
}
