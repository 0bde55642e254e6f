// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func spanFor(noteIdx int, text string) note.SourceSpan {
	return note.SourceSpan{NoteIndex: noteIdx, Start: 0, End: len(text), MatchedText: text}
}

func procedure(name string, noteIdx int, refKind note.ReferenceKind) note.Entity {
	e, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: name, NormalizedName: name}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(spanFor(noteIdx, name)).
		WithTemporal(note.TemporalContext{Kind: refKind}).Build()
	return e
}

func TestDedup_FiveMentionsOfSameProcedureCollapseToOne(t *testing.T) {
	pack := &knowledge.Pack{}
	d := New(pack)
	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{
		procedure("craniotomy for aneurysm clipping", 0, note.KindNewEvent),
		procedure("craniotomy for aneurysm clipping", 1, note.KindReference),
		procedure("craniotomy for aneurysm clipping", 2, note.KindReference),
		procedure("craniotomy for aneurysm clipping", 3, note.KindReference),
		procedure("craniotomy for aneurysm clipping", 4, note.KindReference),
	})

	stats := d.Dedup(data)
	require.Len(t, data.Procedures, 1)
	assert.GreaterOrEqual(t, data.Procedures[0].MergeCount, 5)
	cs := stats.Categories[note.KindProcedure]
	assert.Greater(t, cs.ReductionPercent, 50.0)
}

func TestDedup_SameProcedureDifferentResolvedDatesStayDistinctEvents(t *testing.T) {
	pack := &knowledge.Pack{}
	d := New(pack)
	d1 := note.Date{Year: 2026, Month: 1, Day: 5}
	d2 := note.Date{Year: 2026, Month: 1, Day: 20}

	first := procedure("shunt revision", 0, note.KindNewEvent)
	first.Temporal.ResolvedDate = &d1
	second := procedure("shunt revision", 1, note.KindNewEvent)
	second.Temporal.ResolvedDate = &d2

	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{first, second})

	d.Dedup(data)
	assert.Len(t, data.Procedures, 2)
}

func TestDedup_SemanticallySimilarNamesCollapse(t *testing.T) {
	pack := &knowledge.Pack{}
	d := New(pack)
	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{
		procedure("ventriculostomy", 0, note.KindNewEvent),
		procedure("ventriculostomy placement", 1, note.KindNewEvent),
	})

	d.Dedup(data)
	assert.Len(t, data.Procedures, 1)
}

func TestDedup_NeuroExamProgressionKeptSeparate(t *testing.T) {
	pack := &knowledge.Pack{}
	d := New(pack)
	d1 := note.Date{Year: 2026, Month: 1, Day: 5}
	d2 := note.Date{Year: 2026, Month: 1, Day: 8}

	e1, _ := note.NewEntity(note.KindNeuroExam, note.NeuroExam{Finding: "left hemiparesis"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(spanFor(0, "left hemiparesis")).
		WithTemporal(note.TemporalContext{Kind: note.KindNewEvent, ResolvedDate: &d1}).Build()
	e2, _ := note.NewEntity(note.KindNeuroExam, note.NeuroExam{Finding: "resolving hemiparesis"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).WithSpan(spanFor(1, "resolving hemiparesis")).
		WithTemporal(note.TemporalContext{Kind: note.KindNewEvent, ResolvedDate: &d2}).Build()

	data := &note.ExtractedData{}
	data.ReplaceNeuroExams([]note.Entity{e1, e2})

	d.Dedup(data)
	assert.Len(t, data.NeuroExams, 2)
}

func TestDedup_UnmatchedReferenceKeptAsOwnEntity(t *testing.T) {
	pack := &knowledge.Pack{}
	d := New(pack)
	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{
		procedure("burr hole drainage", 0, note.KindReference),
	})

	d.Dedup(data)
	require.Len(t, data.Procedures, 1)
	assert.Equal(t, "burr hole drainage", data.Procedures[0].Value.(note.Procedure).Name)
}

func TestSimilarity_IdenticalIsOne(t *testing.T) {
	assert.Equal(t, 1.0, similarity("craniotomy", "craniotomy"))
}
