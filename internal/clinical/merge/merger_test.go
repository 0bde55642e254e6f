// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/clinicalctx"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func goodQuality() note.SourceQuality {
	return note.SourceQuality{OverallScore: 90, Grade: note.GradeFromScore(90)}
}

func span(noteIdx int, text string) note.SourceSpan {
	return note.SourceSpan{NoteIndex: noteIdx, Start: 0, End: len(text), MatchedText: text}
}

func procedureEntity(method note.Method, name string, confidence float64, noteIdx int) note.Entity {
	e, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: name, NormalizedName: name}).
		WithConfidence(confidence).WithMethod(method).WithSpan(span(noteIdx, name)).Build()
	return e
}

func TestMerge_MatchedPairCombinesConfidenceAndUnionsSpans(t *testing.T) {
	pack := &knowledge.Pack{}
	m := New(pack)
	p := procedureEntity(note.MethodPattern, "craniotomy", 0.9, 0)
	l := procedureEntity(note.MethodLLM, "craniotomy", 0.8, 1)

	out := m.Merge([]note.Entity{p}, []note.Entity{l}, clinicalctx.Context{}, goodQuality())
	require.Len(t, out, 1)
	assert.Equal(t, note.MethodMerged, out[0].Method)
	assert.Len(t, out[0].SourceSpans, 2)
	expected := 1 - (1-0.9)*(1-0.8)
	assert.InDelta(t, expected*goodQuality().CalibrationFactor(), out[0].Confidence, 1e-9)
}

func TestMerge_UnmatchedLLMBelowFloorDropped(t *testing.T) {
	pack := &knowledge.Pack{}
	m := New(pack)
	l := procedureEntity(note.MethodLLM, "shunt revision", 0.4, 0)

	out := m.Merge(nil, []note.Entity{l}, clinicalctx.Context{}, goodQuality())
	assert.Empty(t, out)
}

func TestMerge_UnmatchedLLMAboveFloorKept(t *testing.T) {
	pack := &knowledge.Pack{}
	m := New(pack)
	l := procedureEntity(note.MethodLLM, "shunt revision", 0.7, 0)

	out := m.Merge(nil, []note.Entity{l}, clinicalctx.Context{}, goodQuality())
	require.Len(t, out, 1)
	assert.Equal(t, note.MethodLLM, out[0].Method)
}

func TestMerge_UnmatchedPatternAlwaysKept(t *testing.T) {
	pack := &knowledge.Pack{}
	m := New(pack)
	p := procedureEntity(note.MethodPattern, "craniotomy", 0.3, 0)

	out := m.Merge([]note.Entity{p}, nil, clinicalctx.Context{}, goodQuality())
	require.Len(t, out, 1)
	assert.Equal(t, note.MethodPattern, out[0].Method)
}

func TestMerge_CalibrationFactorLowersConfidenceForPoorSourceQuality(t *testing.T) {
	pack := &knowledge.Pack{}
	m := New(pack)
	p := procedureEntity(note.MethodPattern, "craniotomy", 0.9, 0)
	poor := note.SourceQuality{OverallScore: 10, Grade: note.GradeFromScore(10)}

	out := m.Merge([]note.Entity{p}, nil, clinicalctx.Context{}, poor)
	require.Len(t, out, 1)
	assert.Less(t, out[0].Confidence, 0.9)
}

func TestMerge_PTOTGoldStandardOverridesAtEqualConfidence(t *testing.T) {
	pack := &knowledge.Pack{}
	m := New(pack)
	pScore, _ := note.NewEntity(note.KindFunctionalScore, note.FunctionalScore{ScaleName: "gcs", Value: 14, FromPTOT: true}).
		WithConfidence(0.8).WithMethod(note.MethodPattern).WithSpan(span(0, "GCS 14")).Build()
	lScore, _ := note.NewEntity(note.KindFunctionalScore, note.FunctionalScore{ScaleName: "gcs", Value: 13}).
		WithConfidence(0.8).WithMethod(note.MethodLLM).WithSpan(span(1, "GCS 13")).Build()

	cc := clinicalctx.Context{FunctionalGoldStandard: true}
	out := m.Merge([]note.Entity{pScore}, []note.Entity{lScore}, cc, goodQuality())
	require.Len(t, out, 1)
	got := out[0].Value.(note.FunctionalScore)
	assert.Equal(t, 14.0, got.Value)
}

func TestSimilarity_IdenticalStringsScoreOne(t *testing.T) {
	assert.Equal(t, 1.0, similarity("craniotomy", "Craniotomy"))
}

func TestSimilarity_NearMissesScoreHigh(t *testing.T) {
	s := similarity("ventriculostomy", "ventriculostomy placement")
	assert.Greater(t, s, 0.4)
}
