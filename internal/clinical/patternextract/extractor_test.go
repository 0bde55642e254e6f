// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package patternextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func testPack() *knowledge.Pack {
	return &knowledge.Pack{
		Name:               "Subarachnoid Hemorrhage",
		GradingScales:      map[string][2]float64{"hunt-hess": {1, 5}, "gcs": {3, 15}},
		ProcedureCanonical: map[string]string{"craniotomy": "craniotomy"},
	}
}

func TestExtract_FunctionalScoreWithinRange(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient presented with Hunt-Hess grade 3 subarachnoid hemorrhage."}}
	x := New(testPack())
	entities := x.Extract(notes)

	var found *note.Entity
	for i := range entities {
		if entities[i].Kind == note.KindFunctionalScore {
			found = &entities[i]
		}
	}
	require.NotNil(t, found)
	score := found.Value.(note.FunctionalScore)
	assert.Equal(t, "hunt-hess", score.ScaleName)
	assert.Equal(t, 3.0, score.Value)
	assert.Equal(t, 0.95, found.Confidence)
	require.Len(t, found.SourceSpans, 1)
	assert.NotEmpty(t, found.SourceSpans[0].MatchedText)
}

func TestExtract_FunctionalScoreOutOfRangeDropped(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Hunt-Hess grade 9 documented, clearly a transcription error."}}
	x := New(testPack())
	entities := x.Extract(notes)
	for _, e := range entities {
		assert.NotEqual(t, note.KindFunctionalScore, e.Kind)
	}
}

func TestExtract_ProcedureVerbPattern(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "The patient underwent craniotomy for clot evacuation without complication."}}
	x := New(testPack())
	entities := x.Extract(notes)

	var found bool
	for _, e := range entities {
		if e.Kind == note.KindProcedure {
			p := e.Value.(note.Procedure)
			assert.Equal(t, "craniotomy", p.NormalizedName)
			found = true
		}
	}
	assert.True(t, found, "expected a procedure entity")
}

func TestExtract_EveryEntityCarriesASourceSpan(t *testing.T) {
	notes := []note.Note{
		{Index: 0, Text: "MRN: 445566. 58-year-old female admitted with SAH."},
		{Index: 1, Text: "Date of surgery: 2026-01-05. Underwent performed craniotomy."},
	}
	x := New(testPack())
	entities := x.Extract(notes)
	require.NotEmpty(t, entities)
	for _, e := range entities {
		require.NoError(t, e.Validate())
	}
}

func TestExtract_OverlappingMatchesMergeWithinSameTier(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient underwent performed craniotomy and evacuation today."}}
	x := New(testPack())
	entities := x.Extract(notes)
	for _, e := range entities {
		if e.Kind == note.KindProcedure {
			assert.GreaterOrEqual(t, e.MergeCount, 1)
		}
	}
}

func TestExtract_NoMatchesReturnsEmpty(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Nothing clinically notable here at all."}}
	x := New(testPack())
	entities := x.Extract(notes)
	assert.Empty(t, entities)
}
