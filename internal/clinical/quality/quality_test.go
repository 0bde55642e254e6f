// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/validate"
)

func TestScore_NoIssuesYieldsHighOverall(t *testing.T) {
	s := New()
	r := s.Score(Input{Data: &note.ExtractedData{}, Elapsed: time.Second, Deadline: time.Minute})
	assert.Greater(t, r.Overall, 80.0)
}

func TestScore_CriticalEvidenceIssueLowersAccuracy(t *testing.T) {
	s := New()
	issues := validate.Report{Issues: []validate.Issue{{Severity: validate.SeverityCritical, Category: "evidence", Message: "no span"}}}
	r := s.Score(Input{Data: &note.ExtractedData{}, ExtractedIssues: issues, Elapsed: time.Second, Deadline: time.Minute})
	assert.Less(t, r.Scores[DimensionAccuracy], 100.0)
}

func TestScore_ApproachingDeadlineLowersTimeliness(t *testing.T) {
	s := New()
	r := s.Score(Input{Data: &note.ExtractedData{}, Elapsed: 55 * time.Second, Deadline: 60 * time.Second})
	assert.Less(t, r.Scores[DimensionTimeliness], 100.0)
}

func TestScore_ResolvedDatesRaiseSpecificity(t *testing.T) {
	s := New()
	d := note.Date{Year: 2026, Month: 1, Day: 1}
	e, _ := note.NewEntity(note.KindProcedure, note.Procedure{Name: "craniotomy"}).
		WithConfidence(0.9).WithMethod(note.MethodPattern).
		WithSpan(note.SourceSpan{NoteIndex: 0, Start: 0, End: 5, MatchedText: "crani"}).Build()
	e.Temporal.ResolvedDate = &d
	data := &note.ExtractedData{}
	data.ReplaceProcedures([]note.Entity{e})

	r := s.Score(Input{Data: data, Elapsed: time.Second, Deadline: time.Minute})
	assert.Equal(t, 100.0, r.Scores[DimensionSpecificity])
}
