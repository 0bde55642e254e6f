// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"sort"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// causalAdjacencyWindowDays is the configured window within which a
// complication immediately following a procedure is recorded as a soft
// causal link (§4.7c).
const causalAdjacencyWindowDays = 3

// Engine runs the Temporal Engine's three sub-tasks (§4.7): reference
// classification, date resolution, and timeline ordering/causality.
type Engine struct {
	anchors Anchors
}

// New binds an Engine to the admission/surgery/discharge date anchors
// resolved earlier in the pipeline.
func New(anchors Anchors) *Engine {
	return &Engine{anchors: anchors}
}

// Process classifies and date-resolves every entity, in place, and
// returns the timeline-ordered slice with causal links recorded on
// complications (§4.7a-c).
func (e *Engine) Process(entities []note.Entity, notes []note.Note) []note.Entity {
	out := make([]note.Entity, len(entities))
	copy(out, entities)

	var nearestPreceding *note.Date
	for i := range out {
		ent := &out[i]
		if len(ent.SourceSpans) == 0 {
			continue
		}
		primary := ent.SourceSpans[0]
		if primary.NoteIndex < 0 || primary.NoteIndex >= len(notes) {
			continue
		}
		noteText := notes[primary.NoteIndex].Text

		ent.Temporal = classifyReference(primary.MatchedText, primary, noteText)

		window := surroundingWindow(noteText, primary.Start, primary.End)
		res := resolveDate(window, e.anchors, nearestPreceding)
		if res.podOffset != nil {
			ent.Temporal.PODOffset = res.podOffset
		}
		if res.qualifier != "" {
			ent.Temporal.TemporalQualifier = res.qualifier
		}
		if res.failed {
			ent.Temporal.ResolutionFailed = true
		} else if res.date != nil {
			if !withinAdmissionWindow(*res.date, e.anchors) && !ent.Temporal.PreAdmission {
				ent.Temporal.ResolutionFailed = true
			} else {
				ent.Temporal.ResolvedDate = res.date
				setDateOnValue(ent, res.date)
				nearestPreceding = res.date
			}
		}
	}

	sortTimeline(out)
	linkCausalAdjacency(out)
	return out
}

// setDateOnValue writes a resolved date back into the entity's typed
// value, for the variant kinds that carry a Date field.
func setDateOnValue(e *note.Entity, d *note.Date) {
	switch v := e.Value.(type) {
	case note.Procedure:
		v.Date = d
		e.Value = v
	case note.Complication:
		v.Date = d
		e.Value = v
	case note.ImagingFinding:
		v.Date = d
		e.Value = v
	case note.FunctionalScore:
		v.Date = d
		e.Value = v
	case note.NeuroExam:
		v.Date = d
		e.Value = v
	case note.Consultation:
		v.Date = d
		e.Value = v
	}
}

// sortTimeline implements §4.7c's partial order: entities with a
// resolved date sort by that date, ties break by first source span
// order; entities with no resolved date sort after all resolved ones,
// in original order.
func sortTimeline(entities []note.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		di, oki := entityDate(entities[i])
		dj, okj := entityDate(entities[j])
		if oki && okj {
			if !di.Before(dj) && !dj.Before(di) {
				return firstSpanOrder(entities[i]) < firstSpanOrder(entities[j])
			}
			return di.Before(dj)
		}
		if oki != okj {
			return oki
		}
		return false
	})
}

func entityDate(e note.Entity) (note.Date, bool) {
	if e.Temporal.ResolvedDate != nil {
		return *e.Temporal.ResolvedDate, true
	}
	return note.Date{}, false
}

func firstSpanOrder(e note.Entity) int {
	if len(e.SourceSpans) == 0 {
		return 0
	}
	return e.SourceSpans[0].NoteIndex*1_000_000 + e.SourceSpans[0].Start
}

// linkCausalAdjacency records a soft causal link when a complication's
// resolved date falls within the configured window after a procedure's
// (§4.7c); the narrative generator uses this to phrase the complication
// as a consequence of the procedure rather than an unrelated event.
func linkCausalAdjacency(entities []note.Entity) {
	var procedures []*note.Entity
	for i := range entities {
		if entities[i].Kind == note.KindProcedure {
			procedures = append(procedures, &entities[i])
		}
	}
	for i := range entities {
		if entities[i].Kind != note.KindComplication {
			continue
		}
		comp := entities[i].Value.(note.Complication)
		if comp.Date == nil {
			continue
		}
		var best *note.Entity
		for _, p := range procedures {
			proc := p.Value.(note.Procedure)
			if proc.Date == nil {
				continue
			}
			if comp.Date.Before(*proc.Date) {
				continue
			}
			days := daysBetween(*proc.Date, *comp.Date)
			if days <= causalAdjacencyWindowDays {
				if best == nil || proc.Date.After(*best.Value.(note.Procedure).Date) {
					best = p
				}
			}
		}
		if best != nil {
			comp.LinkedProcedure = best.Value.(note.Procedure).NormalizedName
			entities[i].Value = comp
		}
	}
}

func daysBetween(a, b note.Date) int {
	return int(b.ToTime().Sub(a.ToTime()).Hours() / 24)
}
