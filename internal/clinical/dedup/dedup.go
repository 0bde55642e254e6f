// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dedup implements the Deduplicator (§4.8): it runs after
// temporal classification and collapses repeated mentions of the same
// clinical fact into single records, while preserving genuine
// progression (an exam finding that changes over time is not a
// duplicate of an earlier one).
//
// The category-similarity-threshold shape is grounded on the teacher's
// intelligence/cache.SemanticCache (internal/intelligence/cache/semantic_cache.go):
// a fixed similarity threshold gating a collapse decision, with a
// metrics struct recording hits/collapses. Embedding cosine similarity
// is replaced with the string-similarity ratio already built for the
// Hybrid Merger (§4.6's Non-goal rules out vector/embedding search),
// so this package reimplements the same small Levenshtein-ratio helper
// rather than importing the merge package's unexported one.
package dedup

import (
	"fmt"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// simThreshold is τ_sem from §4.8 step 2: the minimum free-text
// similarity for two same-category mentions to be treated as the same
// underlying fact rather than two distinct ones.
const simThreshold = 0.84

// Deduplicator collapses repeated entity mentions within an
// ExtractedData payload, category by category.
type Deduplicator struct {
	pack *knowledge.Pack
}

// New binds a Deduplicator to the pathology knowledge pack used for
// canonical-name normalization.
func New(pack *knowledge.Pack) *Deduplicator {
	return &Deduplicator{pack: pack}
}

// Dedup runs the three-step collapse (§4.8) over every repeated
// category in data, replacing each category's slice in place and
// returning the per-category merge metadata blocks.
func (d *Deduplicator) Dedup(data *note.ExtractedData) Stats {
	stats := Stats{Categories: make(map[note.Kind]CategoryStats)}

	collapse := func(kind note.Kind, entities []note.Entity, replace func([]note.Entity)) {
		out, cs := d.collapseCategory(kind, entities)
		replace(out)
		stats.Categories[kind] = cs
	}

	collapse(note.KindProcedure, data.Procedures, data.ReplaceProcedures)
	collapse(note.KindComplication, data.Complications, data.ReplaceComplications)
	collapse(note.KindMedication, append(append(append([]note.Entity{}, data.MedicationsPre...), data.MedicationsPost...), data.MedicationsDischarge...), func(v []note.Entity) {
		pre, post, disch := splitMedicationPhases(v)
		data.ReplaceMedicationsPre(pre)
		data.ReplaceMedicationsPost(post)
		data.ReplaceMedicationsDischarge(disch)
	})
	collapse(note.KindImagingFinding, append(append([]note.Entity{}, data.ImagingPre...), data.ImagingPost...), func(v []note.Entity) {
		pre, post := splitImagingTiming(v)
		data.ReplaceImagingPre(pre)
		data.ReplaceImagingPost(post)
	})
	collapse(note.KindConsultation, data.Consultations, data.ReplaceConsultations)
	collapse(note.KindFollowUp, data.FollowUp, data.ReplaceFollowUp)
	collapse(note.KindFunctionalScore, data.FunctionalScores, data.ReplaceFunctionalScores)
	collapse(note.KindNeuroExam, data.NeuroExams, data.ReplaceNeuroExams)
	collapse(note.KindDiagnosis, data.Diagnoses, data.ReplaceDiagnoses)
	collapse(note.KindDischargeDisposition, data.DispositionCandidates, data.ReplaceDispositionCandidates)

	stats.computeOverall()
	return stats
}

func splitMedicationPhases(v []note.Entity) (pre, post, disch []note.Entity) {
	for _, e := range v {
		m, ok := e.Value.(note.Medication)
		if !ok {
			continue
		}
		switch m.Phase {
		case note.MedPhasePreOp:
			pre = append(pre, e)
		case note.MedPhaseDischarge:
			disch = append(disch, e)
		default:
			post = append(post, e)
		}
	}
	return
}

func splitImagingTiming(v []note.Entity) (pre, post []note.Entity) {
	for _, e := range v {
		i, ok := e.Value.(note.ImagingFinding)
		if !ok {
			continue
		}
		if i.Timing == note.ImagingPreOp {
			pre = append(pre, e)
		} else {
			post = append(post, e)
		}
	}
	return
}

// collapseCategory runs the reference-attachment pass followed by the
// structural/semantic/event collapse passes for one category, and
// returns the surviving entities plus the merge metadata block (§4.8).
func (d *Deduplicator) collapseCategory(kind note.Kind, entities []note.Entity) ([]note.Entity, CategoryStats) {
	cs := CategoryStats{Original: len(entities)}
	if len(entities) == 0 {
		return entities, cs
	}

	newEvents, references := partitionByReferenceKind(entities)
	cs.References = len(references)
	newEvents = attachReferences(kind, newEvents, references, d.pack)

	structural := collapseByKey(newEvents, func(e note.Entity) string {
		return structuralKey(kind, e, d.pack)
	})

	final := collapseBySimilarity(kind, structural)

	cs.Deduplicated = len(final)
	cs.NewEvents = len(final)
	if cs.Original > 0 {
		cs.ReductionPercent = (1 - float64(cs.Deduplicated)/float64(cs.Original)) * 100
	}
	for _, e := range final {
		cs.MergedCount += e.MergeCount
	}
	return final, cs
}

// partitionByReferenceKind splits entities by the Temporal Engine's
// classification (§4.7a); entities never classified (Temporal.Kind
// unset) are treated as new events, the conservative default.
func partitionByReferenceKind(entities []note.Entity) (newEvents, references []note.Entity) {
	for _, e := range entities {
		if e.Temporal.Kind == note.KindReference {
			references = append(references, e)
		} else {
			newEvents = append(newEvents, e)
		}
	}
	return
}

// attachReferences folds each reference entity into the matching
// new_event entity (same normalized name) within the category,
// incrementing mergeCount and unioning spans, per §4.8's opening rule.
// A reference with no matching new_event entity is kept as its own
// candidate so it still survives into the narrative rather than being
// silently discarded.
func attachReferences(kind note.Kind, newEvents, references []note.Entity, pack *knowledge.Pack) []note.Entity {
	for _, ref := range references {
		key := structuralKey(kind, ref, pack)
		matched := false
		for i := range newEvents {
			if structuralKey(kind, newEvents[i], pack) == key {
				newEvents[i].SourceSpans = unionSpans(newEvents[i].SourceSpans, ref.SourceSpans)
				newEvents[i].MergeCount += ref.MergeCount
				matched = true
				break
			}
		}
		if !matched {
			newEvents = append(newEvents, ref)
		}
	}
	return newEvents
}

// collapseByKey groups entities by an exact key and merges each group
// into one representative (§4.8 step 1, extended to double as step 3's
// event dedup for date-bearing kinds whose key already folds in the
// resolved date — see structuralKey).
func collapseByKey(entities []note.Entity, key func(note.Entity) string) []note.Entity {
	order := make([]string, 0, len(entities))
	groups := make(map[string][]note.Entity)
	for _, e := range entities {
		k := key(e)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	out := make([]note.Entity, 0, len(order))
	for _, k := range order {
		out = append(out, mergeGroup(groups[k]))
	}
	return out
}

// collapseBySimilarity is step 2: among the structurally-distinct
// representatives, fold pairs whose free text similarity clears
// simThreshold into one entity, unless they represent a clinically
// meaningful progression rather than a duplicate.
func collapseBySimilarity(kind note.Kind, entities []note.Entity) []note.Entity {
	merged := make([]bool, len(entities))
	var out []note.Entity
	for i := range entities {
		if merged[i] {
			continue
		}
		group := []note.Entity{entities[i]}
		for j := i + 1; j < len(entities); j++ {
			if merged[j] {
				continue
			}
			if isProgression(kind, entities[i], entities[j]) {
				continue
			}
			if similarity(freeText(entities[i]), freeText(entities[j])) >= simThreshold {
				group = append(group, entities[j])
				merged[j] = true
			}
		}
		out = append(out, mergeGroup(group))
	}
	return out
}

// isProgression implements §4.8 step 2's exception: an exam or
// functional score that changes between two resolved dates is kept as
// a separate temporal point rather than collapsed into its predecessor.
func isProgression(kind note.Kind, a, b note.Entity) bool {
	if kind != note.KindNeuroExam && kind != note.KindFunctionalScore {
		return false
	}
	da, oka := a.Temporal.ResolvedDate, a.Temporal.ResolvedDate != nil
	db, okb := b.Temporal.ResolvedDate, b.Temporal.ResolvedDate != nil
	if !oka || !okb {
		return false
	}
	if da.Year == db.Year && da.Month == db.Month && da.Day == db.Day {
		return false
	}
	return freeText(a) != freeText(b)
}

// mergeGroup collapses a non-empty group of duplicate entities into
// one: highest-confidence value survives, spans union, mergeCount sums.
func mergeGroup(group []note.Entity) note.Entity {
	base := group[0]
	for _, e := range group[1:] {
		if e.Confidence > base.Confidence {
			base.Value = e.Value
			base.Confidence = e.Confidence
			base.Method = e.Method
		}
		base.SourceSpans = unionSpans(base.SourceSpans, e.SourceSpans)
		base.MergeCount += e.MergeCount
	}
	return base
}

// structuralKey is the comparison key for step 1 (and, for date-bearing
// kinds, step 3): canonical value, extended with the resolved date when
// one exists so two occurrences of the same procedure on different
// days stay distinct events.
func structuralKey(kind note.Kind, e note.Entity, pack *knowledge.Pack) string {
	key := normalizedValue(kind, e, pack)
	if e.Temporal.ResolvedDate != nil {
		key += "@" + e.Temporal.ResolvedDate.String()
	}
	return key
}

func normalizedValue(kind note.Kind, e note.Entity, pack *knowledge.Pack) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.Trim(s, ".,;:!?")
	}
	switch v := e.Value.(type) {
	case note.Procedure:
		name := v.NormalizedName
		if name == "" {
			name = v.Name
		}
		return "procedure:" + clean(pack.CanonicalProcedure(name))
	case note.Complication:
		name := v.NormalizedName
		if name == "" {
			name = v.Name
		}
		return "complication:" + clean(pack.CanonicalComplication(name))
	case note.Medication:
		name := v.NormalizedName
		if name == "" {
			name = v.Name
		}
		return "medication:" + clean(name)
	case note.ImagingFinding:
		return "imaging:" + clean(v.Modality) + ":" + clean(v.Finding)
	case note.FunctionalScore:
		return "score:" + clean(v.ScaleName)
	case note.NeuroExam:
		return "exam:" + clean(v.Finding)
	case note.Consultation:
		return "consult:" + clean(v.Service)
	case note.Diagnosis:
		return "diagnosis:" + clean(v.Name)
	case note.FollowUp:
		return "followup:" + clean(v.Service) + ":" + clean(v.Interval)
	case note.DischargeDisposition:
		return "disposition:" + clean(v.Value)
	default:
		return fmt.Sprintf("%s:%v", kind, v)
	}
}

func freeText(e note.Entity) string {
	switch v := e.Value.(type) {
	case note.Procedure:
		return v.Name
	case note.Complication:
		return v.Name
	case note.Medication:
		return v.Name
	case note.ImagingFinding:
		return v.Finding
	case note.NeuroExam:
		return v.Finding
	case note.Diagnosis:
		return v.Name
	case note.FollowUp:
		return v.Service + " " + v.Interval
	case note.Consultation:
		return v.Service
	case note.DischargeDisposition:
		return v.Value
	default:
		return ""
	}
}

func unionSpans(a, b []note.SourceSpan) []note.SourceSpan {
	out := make([]note.SourceSpan, 0, len(a)+len(b))
	seen := make(map[note.SourceSpan]bool)
	for _, s := range append(append([]note.SourceSpan{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
