// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package merge

import (
	"sort"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/clinicalctx"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// simThreshold is τ_sim (§4.6 step 2): the minimum free-text similarity
// for a pattern/LLM pair to be considered the same entity when their
// normalized values don't match exactly.
const simThreshold = 0.82

// unmatchedLLMConfidenceFloor is the minimum confidence an unmatched
// LLM entity must carry to be kept (§4.6 step 4).
const unmatchedLLMConfidenceFloor = 0.6

// mergedConfidenceCap bounds the probabilistic-OR combination (§4.6
// step 3).
const mergedConfidenceCap = 0.98

// Merger combines Pattern Extractor and LLM Extractor output into the
// Hybrid Merger's single entity list (§4.6).
type Merger struct {
	pack *knowledge.Pack
}

// New binds a Merger to the pathology pack whose canonical spellings
// drive normalization.
func New(pack *knowledge.Pack) *Merger {
	return &Merger{pack: pack}
}

// Merge runs the full §4.6 algorithm: normalize, match across sources,
// combine confidence for matches, filter unmatched LLM entities, keep
// all unmatched pattern entities, calibrate by source quality, and
// apply the PT/OT gold-standard override.
func (m *Merger) Merge(patternEntities, llmEntities []note.Entity, cc clinicalctx.Context, sq note.SourceQuality) []note.Entity {
	byKind := make(map[note.Kind][]note.Entity)
	for _, e := range patternEntities {
		e.Method = note.MethodPattern
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}
	llmByKind := make(map[note.Kind][]note.Entity)
	for _, e := range llmEntities {
		e.Method = note.MethodLLM
		llmByKind[e.Kind] = append(llmByKind[e.Kind], e)
	}

	calibration := sq.CalibrationFactor()

	// Singleton fields (demographics, the named dates) carry their own
	// earlier-noteIndex-wins tie-break in note.ExtractedData.SetDemographic
	// / SetDate, applied when these entities are assigned into the
	// ExtractedData record rather than here.
	var out []note.Entity
	kinds := allKinds(byKind, llmByKind)
	for _, kind := range kinds {
		merged := m.mergeCategory(kind, byKind[kind], llmByKind[kind], cc, calibration)
		out = append(out, merged...)
	}
	return out
}

func allKinds(a, b map[note.Kind][]note.Entity) []note.Kind {
	seen := make(map[note.Kind]bool)
	var kinds []note.Kind
	for k := range a {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (m *Merger) mergeCategory(kind note.Kind, patternEs, llmEs []note.Entity, cc clinicalctx.Context, calibration float64) []note.Entity {
	usedLLM := make([]bool, len(llmEs))
	var out []note.Entity

	for _, p := range patternEs {
		pNorm := normalizedValue(p, m.pack)
		pText := freeText(p)
		matchIdx := -1
		for j, l := range llmEs {
			if usedLLM[j] {
				continue
			}
			if normalizedValue(l, m.pack) == pNorm || (pText != "" && similarity(pText, freeText(l)) >= simThreshold) {
				matchIdx = j
				break
			}
		}
		if matchIdx == -1 {
			p.Confidence = calibrate(p.Confidence, calibration)
			out = append(out, p)
			continue
		}
		usedLLM[matchIdx] = true
		l := llmEs[matchIdx]
		out = append(out, m.combine(kind, p, l, cc, calibration))
	}

	for j, l := range llmEs {
		if usedLLM[j] {
			continue
		}
		if l.Confidence < unmatchedLLMConfidenceFloor {
			continue
		}
		l.Confidence = calibrate(l.Confidence, calibration)
		out = append(out, l)
	}

	return out
}

// combine implements §4.6 steps 3 and 7: probabilistic-OR confidence
// combination with span union, and the PT/OT gold-standard override
// for functional scores at equal confidence.
func (m *Merger) combine(kind note.Kind, p, l note.Entity, cc clinicalctx.Context, calibration float64) note.Entity {
	if kind == note.KindFunctionalScore && cc.FunctionalGoldStandard {
		pScore := p.Value.(note.FunctionalScore)
		if pScore.FromPTOT && p.Confidence == l.Confidence {
			p.SourceSpans = unionSpans(p.SourceSpans, l.SourceSpans)
			p.MergeCount = p.MergeCount + l.MergeCount
			p.Method = note.MethodMerged
			p.Confidence = calibrate(p.Confidence, calibration)
			return p
		}
	}

	combined := p
	combined.Confidence = 1 - (1-p.Confidence)*(1-l.Confidence)
	if combined.Confidence > mergedConfidenceCap {
		combined.Confidence = mergedConfidenceCap
	}
	combined.Confidence = calibrate(combined.Confidence, calibration)
	combined.SourceSpans = unionSpans(p.SourceSpans, l.SourceSpans)
	combined.MergeCount = p.MergeCount + l.MergeCount
	combined.Method = note.MethodMerged
	return combined
}

func calibrate(confidence, factor float64) float64 {
	c := confidence * factor
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
