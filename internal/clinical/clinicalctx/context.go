// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package clinicalctx implements the Context Builder (§4.2): pathology
// detection, consultant-service detection, complexity scoring, and
// knowledge-pack selection. Scoring uses a per-note weighted-dictionary
// accumulator, grounded on the teacher's
// internal/intelligence/confidence.Scorer accumulator-with-metrics shape.
package clinicalctx

import (
	"sort"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Context is the Context Builder's output: detected pathology tags,
// consultants present, complexity score, and the selected knowledge
// packs for downstream stages (§3 Pathology, §4.2).
type Context struct {
	Primary   note.Pathology
	Secondary []note.Pathology

	Consultants map[string]bool // e.g. "PT/OT", "ID", "Psychiatry"

	// FunctionalGoldStandard marks that PT/OT notes are present and
	// should override LLM output for functional-score entities at equal
	// confidence, per §4.2's "this marking propagates to the merger".
	FunctionalGoldStandard bool

	ComplexityScore float64 // 0-100, higher = more complex

	PrimaryPack   *knowledge.Pack
	SecondaryPacks []*knowledge.Pack
}

var consultantCues = map[string][]string{
	"PT/OT":      {"physical therapy", "occupational therapy", "pt/ot", "pt evaluation", "ot evaluation"},
	"ID":         {"infectious disease", "id consult", "id recommends"},
	"Psychiatry": {"psychiatry", "psych consult"},
	"Neurology":  {"neurology consult", "neurology recommends"},
	"Cardiology": {"cardiology consult"},
	"Urology":    {"urology consult"},
}

var icuCues = []string{"icu", "intensive care unit", "intubated", "vasopressor", "arterial line"}

// Build runs pathology detection, consultant detection, and complexity
// scoring over the normalized corpus, then selects knowledge packs.
func Build(notes []note.Note, registry *knowledge.Registry, hint *note.Pathology) Context {
	corpus := strings.ToLower(joinTexts(notes))

	scores := scorePathologies(corpus, registry)

	var primary note.Pathology
	var secondary []note.Pathology

	if hint != nil && *hint != "" {
		primary = *hint
	} else {
		primary, secondary = topPathologies(scores)
	}
	if primary == "" {
		primary = note.PathologyGeneral
	}

	consultants := make(map[string]bool)
	for service, cues := range consultantCues {
		for _, cue := range cues {
			if strings.Contains(corpus, cue) {
				consultants[service] = true
				break
			}
		}
	}

	complexity := scoreComplexity(corpus, notes, len(secondary))

	ctx := Context{
		Primary:                primary,
		Secondary:              secondary,
		Consultants:            consultants,
		FunctionalGoldStandard: consultants["PT/OT"],
		ComplexityScore:        complexity,
	}
	if registry != nil {
		ctx.PrimaryPack = registry.Get(primary)
		for _, s := range secondary {
			ctx.SecondaryPacks = append(ctx.SecondaryPacks, registry.Get(s))
		}
	}
	return ctx
}

func joinTexts(notes []note.Note) string {
	var b strings.Builder
	for _, n := range notes {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func scorePathologies(corpus string, registry *knowledge.Registry) map[note.Pathology]float64 {
	scores := make(map[note.Pathology]float64)
	if registry == nil {
		return scores
	}
	for _, tag := range note.AllPathologies {
		pack := registry.Get(tag)
		if pack == nil {
			continue
		}
		var s float64
		for term, weight := range pack.DictionaryWeights {
			if strings.Contains(corpus, strings.ToLower(term)) {
				s += weight
			}
		}
		for _, alias := range pack.Aliases {
			if strings.Contains(corpus, strings.ToLower(alias)) {
				s += 1
			}
		}
		if s > 0 {
			scores[tag] = s
		}
	}
	return scores
}

// topPathologies picks the highest-scoring tag as primary and any other
// tag scoring at least 40% of the primary's score as secondary.
func topPathologies(scores map[note.Pathology]float64) (note.Pathology, []note.Pathology) {
	if len(scores) == 0 {
		return "", nil
	}
	type kv struct {
		k note.Pathology
		v float64
	}
	var list []kv
	for k, v := range scores {
		list = append(list, kv{k, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].v != list[j].v {
			return list[i].v > list[j].v
		}
		return list[i].k < list[j].k
	})
	primary := list[0].k
	var secondary []note.Pathology
	threshold := list[0].v * 0.4
	for _, item := range list[1:] {
		if item.v >= threshold && item.v > 0 {
			secondary = append(secondary, item.k)
		}
	}
	return primary, secondary
}

func scoreComplexity(corpus string, notes []note.Note, secondaryCount int) float64 {
	score := 0.0
	score += float64(secondaryCount) * 15

	icuHits := 0
	for _, cue := range icuCues {
		if strings.Contains(corpus, cue) {
			icuHits++
		}
	}
	score += float64(icuHits) * 10

	procedureWords := []string{"underwent", "performed", "taken to the operating room", "procedure:"}
	procCount := 0
	for _, w := range procedureWords {
		procCount += strings.Count(corpus, w)
	}
	score += float64(procCount) * 5

	complicationWords := []string{"complication", "infection", "vasospasm", "hemorrhage", "deficit", "failure"}
	compCount := 0
	for _, w := range complicationWords {
		compCount += strings.Count(corpus, w)
	}
	score += float64(compCount) * 4

	score += float64(len(notes))

	if score > 100 {
		score = 100
	}
	return score
}

// IsComplex reports whether the LLM Extractor should use focused
// multi-pass extraction rather than a single-pass call (§4.5).
func (c Context) IsComplex() bool {
	return c.ComplexityScore >= 40
}
