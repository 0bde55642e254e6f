// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package patternextract implements the Pattern Extractor (§4.4): a
// rule-based extractor keyed by the Context's pathology knowledge pack,
// run independently of the LLM Gateway.
//
// Recipes are modeled on the teacher's doctor.FailurePattern /
// doctor.DefaultPatterns priority-ordered regex table
// (internal/superbrain/doctor/patterns.go): a flat, sortable, testable
// slice of data rather than nested conditionals. Candidate construction
// goes through note.EntityBuilder, generalized from doctor.DiagnosisBuilder
// (internal/superbrain/doctor/diagnosis.go).
package patternextract

import (
	"regexp"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Tier is the match-confidence tier a recipe belongs to (§4.4).
type Tier int

const (
	TierExactExplicit     Tier = iota // 0.95
	TierAbbreviation                  // 0.90
	TierContextualInfer                // 0.80
	TierIndirectMention                // 0.70
)

// Confidence returns the recipe tier's initial confidence value.
func (t Tier) Confidence() float64 {
	switch t {
	case TierExactExplicit:
		return 0.95
	case TierAbbreviation:
		return 0.90
	case TierContextualInfer:
		return 0.80
	case TierIndirectMention:
		return 0.70
	default:
		return 0.50
	}
}

// Recipe is one prioritized match rule for a category (§4.4). Builder
// receives the regex submatches, the note index, and the full note
// text, and returns the entity value plus ok=false if the match should
// be discarded (e.g. a numeral out of the grading scale's range).
type Recipe struct {
	Name     string
	Kind     note.Kind
	Regex    *regexp.Regexp
	Tier     Tier
	Priority int
	Builder  func(groups []string, noteIndex int, text string) (value any, ok bool)
}

// sortByPriority sorts recipes descending by priority, matching
// doctor.sortPatternsByPriority's insertion sort (small, stable lists).
func sortByPriority(recipes []*Recipe) {
	for i := 1; i < len(recipes); i++ {
		key := recipes[i]
		j := i - 1
		for j >= 0 && recipes[j].Priority < key.Priority {
			recipes[j+1] = recipes[j]
			j--
		}
		recipes[j+1] = key
	}
}
