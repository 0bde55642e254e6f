// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package patternextract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Extractor runs the pattern-match recipe tables against a note corpus,
// always independent of the LLM Gateway (§4.4).
type Extractor struct {
	pack *knowledge.Pack
}

// New builds an Extractor bound to a pathology's knowledge pack.
func New(pack *knowledge.Pack) *Extractor {
	return &Extractor{pack: pack}
}

// candidate is one recipe match before the ordering rule is applied.
type candidate struct {
	recipe    *Recipe
	noteIndex int
	start     int
	end       int
	matched   string
	value     any
	normKey   string
}

// Extract runs every category's recipe table against every note and
// returns the resulting entities, each carrying method=pattern.
func (x *Extractor) Extract(notes []note.Note) []note.Entity {
	recipeTables := BuildRecipes(x.pack)
	var result []note.Entity
	for kind, recipes := range recipeTables {
		sorted := make([]*Recipe, len(recipes))
		copy(sorted, recipes)
		sortByPriority(sorted)
		result = append(result, x.extractCategory(kind, sorted, notes)...)
	}
	return result
}

// extractCategory implements §4.4's ordering rule: within a category,
// higher-tier candidates win over lower-tier for the same normalized
// value; equal-tier candidates with overlapping spans merge (union of
// spans, mergeCount increments); equal-tier non-overlapping candidates
// produce separate entities. This is the tier walk the teacher's
// PatternMatcher.Match performs over DefaultPatterns, generalized from
// "first match wins" to "best tier per normalized value wins".
func (x *Extractor) extractCategory(kind note.Kind, recipes []*Recipe, notes []note.Note) []note.Entity {
	var candidates []candidate
	for ni, n := range notes {
		text := n.Text
		for _, r := range recipes {
			matches := r.Regex.FindAllStringSubmatchIndex(text, -1)
			for _, idx := range matches {
				groups := submatchStrings(text, idx)
				value, ok := r.Builder(groups, ni, text)
				if !ok {
					continue
				}
				start, end := idx[0], idx[1]
				candidates = append(candidates, candidate{
					recipe:    r,
					noteIndex: ni,
					start:     start,
					end:       end,
					matched:   text[start:end],
					value:     value,
					normKey:   normKey(kind, value),
				})
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	groups := make(map[string][]candidate)
	for _, c := range candidates {
		groups[c.normKey] = append(groups[c.normKey], c)
	}

	var out []note.Entity
	for _, group := range groups {
		bestTier := group[0].recipe.Tier
		for _, c := range group {
			if c.recipe.Tier < bestTier {
				bestTier = c.recipe.Tier
			}
		}
		var winners []candidate
		for _, c := range group {
			if c.recipe.Tier == bestTier {
				winners = append(winners, c)
			}
		}
		out = append(out, mergeOverlapping(kind, winners)...)
	}
	return out
}

// mergeOverlapping unions spans for same-note overlapping candidates
// into a single entity, and keeps non-overlapping candidates as
// separate entities (§4.4 ordering rule, second half).
func mergeOverlapping(kind note.Kind, cands []candidate) []note.Entity {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].noteIndex != cands[j].noteIndex {
			return cands[i].noteIndex < cands[j].noteIndex
		}
		return cands[i].start < cands[j].start
	})

	var clusters [][]candidate
	for _, c := range cands {
		placed := false
		for i := range clusters {
			last := clusters[i][len(clusters[i])-1]
			if last.noteIndex == c.noteIndex && c.start < last.end {
				clusters[i] = append(clusters[i], c)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []candidate{c})
		}
	}

	var entities []note.Entity
	for _, cluster := range clusters {
		builder := note.NewEntity(kind, cluster[0].value).
			WithConfidence(cluster[0].recipe.Tier.Confidence()).
			WithMethod(note.MethodPattern)
		for _, c := range cluster {
			builder = builder.WithSpan(note.SourceSpan{
				NoteIndex:   c.noteIndex,
				Start:       c.start,
				End:         c.end,
				MatchedText: c.matched,
			})
		}
		e, err := builder.Build()
		if err != nil {
			continue
		}
		if len(cluster) > 1 {
			e.MergeCount = len(cluster)
		}
		entities = append(entities, e)
	}
	return entities
}

func submatchStrings(text string, idx []int) []string {
	groups := make([]string, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			groups[i/2] = ""
			continue
		}
		groups[i/2] = text[idx[i]:idx[i+1]]
	}
	return groups
}

// normKey produces the string used to group candidates across recipes
// within a category, so a higher-tier recipe's match for "craniotomy"
// suppresses a lower-tier recipe's match for the same normalized value.
func normKey(kind note.Kind, value any) string {
	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	switch kind {
	case note.KindDemographic:
		d := value.(note.Demographic)
		if d.MRN != "" {
			return "mrn:" + d.MRN
		}
		if d.Age != nil {
			return fmt.Sprintf("age-sex:%d:%s", *d.Age, d.Sex)
		}
		return "demographic:unknown"
	case note.KindDate:
		f := value.(note.DateFact)
		return fmt.Sprintf("date:%s:%s", f.Which, f.Value.String())
	case note.KindFunctionalScore:
		s := value.(note.FunctionalScore)
		return fmt.Sprintf("score:%s", lower(s.ScaleName))
	case note.KindProcedure:
		p := value.(note.Procedure)
		return "procedure:" + lower(p.NormalizedName)
	case note.KindComplication:
		c := value.(note.Complication)
		return "complication:" + lower(c.NormalizedName)
	case note.KindMedication:
		m := value.(note.Medication)
		return "medication:" + lower(m.NormalizedName)
	case note.KindImagingFinding:
		i := value.(note.ImagingFinding)
		return "imaging:" + lower(i.Modality) + ":" + lower(i.Finding)
	case note.KindNeuroExam:
		n := value.(note.NeuroExam)
		return "exam:" + lower(n.Finding)
	case note.KindConsultation:
		c := value.(note.Consultation)
		return "consult:" + lower(c.Service)
	case note.KindDiagnosis:
		d := value.(note.Diagnosis)
		return "diagnosis:" + lower(d.Name)
	case note.KindFollowUp:
		f := value.(note.FollowUp)
		return "followup:" + lower(f.Service) + ":" + lower(f.Interval)
	case note.KindDischargeDisposition:
		d := value.(note.DischargeDisposition)
		return "disposition:" + lower(d.Value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
