// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package merge

import (
	"fmt"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// normalizedValue is the per-entity comparison key produced by step 1
// of §4.6 ("normalize values: case, punctuation, canonical spellings
// drawn from the knowledge pack").
func normalizedValue(e note.Entity, pack *knowledge.Pack) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.Trim(s, ".,;:!?")
		return s
	}
	switch e.Kind {
	case note.KindDemographic:
		d := e.Value.(note.Demographic)
		if d.MRN != "" {
			return "mrn:" + d.MRN
		}
		return fmt.Sprintf("demographic:%v:%s", d.Age, d.Sex)
	case note.KindDate:
		f := e.Value.(note.DateFact)
		return fmt.Sprintf("date:%s:%s", f.Which, f.Value.String())
	case note.KindProcedure:
		p := e.Value.(note.Procedure)
		name := p.NormalizedName
		if name == "" {
			name = p.Name
		}
		return "procedure:" + clean(pack.CanonicalProcedure(name))
	case note.KindComplication:
		c := e.Value.(note.Complication)
		name := c.NormalizedName
		if name == "" {
			name = c.Name
		}
		return "complication:" + clean(pack.CanonicalComplication(name))
	case note.KindMedication:
		m := e.Value.(note.Medication)
		name := m.NormalizedName
		if name == "" {
			name = m.Name
		}
		return "medication:" + clean(name)
	case note.KindImagingFinding:
		i := e.Value.(note.ImagingFinding)
		return "imaging:" + clean(i.Modality) + ":" + clean(i.Finding)
	case note.KindFunctionalScore:
		s := e.Value.(note.FunctionalScore)
		return "score:" + clean(s.ScaleName)
	case note.KindNeuroExam:
		n := e.Value.(note.NeuroExam)
		return "exam:" + clean(n.Finding)
	case note.KindConsultation:
		c := e.Value.(note.Consultation)
		return "consult:" + clean(c.Service)
	case note.KindDiagnosis:
		d := e.Value.(note.Diagnosis)
		return "diagnosis:" + clean(d.Name)
	case note.KindFollowUp:
		f := e.Value.(note.FollowUp)
		return "followup:" + clean(f.Service) + ":" + clean(f.Interval)
	case note.KindDischargeDisposition:
		d := e.Value.(note.DischargeDisposition)
		return "disposition:" + clean(d.Value)
	default:
		return fmt.Sprintf("%v", e.Value)
	}
}

// freeText extracts the loosely-comparable free-text part of a value
// (the part a human would read for "is this the same thing"), used for
// the similarity-threshold match when normalizedValue equality fails.
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
