// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package note

import "fmt"

// ExtractedData is the structured payload produced by the Hybrid
// Merger and mutated only by the Temporal Engine, Deduplicator, and the
// Orchestrator's refinement loop (§3 Lifecycle).
type ExtractedData struct {
	Demographic *Entity // KindDemographic, singleton

	AdmissionDate *Entity // KindDate, DateAdmission
	SurgeryDate   *Entity // KindDate, DateSurgery
	DischargeDate *Entity // KindDate, DateDischarge
	IctusDate     *Entity // KindDate, DateIctus

	PrimaryPathology   Pathology
	SecondaryPathology []Pathology

	Procedures     []Entity
	Complications  []Entity
	MedicationsPre []Entity
	MedicationsPost []Entity
	MedicationsDischarge []Entity
	ImagingPre     []Entity
	ImagingPost    []Entity
	Consultations  []Entity
	FollowUp       []Entity
	FunctionalScores []Entity
	NeuroExams     []Entity
	Labs           []Entity
	Diagnoses      []Entity
	DispositionCandidates []Entity

	frozen bool
}

// Freeze marks the payload immutable; called by the Orchestrator right
// before narrative generation (§3 Lifecycle). Mutating methods below
// panic if called on a frozen value, which would indicate an
// InvariantViolation bug (§7), never an input-driven condition.
func (d *ExtractedData) Freeze() { d.frozen = true }

// IsFrozen reports whether Freeze has been called.
func (d *ExtractedData) IsFrozen() bool { return d.frozen }

func (d *ExtractedData) mustBeMutable(caller string) {
	if d.frozen {
		panic(fmt.Sprintf("clinical: %s called on a frozen ExtractedData (invariant violation)", caller))
	}
}

// AllCategoryEntities returns every entity currently held, across every
// category, flattened for stages (dedup, validate, quality) that need a
// uniform walk without caring which slice an entity lives in.
func (d *ExtractedData) AllCategoryEntities() []*Entity {
	var out []*Entity
	if d.Demographic != nil {
		out = append(out, d.Demographic)
	}
	for _, p := range []*Entity{d.AdmissionDate, d.SurgeryDate, d.DischargeDate, d.IctusDate} {
		if p != nil {
			out = append(out, p)
		}
	}
	groups := [][]Entity{
		d.Procedures, d.Complications, d.MedicationsPre, d.MedicationsPost,
		d.MedicationsDischarge, d.ImagingPre, d.ImagingPost, d.Consultations,
		d.FollowUp, d.FunctionalScores, d.NeuroExams, d.Labs, d.Diagnoses,
		d.DispositionCandidates,
	}
	for _, g := range groups {
		for i := range g {
			out = append(out, &g[i])
		}
	}
	return out
}

// ReplaceCategory installs a new slice for one of the repeated
// categories by pointer to the field, used by the Deduplicator and
// refinement loop to swap in a collapsed/augmented slice. It panics on
// a frozen payload (internal bug, not input-driven, per §7).
func (d *ExtractedData) ReplaceProcedures(v []Entity) {
	d.mustBeMutable("ReplaceProcedures")
	d.Procedures = v
}
func (d *ExtractedData) ReplaceComplications(v []Entity) {
	d.mustBeMutable("ReplaceComplications")
	d.Complications = v
}
func (d *ExtractedData) ReplaceMedicationsPre(v []Entity) {
	d.mustBeMutable("ReplaceMedicationsPre")
	d.MedicationsPre = v
}
func (d *ExtractedData) ReplaceMedicationsPost(v []Entity) {
	d.mustBeMutable("ReplaceMedicationsPost")
	d.MedicationsPost = v
}
func (d *ExtractedData) ReplaceMedicationsDischarge(v []Entity) {
	d.mustBeMutable("ReplaceMedicationsDischarge")
	d.MedicationsDischarge = v
}
func (d *ExtractedData) ReplaceImagingPre(v []Entity) {
	d.mustBeMutable("ReplaceImagingPre")
	d.ImagingPre = v
}
func (d *ExtractedData) ReplaceImagingPost(v []Entity) {
	d.mustBeMutable("ReplaceImagingPost")
	d.ImagingPost = v
}
func (d *ExtractedData) ReplaceConsultations(v []Entity) {
	d.mustBeMutable("ReplaceConsultations")
	d.Consultations = v
}
func (d *ExtractedData) ReplaceFollowUp(v []Entity) {
	d.mustBeMutable("ReplaceFollowUp")
	d.FollowUp = v
}
func (d *ExtractedData) ReplaceFunctionalScores(v []Entity) {
	d.mustBeMutable("ReplaceFunctionalScores")
	d.FunctionalScores = v
}
func (d *ExtractedData) ReplaceNeuroExams(v []Entity) {
	d.mustBeMutable("ReplaceNeuroExams")
	d.NeuroExams = v
}
func (d *ExtractedData) ReplaceLabs(v []Entity) {
	d.mustBeMutable("ReplaceLabs")
	d.Labs = v
}
func (d *ExtractedData) ReplaceDiagnoses(v []Entity) {
	d.mustBeMutable("ReplaceDiagnoses")
	d.Diagnoses = v
}
func (d *ExtractedData) ReplaceDispositionCandidates(v []Entity) {
	d.mustBeMutable("ReplaceDispositionCandidates")
	d.DispositionCandidates = v
}

// SetDemographic installs the singleton demographic entity, applying
// the earlier-noteIndex-wins tie-break (§4.6 ordering tie-breaks) when
// one is already present.
func (d *ExtractedData) SetDemographic(e Entity) {
	d.mustBeMutable("SetDemographic")
	if d.Demographic == nil {
		d.Demographic = &e
		return
	}
	if len(e.SourceSpans) > 0 && len(d.Demographic.SourceSpans) > 0 &&
		e.SourceSpans[0].NoteIndex < d.Demographic.SourceSpans[0].NoteIndex {
		d.Demographic = &e
	}
}

// SetDate installs one of the four named dates, applying the same
// earlier-noteIndex-wins singleton tie-break.
func (d *ExtractedData) SetDate(which DateFactKind, e Entity) {
	d.mustBeMutable("SetDate")
	var slot **Entity
	switch which {
	case DateAdmission:
		slot = &d.AdmissionDate
	case DateSurgery:
		slot = &d.SurgeryDate
	case DateDischarge:
		slot = &d.DischargeDate
	case DateIctus:
		slot = &d.IctusDate
	default:
		return
	}
	if *slot == nil {
		*slot = &e
		return
	}
	if len(e.SourceSpans) > 0 && len((*slot).SourceSpans) > 0 &&
		e.SourceSpans[0].NoteIndex < (*slot).SourceSpans[0].NoteIndex {
		*slot = &e
	}
}

// Disposition returns the highest-confidence discharge disposition
// candidate, since dedup collapses matching mentions but does not
// reduce the category to a true singleton the way Demographic/Date
// are (§4.8 operates on repeated categories uniformly).
func (d *ExtractedData) Disposition() (Entity, bool) {
	var best *Entity
	for i := range d.DispositionCandidates {
		if best == nil || d.DispositionCandidates[i].Confidence > best.Confidence {
			best = &d.DispositionCandidates[i]
		}
	}
	if best == nil {
		return Entity{}, false
	}
	return *best, true
}

// DateValue reads the resolved Date out of one of the four named date
// slots, returning the zero Date and false if unset.
func (d *ExtractedData) DateValue(which DateFactKind) (Date, bool) {
	var e *Entity
	switch which {
	case DateAdmission:
		e = d.AdmissionDate
	case DateSurgery:
		e = d.SurgeryDate
	case DateDischarge:
		e = d.DischargeDate
	case DateIctus:
		e = d.IctusDate
	}
	if e == nil {
		return Date{}, false
	}
	df, ok := e.Value.(DateFact)
	if !ok {
		return Date{}, false
	}
	return df.Value, true
}
