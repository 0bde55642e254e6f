// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package merge

import "github.com/ramihatou97/DCS-sub001/internal/clinical/note"

// Assemble buckets Merge's flat entity list into an ExtractedData
// payload, the one place §3's "only merge.Merger.Merge constructs an
// ExtractedData" happens: singleton kinds go through SetDemographic/
// SetDate for their earlier-noteIndex-wins tie-break, repeated kinds
// go straight into their category slice via the Replace* setters so
// the Deduplicator's later in-place collapse has somewhere to write
// back to.
func Assemble(entities []note.Entity) *note.ExtractedData {
	data := &note.ExtractedData{}

	var procedures, complications, consultations, followUp []note.Entity
	var medsPre, medsPost, medsDischarge []note.Entity
	var imagingPre, imagingPost []note.Entity
	var functionalScores, neuroExams, diagnoses, disposition []note.Entity

	for _, e := range entities {
		switch e.Kind {
		case note.KindDemographic:
			data.SetDemographic(e)
		case note.KindDate:
			if d, ok := e.Value.(note.DateFact); ok {
				data.SetDate(d.Which, e)
			}
		case note.KindProcedure:
			procedures = append(procedures, e)
		case note.KindComplication:
			complications = append(complications, e)
		case note.KindMedication:
			m, ok := e.Value.(note.Medication)
			if !ok {
				continue
			}
			switch m.Phase {
			case note.MedPhasePreOp:
				medsPre = append(medsPre, e)
			case note.MedPhaseDischarge:
				medsDischarge = append(medsDischarge, e)
			default:
				medsPost = append(medsPost, e)
			}
		case note.KindImagingFinding:
			img, ok := e.Value.(note.ImagingFinding)
			if !ok {
				continue
			}
			if img.Timing == note.ImagingPreOp {
				imagingPre = append(imagingPre, e)
			} else {
				imagingPost = append(imagingPost, e)
			}
		case note.KindConsultation:
			consultations = append(consultations, e)
		case note.KindFollowUp:
			followUp = append(followUp, e)
		case note.KindFunctionalScore:
			functionalScores = append(functionalScores, e)
		case note.KindNeuroExam:
			neuroExams = append(neuroExams, e)
		case note.KindDiagnosis:
			diagnoses = append(diagnoses, e)
		case note.KindDischargeDisposition:
			disposition = append(disposition, e)
		}
	}

	data.ReplaceProcedures(procedures)
	data.ReplaceComplications(complications)
	data.ReplaceMedicationsPre(medsPre)
	data.ReplaceMedicationsPost(medsPost)
	data.ReplaceMedicationsDischarge(medsDischarge)
	data.ReplaceImagingPre(imagingPre)
	data.ReplaceImagingPost(imagingPost)
	data.ReplaceConsultations(consultations)
	data.ReplaceFollowUp(followUp)
	data.ReplaceFunctionalScores(functionalScores)
	data.ReplaceNeuroExams(neuroExams)
	data.ReplaceDiagnoses(diagnoses)
	data.ReplaceDispositionCandidates(disposition)

	return data
}
