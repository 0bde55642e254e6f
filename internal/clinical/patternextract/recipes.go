// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package patternextract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// gradingScaleNames lists the scale names an admission-note corpus uses
// often enough to be worth a dedicated recipe; the pack's own
// GradingScales map supplies the rest via genericScaleRecipe.
var namedScalePattern = regexp.MustCompile(`(?i)\b(hunt[- ]hess|fisher|gcs|glasgow coma scale|kps|karnofsky|who[- ]grade|asia|nurick|mrs)\b[^0-9]{0,15}(\d+(?:\.\d+)?)`)

var procedureVerbPattern = regexp.MustCompile(`(?i)\b(underwent|performed|completed)\b\s+(?:an?\s+)?([a-z][a-z0-9 \-/]{3,60}?)(?:\.|,|;|\n|$)`)

var complicationPattern = regexp.MustCompile(`(?i)\b(?:complicated by|developed|complication of)\b\s+([a-z][a-z0-9 \-/]{3,60}?)(?:\.|,|;|\n|$)`)

// doseUnitPattern matches "<name> <dose><unit> <route> <frequency>",
// e.g. "dexamethasone 4mg IV q6h" or "levetiracetam 500 mg PO BID".
var doseUnitPattern = regexp.MustCompile(`(?i)\b([a-z][a-z\-]{2,30})\s+(\d+(?:\.\d+)?)\s?(mg|mcg|g|units?|meq)\b(?:\s+(iv|po|im|sc|pr))?(?:\s+(qd|bid|tid|qid|q\d+h|prn|daily|once|twice))?`)

var imagingPattern = regexp.MustCompile(`(?i)\b(ct|mri|cta|mra|x-?ray)\b(?:\s+(?:head|brain|spine|c-spine|chest))?\s+(?:showed|shows|demonstrated|demonstrates|revealed|reveals)\s+([a-z][a-z0-9 \-/]{3,80}?)(?:\.|,|;|\n|$)`)

var neuroExamCuePattern = regexp.MustCompile(`(?i)\b(pupils?[^.,;\n]{0,40}|gcs\s*\d+[^.,;\n]{0,20}|moves all (?:four )?extremities[^.,;\n]{0,20}|strength [^.,;\n]{0,40})(?:\.|,|;|\n|$)`)

var consultationPattern = regexp.MustCompile(`(?i)\b(pt/ot|physical therapy|occupational therapy|infectious disease|psychiatry|neurology|cardiology|urology)\s+(?:consult(?:ed|ation)?|service)\b[^.\n]{0,120}`)

var followUpPattern = regexp.MustCompile(`(?i)\bfollow[- ]up\s+(?:with|in)\s+([a-z /]{2,40})\s+in\s+(\d+\s*(?:day|week|month)s?)`)

var agePattern = regexp.MustCompile(`(?i)\b(\d{1,3})[- ]year[- ]old\s+(male|female|man|woman)\b`)
var mrnPattern = regexp.MustCompile(`(?i)\bMRN[:\s#]*([0-9]{4,12})\b`)

var dispositionPattern = regexp.MustCompile(`(?i)\bdischarged?\s+(?:to\s+)?(home|to a skilled nursing facility|to acute rehab(?:ilitation)?|to a rehabilitation facility|to long-term acute care|to hospice|skilled nursing facility|acute rehab(?:ilitation)?|rehabilitation facility|long-term acute care|hospice)\b`)
var expiredPattern = regexp.MustCompile(`(?i)\b(patient expired|expired on|deceased)\b`)

func canonicalDisposition(surface string) string {
	s := strings.ToLower(strings.TrimSpace(surface))
	s = strings.TrimPrefix(s, "to a ")
	s = strings.TrimPrefix(s, "to ")
	switch {
	case s == "home":
		return "home"
	case strings.Contains(s, "skilled nursing"):
		return "skilled nursing facility"
	case strings.Contains(s, "rehab"):
		return "acute rehab"
	case strings.Contains(s, "long-term acute care"):
		return "long-term acute care"
	case strings.Contains(s, "hospice"):
		return "hospice"
	default:
		return s
	}
}

var admissionDatePattern = regexp.MustCompile(`(?i)\b(?:date of admission|admission date|admitted on)\s*:?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)
var surgeryDatePattern = regexp.MustCompile(`(?i)\b(?:date of surgery|surgery date|operative date)\s*:?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)
var dischargeDatePattern = regexp.MustCompile(`(?i)\b(?:date of discharge|discharge date|discharged on)\s*:?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)

func parseISODate(s string) (note.Date, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != 3 {
			return note.Date{}, false
		}
		y, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		d, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return note.Date{}, false
		}
		return note.Date{Year: y, Month: m, Day: d}, true
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return note.Date{}, false
	}
	m, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return note.Date{}, false
	}
	return note.Date{Year: y, Month: m, Day: d}, true
}

// BuildRecipes assembles the full, priority-ordered recipe table for a
// category, parameterized by the pathology pack so grading-scale ranges
// and procedure/complication canonical spellings come from the pack
// rather than being hardcoded (§4.4, §6).
func BuildRecipes(pack *knowledge.Pack) map[note.Kind][]*Recipe {
	out := map[note.Kind][]*Recipe{
		note.KindDemographic: {
			{
				Name: "age_sex_explicit", Kind: note.KindDemographic, Regex: agePattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					age, err := strconv.Atoi(g[1])
					if err != nil {
						return nil, false
					}
					sex := "M"
					if strings.HasPrefix(strings.ToLower(g[2]), "f") {
						sex = "F"
					}
					return note.Demographic{Age: &age, Sex: sex}, true
				},
			},
			{
				Name: "mrn_explicit", Kind: note.KindDemographic, Regex: mrnPattern,
				Tier: TierExactExplicit, Priority: 90,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.Demographic{MRN: g[1]}, true
				},
			},
		},
		note.KindDate: {
			{
				Name: "admission_date_explicit", Kind: note.KindDate, Regex: admissionDatePattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					d, ok := parseISODate(g[1])
					if !ok {
						return nil, false
					}
					return note.DateFact{Which: note.DateAdmission, Value: d}, true
				},
			},
			{
				Name: "surgery_date_explicit", Kind: note.KindDate, Regex: surgeryDatePattern,
				Tier: TierExactExplicit, Priority: 99,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					d, ok := parseISODate(g[1])
					if !ok {
						return nil, false
					}
					return note.DateFact{Which: note.DateSurgery, Value: d}, true
				},
			},
			{
				Name: "discharge_date_explicit", Kind: note.KindDate, Regex: dischargeDatePattern,
				Tier: TierExactExplicit, Priority: 98,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					d, ok := parseISODate(g[1])
					if !ok {
						return nil, false
					}
					return note.DateFact{Which: note.DateDischarge, Value: d}, true
				},
			},
		},
		note.KindFunctionalScore: {
			{
				Name: "named_grading_scale", Kind: note.KindFunctionalScore, Regex: namedScalePattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, text string) (any, bool) {
					val, err := strconv.ParseFloat(g[2], 64)
					if err != nil {
						return nil, false
					}
					scale := canonicalScaleName(g[1])
					minV, maxV, ok := pack.Range(scale)
					if ok && (val < minV || val > maxV) {
						return nil, false
					}
					if !ok {
						maxV = val
					}
					return note.FunctionalScore{ScaleName: scale, Value: val, MaxValue: maxV, FromPTOT: mentionsPTOT(text)}, true
				},
			},
		},
		note.KindProcedure: {
			{
				Name: "procedure_verb", Kind: note.KindProcedure, Regex: procedureVerbPattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					name := strings.TrimSpace(g[2])
					if name == "" {
						return nil, false
					}
					return note.Procedure{Name: name, NormalizedName: pack.CanonicalProcedure(name)}, true
				},
			},
		},
		note.KindComplication: {
			{
				Name: "complication_verb", Kind: note.KindComplication, Regex: complicationPattern,
				Tier: TierContextualInfer, Priority: 80,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					name := strings.TrimSpace(g[1])
					if name == "" {
						return nil, false
					}
					return note.Complication{Name: name, NormalizedName: pack.CanonicalComplication(name)}, true
				},
			},
		},
		note.KindMedication: {
			{
				Name: "dose_route_frequency", Kind: note.KindMedication, Regex: doseUnitPattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.Medication{
						Name:           g[1],
						NormalizedName: strings.ToLower(g[1]),
						Dose:           g[2] + g[3],
						Route:          strings.ToUpper(g[4]),
						Frequency:      strings.ToUpper(g[5]),
					}, true
				},
			},
		},
		note.KindImagingFinding: {
			{
				Name: "modality_finding", Kind: note.KindImagingFinding, Regex: imagingPattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.ImagingFinding{Modality: strings.ToUpper(g[1]), Finding: strings.TrimSpace(g[2])}, true
				},
			},
		},
		note.KindNeuroExam: {
			{
				Name: "exam_cue", Kind: note.KindNeuroExam, Regex: neuroExamCuePattern,
				Tier: TierContextualInfer, Priority: 80,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					finding := strings.TrimSpace(g[1])
					if finding == "" {
						return nil, false
					}
					return note.NeuroExam{Finding: finding}, true
				},
			},
		},
		note.KindConsultation: {
			{
				Name: "consult_service", Kind: note.KindConsultation, Regex: consultationPattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.Consultation{Service: canonicalService(g[1])}, true
				},
			},
		},
		note.KindFollowUp: {
			{
				Name: "follow_up_interval", Kind: note.KindFollowUp, Regex: followUpPattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.FollowUp{Service: strings.TrimSpace(g[1]), Interval: strings.TrimSpace(g[2])}, true
				},
			},
		},
		note.KindDischargeDisposition: {
			{
				Name: "disposition_explicit", Kind: note.KindDischargeDisposition, Regex: dispositionPattern,
				Tier: TierExactExplicit, Priority: 100,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.DischargeDisposition{Value: canonicalDisposition(g[1])}, true
				},
			},
			{
				Name: "disposition_expired", Kind: note.KindDischargeDisposition, Regex: expiredPattern,
				Tier: TierExactExplicit, Priority: 90,
				Builder: func(g []string, _ int, _ string) (any, bool) {
					return note.DischargeDisposition{Value: "expired"}, true
				},
			},
		},
	}
	return out
}

// mentionsPTOT reports whether the note text documenting a functional
// score is itself a PT/OT note, so the Hybrid Merger can apply the PT/OT
// gold-standard override rule (§4.2, §4.6 step 7).
func mentionsPTOT(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "physical therapy") || strings.Contains(lower, "occupational therapy") || strings.Contains(lower, "pt/ot") || strings.Contains(lower, "pt evaluation") || strings.Contains(lower, "ot evaluation")
}

func canonicalScaleName(surface string) string {
	s := strings.ToLower(strings.TrimSpace(surface))
	switch s {
	case "hunt-hess", "hunt hess":
		return "hunt-hess"
	case "gcs", "glasgow coma scale":
		return "gcs"
	case "kps", "karnofsky":
		return "kps"
	case "who-grade", "who grade":
		return "who-grade"
	case "mrs":
		return "mrs"
	default:
		return s
	}
}

func canonicalService(surface string) string {
	s := strings.ToLower(strings.TrimSpace(surface))
	switch {
	case strings.Contains(s, "pt/ot"), strings.Contains(s, "physical"), strings.Contains(s, "occupational"):
		return "PT/OT"
	case strings.Contains(s, "infectious"):
		return "ID"
	case strings.Contains(s, "psychiatry"):
		return "Psychiatry"
	case strings.Contains(s, "neurology"):
		return "Neurology"
	case strings.Contains(s, "cardiology"):
		return "Cardiology"
	case strings.Contains(s, "urology"):
		return "Urology"
	default:
		return surface
	}
}
