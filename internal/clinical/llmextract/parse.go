// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmextract

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// confidenceDemoteCeiling is the confidence cap applied to a value that
// could not be verified against the source text but is kept anyway
// (§4.5: "dropped or demoted to confidence <=0.3").
const confidenceDemoteCeiling = 0.3

// minKeptConfidence is the floor below which an unverifiable value is
// dropped outright rather than demoted.
const minKeptConfidence = 0.1

// parseResponse extracts every populated field from one pass's JSON
// response, verifies each against the note corpus, and returns the
// resulting entities (method=llm). gjson is used instead of
// encoding/json so prose wrapped around the JSON object (a model
// preamble, a trailing remark) does not break parsing — gjson.Parse
// only needs the object's byte range, not a clean document.
func parseResponse(text string, notes []note.Note) []note.Entity {
	root := extractJSONObject(text)
	if !root.Exists() {
		return nil
	}
	var out []note.Entity

	if d := parseDemographic(root.Get("demographics"), notes); d != nil {
		out = append(out, *d)
	}
	out = append(out, parseDates(root.Get("dates"), notes)...)
	out = append(out, parseSimpleArray(root.Get("procedures"), notes, note.KindProcedure, func(r gjson.Result) any {
		name := r.Get("name").String()
		if name == "" {
			return nil
		}
		return note.Procedure{Name: name, NormalizedName: strings.ToLower(strings.TrimSpace(name))}
	})...)
	out = append(out, parseSimpleArray(root.Get("complications"), notes, note.KindComplication, func(r gjson.Result) any {
		name := r.Get("name").String()
		if name == "" {
			return nil
		}
		return note.Complication{Name: name, NormalizedName: strings.ToLower(strings.TrimSpace(name))}
	})...)
	out = append(out, parseSimpleArray(root.Get("medications"), notes, note.KindMedication, func(r gjson.Result) any {
		name := r.Get("name").String()
		if name == "" {
			return nil
		}
		return note.Medication{
			Name:           name,
			NormalizedName: strings.ToLower(strings.TrimSpace(name)),
			Dose:           r.Get("dose").String(),
			Route:          strings.ToUpper(r.Get("route").String()),
			Frequency:      strings.ToUpper(r.Get("frequency").String()),
		}
	})...)
	out = append(out, parseSimpleArray(root.Get("imaging_findings"), notes, note.KindImagingFinding, func(r gjson.Result) any {
		finding := r.Get("finding").String()
		if finding == "" {
			return nil
		}
		return note.ImagingFinding{Modality: strings.ToUpper(r.Get("modality").String()), Finding: finding}
	})...)
	out = append(out, parseSimpleArray(root.Get("functional_scores"), notes, note.KindFunctionalScore, func(r gjson.Result) any {
		scale := r.Get("scale").String()
		if scale == "" || !r.Get("value").Exists() {
			return nil
		}
		return note.FunctionalScore{ScaleName: strings.ToLower(scale), Value: r.Get("value").Float()}
	})...)
	out = append(out, parseSimpleArray(root.Get("neuro_exams"), notes, note.KindNeuroExam, func(r gjson.Result) any {
		finding := r.Get("finding").String()
		if finding == "" {
			return nil
		}
		return note.NeuroExam{Finding: finding}
	})...)
	out = append(out, parseSimpleArray(root.Get("consultations"), notes, note.KindConsultation, func(r gjson.Result) any {
		service := r.Get("service").String()
		if service == "" {
			return nil
		}
		return note.Consultation{Service: service}
	})...)
	out = append(out, parseSimpleArray(root.Get("diagnoses"), notes, note.KindDiagnosis, func(r gjson.Result) any {
		name := r.Get("name").String()
		if name == "" {
			return nil
		}
		return note.Diagnosis{Name: name, Primary: r.Get("primary").Bool()}
	})...)
	out = append(out, parseSimpleArray(root.Get("follow_up"), notes, note.KindFollowUp, func(r gjson.Result) any {
		service := r.Get("service").String()
		if service == "" {
			return nil
		}
		return note.FollowUp{Service: service, Interval: r.Get("interval").String()}
	})...)
	if d := parseDisposition(root.Get("discharge_disposition"), notes); d != nil {
		out = append(out, *d)
	}

	tagFromPTOT(out, notes)
	return out
}

// tagFromPTOT sets FunctionalScore.FromPTOT for any functional-score
// entity whose verified source span lands in a PT/OT note, so the
// Hybrid Merger's gold-standard override (§4.6 step 7) applies
// regardless of which extractor produced the score.
func tagFromPTOT(entities []note.Entity, notes []note.Note) {
	for i, e := range entities {
		if e.Kind != note.KindFunctionalScore || len(e.SourceSpans) == 0 {
			continue
		}
		ni := e.SourceSpans[0].NoteIndex
		if ni < 0 || ni >= len(notes) {
			continue
		}
		if !mentionsPTOT(notes[ni].Text) {
			continue
		}
		score := e.Value.(note.FunctionalScore)
		score.FromPTOT = true
		entities[i].Value = score
	}
}

func mentionsPTOT(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "physical therapy") || strings.Contains(lower, "occupational therapy") || strings.Contains(lower, "pt/ot") || strings.Contains(lower, "pt evaluation") || strings.Contains(lower, "ot evaluation")
}

// extractJSONObject finds the outermost {...} in text and parses it
// with gjson, tolerating conversational wrapping around the payload.
func extractJSONObject(text string) gjson.Result {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return gjson.Result{}
	}
	return gjson.Parse(text[start : end+1])
}

func parseDemographic(r gjson.Result, notes []note.Note) *note.Entity {
	if !r.Exists() {
		return nil
	}
	var age *int
	if r.Get("age").Exists() && r.Get("age").Type != gjson.Null {
		a := int(r.Get("age").Int())
		age = &a
	}
	sex := strings.ToUpper(r.Get("sex").String())
	mrn := r.Get("mrn").String()
	if age == nil && sex == "" && mrn == "" {
		return nil
	}
	value := note.Demographic{Age: age, Sex: sex, MRN: mrn}
	return buildVerifiedEntity(note.KindDemographic, value, r, notes)
}

func parseDates(r gjson.Result, notes []note.Note) []note.Entity {
	if !r.Exists() {
		return nil
	}
	var out []note.Entity
	which := map[string]note.DateFactKind{
		"admission": note.DateAdmission,
		"surgery":   note.DateSurgery,
		"discharge": note.DateDischarge,
	}
	for key, kind := range which {
		field := r.Get(key)
		if !field.Exists() {
			continue
		}
		dateStr := field.Get("date").String()
		if dateStr == "" {
			continue
		}
		d, ok := parseISODate(dateStr)
		if !ok {
			continue
		}
		e := buildVerifiedEntity(note.KindDate, note.DateFact{Which: kind, Value: d}, field, notes)
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func parseDisposition(r gjson.Result, notes []note.Note) *note.Entity {
	if !r.Exists() {
		return nil
	}
	value := strings.ToLower(strings.TrimSpace(r.Get("value").String()))
	if value == "" {
		return nil
	}
	return buildVerifiedEntity(note.KindDischargeDisposition, note.DischargeDisposition{Value: value}, r, notes)
}

func parseSimpleArray(arr gjson.Result, notes []note.Note, kind note.Kind, build func(gjson.Result) any) []note.Entity {
	if !arr.Exists() || !arr.IsArray() {
		return nil
	}
	var out []note.Entity
	arr.ForEach(func(_, item gjson.Result) bool {
		value := build(item)
		if value == nil {
			return true
		}
		if e := buildVerifiedEntity(kind, value, item, notes); e != nil {
			out = append(out, *e)
		}
		return true
	})
	return out
}

// buildVerifiedEntity verifies a field's evidence snippet against the
// note corpus and applies §4.5's keep/demote/drop rule: verified values
// keep the model's stated confidence; unverifiable values are demoted
// to confidenceDemoteCeiling, or dropped entirely if even that floor
// isn't met.
func buildVerifiedEntity(kind note.Kind, value any, field gjson.Result, notes []note.Note) *note.Entity {
	evidence := field.Get("evidence").String()
	confidence := field.Get("confidence").Float()
	if confidence == 0 {
		confidence = 0.5
	}

	result := verifyEvidence(evidence, notes)
	if !result.verified {
		// No location in the corpus corresponds to the claimed evidence:
		// dropped rather than demoted, since Invariant E1 requires every
		// source span to be real, verifiable text (§4.5).
		return nil
	}
	if !result.exact {
		// Evidence located only by fuzzy match: demote per §4.5 rather
		// than trust the model's self-reported confidence.
		confidence = minFloat(confidence, confidenceDemoteCeiling)
		if confidence < minKeptConfidence {
			return nil
		}
	}

	span := note.SourceSpan{NoteIndex: result.noteIndex, Start: result.start, End: result.end, MatchedText: result.matched}
	e, err := note.NewEntity(kind, value).WithConfidence(confidence).WithMethod(note.MethodLLM).WithSpan(span).Build()
	if err != nil {
		return nil
	}
	return &e
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func parseISODate(s string) (note.Date, bool) {
	s = strings.TrimSpace(s)
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
