// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package llmextract implements the LLM Extractor (§4.5): single-pass
// extraction for simple cases, focused multi-pass extraction for
// complex ones, run over the LLM Gateway and verified against the
// source notes before being handed to the Hybrid Merger.
//
// Prompt shape is grounded on the pack's sells-group-research-cli tiered
// extraction prompts (internal/pipeline/extract.go): a fixed template
// with an explicit "Output JSON schema" block and "use null for fields
// not found" instruction, rather than free-form chat prompting.
// Responses are parsed with tidwall/gjson, tolerant of prose wrapped
// around the JSON payload, matching the teacher's own gjson/sjson usage
// in internal/runtime/executor.
package llmextract

import (
	"fmt"
	"strings"
)

const systemInstruction = `You are a clinical data abstraction assistant extracting structured facts from neurosurgical hospital notes for a discharge summary. Follow these rules exactly:
(a) Output every field named in the schema below, even if the value is null.
(b) For every non-null value, include an "evidence" field: a short verbatim snippet copied from the source notes that supports it.
(c) For every non-null value, include a "confidence" field in [0,1] reflecting how certain you are.
(d) If you are not confident a field is documented, set it to null and explain why in "evidence" rather than guessing.
Return valid JSON matching the schema. Do not include any text outside the JSON object.`

const fullSchema = `{
  "demographics": {"age": <int|null>, "sex": "<M|F|null>", "mrn": "<string|null>", "evidence": "<string>", "confidence": <float>},
  "dates": {
    "admission": {"date": "<YYYY-MM-DD|null>", "evidence": "<string>", "confidence": <float>},
    "surgery": {"date": "<YYYY-MM-DD|null>", "evidence": "<string>", "confidence": <float>},
    "discharge": {"date": "<YYYY-MM-DD|null>", "evidence": "<string>", "confidence": <float>}
  },
  "procedures": [{"name": "<string>", "evidence": "<string>", "confidence": <float>}],
  "complications": [{"name": "<string>", "evidence": "<string>", "confidence": <float>}],
  "medications": [{"name": "<string>", "dose": "<string>", "route": "<string>", "frequency": "<string>", "evidence": "<string>", "confidence": <float>}],
  "imaging_findings": [{"modality": "<string>", "finding": "<string>", "evidence": "<string>", "confidence": <float>}],
  "functional_scores": [{"scale": "<string>", "value": <float>, "evidence": "<string>", "confidence": <float>}],
  "neuro_exams": [{"finding": "<string>", "evidence": "<string>", "confidence": <float>}],
  "consultations": [{"service": "<string>", "evidence": "<string>", "confidence": <float>}],
  "diagnoses": [{"name": "<string>", "primary": <bool>, "evidence": "<string>", "confidence": <float>}],
  "follow_up": [{"service": "<string>", "interval": "<string>", "evidence": "<string>", "confidence": <float>}],
  "discharge_disposition": {"value": "<string|null>", "evidence": "<string>", "confidence": <float>}
}`

// Pass identifies one focused extraction call; all four plus simple
// mode share the same full schema, but each pass is told to populate
// only its own subset and leave the rest null/empty (§4.5).
type Pass string

const (
	PassSimple                   Pass = "simple"
	PassDemographicsDates        Pass = "demographics_dates"
	PassProceduresComplications  Pass = "procedures_complications"
	PassMedications              Pass = "medications"
	PassNeurologicalFunctional   Pass = "neurological_functional"
)

var passFocus = map[Pass]string{
	PassSimple:                  "all fields",
	PassDemographicsDates:       `"demographics" and "dates"`,
	PassProceduresComplications: `"procedures" and "complications"`,
	PassMedications:             `"medications"`,
	PassNeurologicalFunctional:  `"imaging_findings", "functional_scores", "neuro_exams", "consultations", "diagnoses", "follow_up", and "discharge_disposition"`,
}

// BuildPrompt assembles the prompt for one extraction pass. priorContext
// carries a compact summary of earlier passes' results (empty for the
// first pass or for simple mode), satisfying §4.5's "each focused pass
// receives results of earlier passes as context".
func BuildPrompt(pass Pass, pathologyGuidance, corpus, priorContext string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "For this pass, populate only these fields: %s. Leave every other field at its schema default (null or empty array).\n\n", passFocus[pass])
	if pathologyGuidance != "" {
		b.WriteString("Pathology-specific guidance:\n")
		b.WriteString(pathologyGuidance)
		b.WriteString("\n\n")
	}
	if priorContext != "" {
		b.WriteString("Findings already extracted in earlier passes (for context, do not repeat):\n")
		b.WriteString(priorContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Output JSON schema:\n")
	b.WriteString(fullSchema)
	b.WriteString("\n\nSource notes:\n")
	b.WriteString(corpus)
	b.WriteString("\n\nReturn valid JSON matching the schema above.")
	return b.String()
}
