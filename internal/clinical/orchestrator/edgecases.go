// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package orchestrator

import (
	"github.com/ramihatou97/DCS-sub001/internal/clinical/clinicalctx"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/telemetry"
)

// shortInputChars and unusualPathologyConfidenceCap implement §4.11's
// edge-case handling, run before step 1 of Run. The long-input
// threshold lives in llmextract (it drives chunking there); classifying
// it here too would duplicate the constant without adding behavior.
const (
	shortInputChars               = 500
	unusualPathologyConfidenceCap = 0.7
)

// classifyInputSize flags very-short and very-long input (§4.11) and
// resolves a multiple-admissions corpus down to its latest admission
// episode: everything before the last admission note is dropped from
// the pipeline, since the spec directs "warn and proceed on the
// latest" rather than merging across distinct hospitalizations.
func classifyInputSize(tel *telemetry.Telemetry, notes []note.Note) []note.Note {
	total := 0
	admissionCount := 0
	lastAdmissionIdx := -1
	for i, n := range notes {
		total += len(n.Text)
		if n.DeclaredType == note.TypeAdmission {
			admissionCount++
			lastAdmissionIdx = i
		}
	}

	if total < shortInputChars {
		tel.Flag("ShortInput")
	}
	if total > longCorpusChars {
		tel.Flag("LongInput")
	}

	if admissionCount > 1 {
		tel.Flag("MultipleAdmissions")
		return notes[lastAdmissionIdx:]
	}
	return notes
}

// longCorpusChars mirrors llmextract's chunking threshold so
// classifyInputSize's "long input" flag lines up with when the LLM
// Extractor actually starts chunking.
const longCorpusChars = 100000

// classifyPathology flags a pathology the Context Builder couldn't
// confidently resolve to a known knowledge pack (§4.11's "unusual
// pathology"): either no pack exists for the primary tag, or no
// pathology was detected at all and Context.Build fell back to
// PathologyGeneral. It reports that the caller should lean harder on
// the LLM Extractor and cap extracted-entity confidence, since pattern
// extraction's pack-driven certainty doesn't apply here.
func classifyPathology(tel *telemetry.Telemetry, cc clinicalctx.Context, pack *knowledge.Pack) (forceLLM bool, confidenceCap float64) {
	if pack != nil && cc.Primary != note.PathologyGeneral {
		return false, 0
	}
	tel.Flag("UnusualPathology")
	return true, unusualPathologyConfidenceCap
}

// capConfidence clamps every entity's confidence to at most cap
// (§4.11's "lower confidence cap" for an unusual pathology). It
// mutates through the pointers AllCategoryEntities returns, which
// alias the same backing arrays as data's category slices.
func capConfidence(data *note.ExtractedData, cap float64) {
	if cap <= 0 {
		return
	}
	for _, e := range data.AllCategoryEntities() {
		if e.Confidence > cap {
			e.Confidence = cap
		}
	}
}
