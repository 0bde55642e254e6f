// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package quality implements the Quality Scorer (§3 QualityReport,
// §4.10/§4.11): a six-dimension weighted score computed from the
// Validator's issue lists plus a handful of structural signals the
// Validator does not itself compute (specificity, timeliness).
//
// Grounded on the teacher's cascade.Manager
// (internal/intelligence/cascade/manager.go): a weighted quality score
// compared against a configured threshold to decide whether another
// pass is warranted, generalized from one scalar quality score and a
// tier-cascade decision to six named dimensions and a refinement
// decision the Orchestrator makes.
package quality

import (
	"time"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/validate"
)

// Dimension names one of the six scored components (§8 GLOSSARY).
type Dimension string

const (
	DimensionCompleteness     Dimension = "completeness"
	DimensionAccuracy         Dimension = "accuracy"
	DimensionConsistency      Dimension = "consistency"
	DimensionNarrativeQuality Dimension = "narrativeQuality"
	DimensionSpecificity      Dimension = "specificity"
	DimensionTimeliness       Dimension = "timeliness"
)

// weights implements §3's fixed weighting: completeness 30%, accuracy
// 25%, consistency 20%, narrativeQuality 15%, specificity 5%,
// timeliness 5%.
var weights = map[Dimension]float64{
	DimensionCompleteness:     0.30,
	DimensionAccuracy:         0.25,
	DimensionConsistency:      0.20,
	DimensionNarrativeQuality: 0.15,
	DimensionSpecificity:      0.05,
	DimensionTimeliness:       0.05,
}

// Report is the scored result: each dimension in [0,100], an overall
// weighted score, and the full issue list the dimensions were derived
// from (so a caller can explain a low score, not just observe it).
type Report struct {
	Scores  map[Dimension]float64
	Overall float64
	Issues  []validate.Issue
}

// Scorer computes a Report from a Validator's extracted-data and
// narrative passes plus the structural signals those passes don't
// carry on their own.
type Scorer struct{}

// New returns a Scorer. It is stateless; kept as a type (rather than a
// bare function) to mirror every other pipeline stage's constructor
// shape and leave room for configuration (custom weights) later.
func New() *Scorer { return &Scorer{} }

// Input bundles everything one Score call needs.
type Input struct {
	Data             *note.ExtractedData
	ExtractedIssues  validate.Report
	NarrativeIssues  validate.Report
	Elapsed          time.Duration
	Deadline         time.Duration
}

// Score computes the six-dimension QualityReport (§3).
func (s *Scorer) Score(in Input) Report {
	r := Report{Scores: make(map[Dimension]float64)}
	r.Issues = append(r.Issues, in.ExtractedIssues.Issues...)
	r.Issues = append(r.Issues, in.NarrativeIssues.Issues...)

	r.Scores[DimensionCompleteness] = completenessScore(in.ExtractedIssues)
	r.Scores[DimensionAccuracy] = accuracyScore(in.ExtractedIssues)
	r.Scores[DimensionConsistency] = consistencyScore(in.ExtractedIssues)
	r.Scores[DimensionNarrativeQuality] = narrativeScore(in.NarrativeIssues)
	r.Scores[DimensionSpecificity] = specificityScore(in.Data)
	r.Scores[DimensionTimeliness] = timelinessScore(in.Elapsed, in.Deadline)

	var overall float64
	for dim, w := range weights {
		overall += r.Scores[dim] * w
	}
	r.Overall = overall
	return r
}

func deduct(base float64, issues []validate.Issue, category string, majorPenalty, minorPenalty float64) float64 {
	for _, iss := range issues {
		if iss.Category != category {
			continue
		}
		switch iss.Severity {
		case validate.SeverityCritical:
			base -= majorPenalty * 1.5
		case validate.SeverityMajor:
			base -= majorPenalty
		case validate.SeverityMinor:
			base -= minorPenalty
		}
	}
	return clamp(base)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func completenessScore(issues validate.Report) float64 {
	return deduct(100, issues.Issues, "completeness", 15, 5)
}

func accuracyScore(issues validate.Report) float64 {
	return deduct(100, issues.Issues, "evidence", 20, 5)
}

func consistencyScore(issues validate.Report) float64 {
	base := deduct(100, issues.Issues, "consistency", 15, 5)
	return deduct(base, issues.Issues, "range", 15, 5)
}

func narrativeScore(issues validate.Report) float64 {
	return deduct(100, issues.Issues, "narrative", 20, 5)
}

// specificityScore rewards entities that carry a resolved date or
// POD offset over ones left temporally vague — a proxy for how
// specific (vs merely present) the extracted record is.
func specificityScore(data *note.ExtractedData) float64 {
	if data == nil {
		return 0
	}
	entities := data.AllCategoryEntities()
	if len(entities) == 0 {
		return 0
	}
	specific := 0
	for _, e := range entities {
		if e.Temporal.ResolvedDate != nil || e.Temporal.PODOffset != nil {
			specific++
		}
	}
	return clamp(float64(specific) / float64(len(entities)) * 100)
}

// timelinessScore rewards finishing comfortably inside the pipeline
// deadline and penalizes approaching or exceeding it.
func timelinessScore(elapsed, deadline time.Duration) float64 {
	if deadline <= 0 {
		return 100
	}
	ratio := float64(elapsed) / float64(deadline)
	if ratio <= 0.5 {
		return 100
	}
	return clamp(100 - (ratio-0.5)*200)
}
