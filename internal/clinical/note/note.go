// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package note defines the core data model shared by every pipeline
// stage: input notes, extracted entities, and the structured payload
// they accumulate into. Types here are immutable value records passed
// by value between stages per the no-shared-mutable-state design (§9).
package note

import "time"

// Type classifies an input note by its clinical role.
type Type string

const (
	TypeAdmission Type = "admission"
	TypeProgress  Type = "progress"
	TypeOperative Type = "operative"
	TypeConsult   Type = "consult"
	TypeDischarge Type = "discharge"
	TypeUnknown   Type = "unknown"
)

// Note is one immutable input document.
type Note struct {
	// Index is this note's position in the submitted corpus; source
	// spans reference notes by this index, never by pointer.
	Index int
	// Text is the raw (or, after preprocessing, normalized) note body.
	Text string
	// DeclaredType is the caller-supplied note type, if any; empty
	// means the preprocessor must classify it.
	DeclaredType Type
	// Timestamp is the caller-supplied note timestamp, if any.
	Timestamp *time.Time
}

// ClassifiedType returns DeclaredType if set, else TypeUnknown. The
// preprocessor is the only stage that assigns a real classification
// when DeclaredType is empty; see preprocess.Result.NoteTypes.
func (n Note) ClassifiedType() Type {
	if n.DeclaredType == "" {
		return TypeUnknown
	}
	return n.DeclaredType
}

// Grade is a coarse letter-style grade for SourceQuality.
type Grade string

const (
	GradeExcellent Grade = "EXCELLENT"
	GradeGood      Grade = "GOOD"
	GradeFair      Grade = "FAIR"
	GradePoor      Grade = "POOR"
	GradeVeryPoor  Grade = "VERY_POOR"
)

// QualityIssue names a category of documentation weakness detected in
// the source notes.
type QualityIssue string

const (
	IssueStructure    QualityIssue = "structure"
	IssueCompleteness QualityIssue = "completeness"
	IssueFormality    QualityIssue = "formality"
	IssueDetail       QualityIssue = "detail"
	IssueConsistency  QualityIssue = "consistency"
)

// SourceQuality is computed once per extraction and feeds confidence
// calibration in the Hybrid Merger (§4.6 step 6).
type SourceQuality struct {
	OverallScore float64 // 0-100
	Grade        Grade
	Issues       map[QualityIssue]bool
}

// GradeFromScore maps a 0-100 score to a Grade using fixed bands.
func GradeFromScore(score float64) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 75:
		return GradeGood
	case score >= 55:
		return GradeFair
	case score >= 35:
		return GradePoor
	default:
		return GradeVeryPoor
	}
}

// CalibrationFactor maps OverallScore to the [0.5, 1.0] multiplier the
// Hybrid Merger applies to entity confidence (§4.6 step 6).
func (q SourceQuality) CalibrationFactor() float64 {
	f := 0.5 + (q.OverallScore/100.0)*0.5
	if f < 0.5 {
		return 0.5
	}
	if f > 1.0 {
		return 1.0
	}
	return f
}
