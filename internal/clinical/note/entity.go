// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package note

import (
	"fmt"
	"strings"
)

// Kind discriminates the Entity.Value payload variant.
type Kind string

const (
	KindDemographic     Kind = "demographic"
	KindDate            Kind = "date"
	KindProcedure       Kind = "procedure"
	KindComplication    Kind = "complication"
	KindMedication      Kind = "medication"
	KindImagingFinding  Kind = "imaging_finding"
	KindFunctionalScore Kind = "functional_score"
	KindNeuroExam       Kind = "neuro_exam"
	KindConsultation    Kind = "consultation"
	KindDiagnosis       Kind = "diagnosis"
	KindFollowUp        Kind = "follow_up"
	KindDischargeDisposition Kind = "discharge_disposition"
)

// Method records how an entity was produced (§3).
type Method string

const (
	MethodPattern             Method = "pattern"
	MethodLLM                 Method = "llm"
	MethodMerged              Method = "merged"
	MethodInferredFromPack    Method = "inferred-from-knowledge"
)

// ReferenceKind discriminates TemporalContext.Kind (§3, §4.7a).
type ReferenceKind string

const (
	KindNewEvent  ReferenceKind = "new_event"
	KindReference ReferenceKind = "reference"
)

// SourceSpan anchors an entity to verifiable source text (Invariant E1).
type SourceSpan struct {
	NoteIndex   int
	Start       int
	End         int
	MatchedText string
}

// TemporalContext carries the Temporal Engine's classification of an
// entity mention (§3, §4.7).
type TemporalContext struct {
	Kind             ReferenceKind
	Confidence       float64
	Indicator        string // name of the rule that produced this classification
	ResolvedDate     *Date  // nil until/unless resolved
	PODOffset        *int
	TemporalQualifier string
	ResolutionFailed bool
	PreAdmission     bool
}

// Entity is a discriminated record over the variant Value types below.
// Every entity must satisfy Invariant E1: SourceSpans non-empty, and
// each span verifiable against its note (checked by validate.Validator,
// not by this type itself — this type only carries the data).
type Entity struct {
	Kind            Kind
	Value           any // one of the Variant types in variants.go
	Confidence      float64
	SourceSpans     []SourceSpan
	Method          Method
	Temporal        TemporalContext
	MergeCount      int
}

// Validate enforces the structural half of Invariant E1: every entity
// must carry at least one source span. Verifying that the matched text
// is actually a substring of the corresponding note is the Validator's
// job (it needs the note corpus, which this package does not hold).
func (e Entity) Validate() error {
	if len(e.SourceSpans) == 0 {
		return fmt.Errorf("entity %s: no source spans (invariant E1)", e.Kind)
	}
	for i, s := range e.SourceSpans {
		if strings.TrimSpace(s.MatchedText) == "" {
			return fmt.Errorf("entity %s: source span %d has empty matched text", e.Kind, i)
		}
	}
	if e.MergeCount < 1 {
		e.MergeCount = 1
	}
	return nil
}

// EntityBuilder provides a fluent constructor for candidates, grounded
// on the teacher's doctor.DiagnosisBuilder: a builder that refuses to
// yield a usable value until the mandatory fields (here: source spans)
// are set.
type EntityBuilder struct {
	e Entity
}

// NewEntity starts building an entity of the given kind and value.
func NewEntity(kind Kind, value any) *EntityBuilder {
	return &EntityBuilder{e: Entity{Kind: kind, Value: value, MergeCount: 1, Method: MethodPattern}}
}

func (b *EntityBuilder) WithConfidence(c float64) *EntityBuilder {
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	b.e.Confidence = c
	return b
}

func (b *EntityBuilder) WithMethod(m Method) *EntityBuilder {
	b.e.Method = m
	return b
}

func (b *EntityBuilder) WithSpan(span SourceSpan) *EntityBuilder {
	b.e.SourceSpans = append(b.e.SourceSpans, span)
	return b
}

func (b *EntityBuilder) WithTemporal(t TemporalContext) *EntityBuilder {
	b.e.Temporal = t
	return b
}

// Build returns the constructed entity and an error if it fails
// Invariant E1 (no spans were ever attached).
func (b *EntityBuilder) Build() (Entity, error) {
	if err := b.e.Validate(); err != nil {
		return Entity{}, err
	}
	return b.e, nil
}
