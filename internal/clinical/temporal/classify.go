// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package temporal implements the Temporal Engine (§4.7): reference
// classification, date resolution, and timeline ordering/causality for
// procedure, complication, and medication entities.
//
// The reference-vs-new-event priority ladder is modeled the same way
// as the teacher's doctor.DefaultPatterns priority-ordered regex table
// (internal/superbrain/doctor/patterns.go): a flat, sorted slice of
// named rules walked in priority order, rather than nested
// conditionals, so the §9 instrumentation ask ("record which rule
// fired, for later corpus-statistics review") is satisfied by
// construction — every rule's Name lands in TemporalContext.Indicator.
package temporal

import (
	"regexp"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// classifyRule is one entry in the reference-vs-new-event priority
// ladder (§4.7a, resolved per the §9 open question).
type classifyRule struct {
	Name       string
	Regex      *regexp.Regexp
	Kind       note.ReferenceKind
	Confidence float64
	Priority   int
}

// classifyRules is ordered highest-priority first: section header beats
// active verb/explicit date beats reference marker beats the ambiguous
// default.
var classifyRules = []classifyRule{
	{
		Name:       "section_header",
		Regex:      regexp.MustCompile(`(?i)^\s*(procedure|operation|operative note)\s*:`),
		Kind:       note.KindNewEvent,
		Confidence: 0.95,
		Priority:   100,
	},
	{
		Name:       "active_verb",
		Regex:      regexp.MustCompile(`(?i)\b(underwent|performed|completed|done|finished)\b`),
		Kind:       note.KindNewEvent,
		Confidence: 0.90,
		Priority:   90,
	},
	{
		Name:       "present_temporal_marker",
		Regex:      regexp.MustCompile(`(?i)\b(today|this morning|this afternoon|this evening|just now)\b`),
		Kind:       note.KindNewEvent,
		Confidence: 0.90,
		Priority:   89,
	},
	{
		Name:       "explicit_date_present",
		Regex:      regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`),
		Kind:       note.KindNewEvent,
		Confidence: 0.90,
		Priority:   88,
	},
	{
		Name:       "explicit_reference_marker",
		Regex:      regexp.MustCompile(`(?i)\b(s/p|status[- ]post|pod\s*#?\d+)\b`),
		Kind:       note.KindReference,
		Confidence: 0.95,
		Priority:   80,
	},
	{
		Name:       "post_operative_marker",
		Regex:      regexp.MustCompile(`(?i)\bpost-?operative(?:ly)?\b`),
		Kind:       note.KindReference,
		Confidence: 0.88,
		Priority:   79,
	},
	{
		Name:       "vague_reference_marker",
		Regex:      regexp.MustCompile(`(?i)\b(following|prior to|history of|h/o)\b`),
		Kind:       note.KindReference,
		Confidence: 0.80,
		Priority:   78,
	},
}

func init() {
	sortClassifyRulesByPriority(classifyRules)
}

func sortClassifyRulesByPriority(rules []classifyRule) {
	for i := 1; i < len(rules); i++ {
		key := rules[i]
		j := i - 1
		for j >= 0 && rules[j].Priority < key.Priority {
			rules[j+1] = rules[j]
			j--
		}
		rules[j+1] = key
	}
}

// contextWindowChars bounds how far around a source span the classifier
// looks for cue words, matching the span to its sentence/line rather
// than the whole note.
const contextWindowChars = 120

// classifyReference walks the priority ladder against the text
// surrounding an entity's primary source span and returns the winning
// rule's classification, or the ambiguous default if none match (§4.7a).
func classifyReference(entityText string, span note.SourceSpan, noteText string) note.TemporalContext {
	window := surroundingWindow(noteText, span.Start, span.End)
	lineStart := lineContaining(noteText, span.Start)

	for _, rule := range classifyRules {
		subject := window
		if rule.Name == "section_header" {
			subject = lineStart
		}
		if rule.Regex.MatchString(subject) {
			return note.TemporalContext{Kind: rule.Kind, Confidence: rule.Confidence, Indicator: rule.Name}
		}
	}

	return note.TemporalContext{Kind: note.KindNewEvent, Confidence: 0.50, Indicator: "ambiguous_default"}
}

func surroundingWindow(text string, start, end int) string {
	from := start - contextWindowChars
	if from < 0 {
		from = 0
	}
	to := end + contextWindowChars
	if to > len(text) {
		to = len(text)
	}
	return text[from:to]
}

func lineContaining(text string, pos int) string {
	if pos < 0 || pos > len(text) {
		return ""
	}
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := strings.IndexByte(text[pos:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : pos+end]
}
