// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package preprocess implements the Preprocessor (§4.1): normalizes
// format, canonicalizes section headers, normalizes dates to ISO where
// unambiguous, expands abbreviations on first use, marks section
// boundaries, classifies note type, and emits SourceQuality.
//
// Classification and header canonicalization use priority-ordered,
// compiled regex tables built once at package init, the same shape as
// the teacher's doctor.DefaultPatterns table (internal/superbrain/doctor/patterns.go).
package preprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/pipelineerr"
)

// Result is the normalized corpus plus metadata the Preprocessor emits.
type Result struct {
	Notes         []note.Note // normalized text, DeclaredType always set
	SourceQuality note.SourceQuality
	Abbreviations map[string]string // first-seen expansions, for narrative reuse
}

// classifyRule is one entry in the note-type priority table, grounded
// on doctor.FailurePattern's {Regex, Priority} shape.
type classifyRule struct {
	typ      note.Type
	regex    *regexp.Regexp
	priority int
}

var classifyRules = []classifyRule{
	{note.TypeDischarge, regexp.MustCompile(`(?i)^\s*discharge summary|discharge instructions|discharge disposition`), 100},
	{note.TypeOperative, regexp.MustCompile(`(?i)^\s*operative (report|note)|procedure note|post[- ]?operative note`), 90},
	{note.TypeConsult, regexp.MustCompile(`(?i)^\s*consult(ation)? note|(pt|ot|physical therapy|occupational therapy|psychiatry|infectious disease)\s*(consult|note)`), 80},
	{note.TypeAdmission, regexp.MustCompile(`(?i)^\s*admission (note|history and physical)|h&p|history of present illness`), 70},
	{note.TypeProgress, regexp.MustCompile(`(?i)^\s*progress note|daily note|interval note`), 60},
}

// headerCanon maps alternate section header spellings to one canonical
// form; multiple styles collapse to a single form (§4.1).
var headerCanon = map[*regexp.Regexp]string{
	regexp.MustCompile(`(?i)^\s*(hpi|history of present illness)\s*:?`):          "History of Present Illness:",
	regexp.MustCompile(`(?i)^\s*(pmh|past medical history)\s*:?`):                "Past Medical History:",
	regexp.MustCompile(`(?i)^\s*(procedure|operation performed|surgery)\s*:?`):    "Procedure:",
	regexp.MustCompile(`(?i)^\s*(a&p|assessment and plan|assessment/plan)\s*:?`):  "Assessment and Plan:",
	regexp.MustCompile(`(?i)^\s*(dc meds|discharge medications)\s*:?`):           "Discharge Medications:",
	regexp.MustCompile(`(?i)^\s*(f/u|follow-?up)\s*:?`):                          "Follow-up:",
}

// abbreviationDict maps common neurosurgical abbreviations to their
// expansion, used for context-sensitive first-use expansion (§4.1).
var abbreviationDict = map[string]string{
	"sah":  "subarachnoid hemorrhage",
	"csdh": "chronic subdural hematoma",
	"tbi":  "traumatic brain injury",
	"evd":  "external ventricular drain",
	"vps":  "ventriculoperitoneal shunt",
	"icp":  "intracranial pressure",
	"gcs":  "Glasgow Coma Scale",
	"etv":  "endoscopic third ventriculostomy",
	"pod":  "post-operative day",
	"hd":   "hospital day",
}

var dateFormats = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),  // MM/DD/YYYY
	regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),  // already ISO
}

// Preprocess normalizes one or more raw notes and emits SourceQuality.
// Fails with ErrPreprocessing only on empty input (§4.1).
func Preprocess(notes []note.Note) (Result, error) {
	if len(notes) == 0 {
		return Result{}, fmt.Errorf("%w: no notes provided", pipelineerr.ErrEmptyInput)
	}
	allEmpty := true
	for _, n := range notes {
		if strings.TrimSpace(n.Text) != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return Result{}, fmt.Errorf("%w: all notes are blank", pipelineerr.ErrEmptyInput)
	}

	seenAbbrev := make(map[string]bool) // per-call scope only (§5 shared-resource policy)
	expansions := make(map[string]string)

	out := make([]note.Note, len(notes))
	for i, n := range notes {
		text := normalizeLineEndings(n.Text)
		text = canonicalizeHeaders(text)
		text = normalizeDates(text)
		text = expandAbbreviations(text, seenAbbrev, expansions)

		typ := n.DeclaredType
		if typ == "" {
			typ = classify(text)
		}

		out[i] = note.Note{
			Index:        i,
			Text:         text,
			DeclaredType: typ,
			Timestamp:    n.Timestamp,
		}
	}

	sq := assessQuality(out)

	return Result{Notes: out, SourceQuality: sq, Abbreviations: expansions}, nil
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

func canonicalizeHeaders(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for re, canon := range headerCanon {
			if re.MatchString(line) {
				rest := re.ReplaceAllString(line, "")
				lines[i] = canon + rest
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func normalizeDates(text string) string {
	// MM/DD/YYYY -> YYYY-MM-DD, applied only where unambiguous (4-digit year present).
	re := dateFormats[0]
	return re.ReplaceAllStringFunc(text, func(m string) string {
		sub := re.FindStringSubmatch(m)
		if len(sub) != 4 {
			return m
		}
		mm, dd, yyyy := sub[1], sub[2], sub[3]
		if len(mm) == 1 {
			mm = "0" + mm
		}
		if len(dd) == 1 {
			dd = "0" + dd
		}
		return fmt.Sprintf("%s-%s-%s", yyyy, mm, dd)
	})
}

// expandAbbreviations keeps the first occurrence of a domain term with
// its expansion (e.g. "SAH (subarachnoid hemorrhage)") and collapses
// subsequent occurrences to the bare abbreviation (§4.1).
func expandAbbreviations(text string, seen map[string]bool, expansions map[string]string) string {
	for abbr, expansion := range abbreviationDict {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(abbr) + `\b`)
		if !re.MatchString(text) {
			continue
		}
		if seen[abbr] {
			continue
		}
		// Expand only the first match in the whole call-scoped corpus.
		replaced := false
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			if replaced {
				return m
			}
			replaced = true
			return fmt.Sprintf("%s (%s)", m, expansion)
		})
		if replaced {
			seen[abbr] = true
			expansions[strings.ToUpper(abbr)] = expansion
		}
	}
	return text
}

func classify(text string) note.Type {
	head := text
	if len(head) > 400 {
		head = head[:400]
	}
	best := note.TypeUnknown
	bestPriority := -1
	for _, r := range classifyRules {
		if r.regex.MatchString(head) || r.regex.MatchString(text) {
			if r.priority > bestPriority {
				best = r.typ
				bestPriority = r.priority
			}
		}
	}
	if best == note.TypeUnknown {
		return note.TypeProgress
	}
	return best
}

// assessQuality scores documentation quality across structure,
// completeness, formality, detail, and consistency (§3 SourceQuality).
func assessQuality(notes []note.Note) note.SourceQuality {
	issues := make(map[note.QualityIssue]bool)
	score := 100.0

	var totalLen int
	headerHits := 0
	for _, n := range notes {
		totalLen += len(n.Text)
		for re := range headerCanon {
			if re.MatchString(n.Text) {
				headerHits++
			}
		}
	}
	avgLen := 0
	if len(notes) > 0 {
		avgLen = totalLen / len(notes)
	}

	if headerHits == 0 {
		issues[note.IssueStructure] = true
		score -= 20
	}
	if avgLen < 200 {
		issues[note.IssueDetail] = true
		score -= 15
	}
	if avgLen < 80 {
		issues[note.IssueCompleteness] = true
		score -= 15
	}
	lower := strings.ToLower(strings.Join(noteTexts(notes), " "))
	if strings.Count(lower, "pt ") > 3 && !strings.Contains(lower, "patient") {
		issues[note.IssueFormality] = true
		score -= 10
	}
	if len(notes) > 1 {
		allSameType := true
		firstType := notes[0].ClassifiedType()
		for _, n := range notes[1:] {
			if n.ClassifiedType() != firstType {
				allSameType = false
				break
			}
		}
		if allSameType {
			// Multiple notes collapsing to one classified type across an
			// entire hospitalization usually means the classifier found
			// no distinguishing section headers anywhere in the corpus.
			issues[note.IssueConsistency] = true
			score -= 10
		}
	}

	if score < 0 {
		score = 0
	}

	return note.SourceQuality{
		OverallScore: score,
		Grade:        note.GradeFromScore(score),
		Issues:       issues,
	}
}

func noteTexts(notes []note.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Text
	}
	return out
}
