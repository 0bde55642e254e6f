// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// abbreviationDict mirrors preprocess.abbreviationDict (unexported in
// that package, so reimplemented here rather than imported): the same
// neurosurgical shorthand, expanded once per section instead of once
// per corpus, since §4.9 scopes first-use expansion to the section
// being written, not the whole narrative.
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

var usDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

// ApplyStyle runs §4.9's post-processing pass over one generated
// section: abbreviation expansion on first use within the section, date
// format normalization, and explicit POD annotation where a resolved
// surgery date is known.
func ApplyStyle(text string, surgeryDate *note.Date) string {
	text = expandAbbreviationsOnce(text)
	text = normalizeDateFormat(text)
	if surgeryDate != nil {
		text = annotatePOD(text, *surgeryDate)
	}
	return text
}

// expandAbbreviationsOnce expands each dictionary abbreviation's first
// occurrence within text and leaves subsequent occurrences bare.
func expandAbbreviationsOnce(text string) string {
	for abbr, expansion := range abbreviationDict {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(abbr) + `\b`)
		if !re.MatchString(text) {
			continue
		}
		replaced := false
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			if replaced {
				return m
			}
			replaced = true
			return fmt.Sprintf("%s (%s)", m, expansion)
		})
	}
	return text
}

// normalizeDateFormat rewrites any remaining MM/DD/YYYY dates to ISO
// form, matching the Preprocessor's own date normalization rule so a
// narrative never mixes date formats across sections.
func normalizeDateFormat(text string) string {
	return usDatePattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := usDatePattern.FindStringSubmatch(m)
		month, err1 := strconv.Atoi(parts[1])
		day, err2 := strconv.Atoi(parts[2])
		year, err3 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || err3 != nil {
			return m
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	})
}

var isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

// annotatePOD appends "(POD n)" after any ISO date in text that falls
// on or after surgeryDate and is not already followed by a POD
// annotation, the explicit-POD insertion §4.9 asks for.
func annotatePOD(text string, surgeryDate note.Date) string {
	return isoDatePattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := isoDatePattern.FindStringSubmatch(m)
		y, _ := strconv.Atoi(parts[1])
		mo, _ := strconv.Atoi(parts[2])
		d, _ := strconv.Atoi(parts[3])
		date := note.Date{Year: y, Month: mo, Day: d}
		if date.Before(surgeryDate) {
			return m
		}
		pod := podOffset(surgeryDate, date)
		if pod == 0 {
			return m
		}
		return fmt.Sprintf("%s (POD#%d)", m, pod)
	})
}

func podOffset(surgeryDate, date note.Date) int {
	days := 0
	cursor := surgeryDate
	for cursor.Before(date) {
		cursor = cursor.AddDays(1)
		days++
		if days > 365 {
			break
		}
	}
	return days
}

// ApplyStyleToNarrative runs ApplyStyle over every section's text in
// place, skipping the notDocumented filler (post-processing a sentence
// that says nothing was documented would only add noise).
func ApplyStyleToNarrative(n Narrative, surgeryDate *note.Date) {
	for section, content := range n {
		if strings.HasSuffix(content.Text, "not documented.") {
			continue
		}
		content.Text = ApplyStyle(content.Text, surgeryDate)
		n[section] = content
	}
}
