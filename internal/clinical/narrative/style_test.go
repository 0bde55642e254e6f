// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func TestApplyStyle_ExpandsAbbreviationOnFirstUseOnly(t *testing.T) {
	got := ApplyStyle("Patient has SAH. Follow-up for SAH in 2 weeks.", nil)
	assert.Contains(t, got, "SAH (subarachnoid hemorrhage)")
	assert.Equal(t, 1, countOccurrences(got, "subarachnoid hemorrhage"))
}

func TestApplyStyle_NormalizesUSDateFormat(t *testing.T) {
	got := ApplyStyle("Surgery performed on 3/1/2026.", nil)
	assert.Contains(t, got, "2026-03-01")
}

func TestApplyStyle_AnnotatesPODWhenSurgeryDateKnown(t *testing.T) {
	surgery := note.Date{Year: 2026, Month: 3, Day: 1}
	got := ApplyStyle("Imaging on 2026-03-03 showed stable findings.", &surgery)
	assert.Contains(t, got, "2026-03-03 (POD#2)")
}

func TestApplyStyleToNarrative_SkipsNotDocumentedFiller(t *testing.T) {
	n := Narrative{
		SectionComplications: SectionContent{Text: "complications not documented.", Origin: OriginTemplate},
	}
	ApplyStyleToNarrative(n, nil)
	assert.Equal(t, "complications not documented.", n[SectionComplications].Text)
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
