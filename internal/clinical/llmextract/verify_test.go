// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmextract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func TestVerifyEvidence_ExactMatch(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient underwent craniotomy for clot evacuation."}}
	r := verifyEvidence("underwent craniotomy", notes)
	assert.True(t, r.verified)
	assert.True(t, r.exact)
	assert.Equal(t, 0, r.noteIndex)
}

func TestVerifyEvidence_FuzzyMatchWithinBoundedDistance(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient underwent craniotomy for clot evacuation without incident."}}
	r := verifyEvidence("underwent craniotomy for clot evacuaton", notes)
	assert.True(t, r.verified)
}

func TestVerifyEvidence_NoMatchReturnsUnverified(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient is stable and resting comfortably."}}
	r := verifyEvidence("underwent emergency craniectomy for herniation", notes)
	assert.False(t, r.verified)
}

func TestVerifyEvidence_EmptyEvidenceUnverified(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Some note text."}}
	r := verifyEvidence("   ", notes)
	assert.False(t, r.verified)
}
