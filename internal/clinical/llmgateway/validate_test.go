// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_RejectsEmpty(t *testing.T) {
	err := Validate(TaskExtract, "   ")
	assert.Error(t, err)
}

func TestValidate_RejectsAbruptEnding(t *testing.T) {
	err := Validate(TaskNarrateSection, "The patient was admitted and the surgeon decided to perform and")
	assert.Error(t, err)
}

func TestValidate_RejectsTruncationMarker(t *testing.T) {
	err := Validate(TaskExtract, `{"finding": "large hematoma"} [truncated]`)
	assert.Error(t, err)
}

func TestValidate_RequiresJSONOpenerForExtract(t *testing.T) {
	err := Validate(TaskExtract, "patient has a large subdural hematoma without any braces here")
	assert.Error(t, err)
}

func TestValidate_AcceptsWellFormedExtractResponse(t *testing.T) {
	err := Validate(TaskExtract, `{"procedure": "craniotomy", "date": "2026-01-04"}`)
	assert.NoError(t, err)
}

func TestValidate_AcceptsNarrativeProse(t *testing.T) {
	err := Validate(TaskNarrateSection, "The patient underwent an uncomplicated right frontal craniotomy for tumor resection.")
	assert.NoError(t, err)
}
