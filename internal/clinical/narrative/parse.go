// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// errMalformedSection is returned by parseSectionResponse when the
// model's response cannot be read back into a section payload.
var errMalformedSection = errors.New("narrative: malformed section response")

// parseSectionResponse extracts the "text" field from one section's LLM
// response, tolerating prose wrapped around the JSON object the same
// way llmextract.parseResponse does (§4-FULL.H).
func parseSectionResponse(responseText string) (string, error) {
	root := extractJSONObject(responseText)
	if !root.Exists() {
		return "", errMalformedSection
	}
	text := root.Get("text").String()
	if strings.TrimSpace(text) == "" {
		return "", errMalformedSection
	}
	return text, nil
}

func extractJSONObject(text string) gjson.Result {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return gjson.Result{}
	}
	return gjson.Parse(text[start : end+1])
}

// correctSectionName patches a response whose "section" field drifted
// from the section actually requested, the one sjson-applied
// single-field correction §4-FULL.H describes rather than discarding an
// otherwise-usable "text" payload.
func correctSectionName(responseText string, want Section) (string, error) {
	start := strings.IndexByte(responseText, '{')
	end := strings.LastIndexByte(responseText, '}')
	if start < 0 || end < start {
		return responseText, errMalformedSection
	}
	fixed, err := sjson.Set(responseText[start:end+1], "section", string(want))
	if err != nil {
		return responseText, err
	}
	return fixed, nil
}
