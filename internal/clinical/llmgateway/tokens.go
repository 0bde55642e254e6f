// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmgateway

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// EstimateTokens counts tokens the way a real provider would bill them,
// using the cl100k_base encoding via tiktoken-go/tokenizer. This
// replaces the teacher's sculptor.TokenEstimator "simple" word-count
// fallback (which left accurate counting as a TODO) with the real
// tokenizer the pack makes available.
func EstimateTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return simpleEstimate(text)
	}
	ids, _, err := enc.Encode(text)
	if err != nil {
		return simpleEstimate(text)
	}
	return len(ids)
}

// simpleEstimate is the fallback word-count*1.3 approximation, used
// only if the tokenizer codec cannot be loaded.
func simpleEstimate(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * 1.3)
}
