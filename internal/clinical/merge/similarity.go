// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package merge implements the Hybrid Merger (§4.6): combines pattern
// and LLM extraction output per category into a single confidence-
// calibrated entity list, resolving the deliberate scope decision
// recorded in SPEC_FULL.md — the teacher's embedding-based
// intelligence/semantic.Tier similarity is reimplemented here with
// plain string similarity (normalized Levenshtein ratio), not
// embeddings, per spec.md's explicit Non-goal on vector/embedding
// search. The confidence-combination shape (probabilistic OR, capped)
// is grounded on the teacher's cascade package's multi-signal
// confidence blending.
package merge

import "strings"

// similarity returns a normalized similarity in [0,1]: 1 for identical
// strings, decreasing with edit distance relative to the longer
// string's length.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	dist := levenshtein(a, b)
	return 1 - float64(dist)/float64(longer)
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
