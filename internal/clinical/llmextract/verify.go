// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmextract

import (
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// maxFuzzyDistanceRatio bounds the fuzzy-match edit distance as a
// fraction of the evidence snippet's length (§4.5 "substring or fuzzy
// match within a bounded distance").
const maxFuzzyDistanceRatio = 0.2

// verifyResult is what verification against the source corpus yields.
type verifyResult struct {
	verified  bool
	noteIndex int
	start     int
	end       int
	matched   string
	exact     bool
}

// verifyEvidence looks for an evidence snippet in the note corpus,
// first as an exact case-insensitive substring, then as a fuzzy match
// within a bounded edit distance. Returns verified=false if neither
// succeeds.
func verifyEvidence(evidence string, notes []note.Note) verifyResult {
	trimmed := strings.TrimSpace(evidence)
	if trimmed == "" {
		return verifyResult{}
	}
	lowerEvidence := strings.ToLower(trimmed)

	for i, n := range notes {
		lowerText := strings.ToLower(n.Text)
		if idx := strings.Index(lowerText, lowerEvidence); idx >= 0 {
			return verifyResult{
				verified:  true,
				exact:     true,
				noteIndex: i,
				start:     idx,
				end:       idx + len(trimmed),
				matched:   n.Text[idx : idx+len(trimmed)],
			}
		}
	}

	for i, n := range notes {
		if r, ok := fuzzyLocate(lowerEvidence, n.Text); ok {
			return verifyResult{verified: true, noteIndex: i, start: r.start, end: r.end, matched: n.Text[r.start:r.end]}
		}
	}

	return verifyResult{}
}

type span struct{ start, end int }

// fuzzyLocate slides a window the length of the evidence snippet across
// text and accepts the best-scoring window if its edit distance is
// within maxFuzzyDistanceRatio of the snippet's length.
func fuzzyLocate(lowerEvidence, text string) (span, bool) {
	n := len(lowerEvidence)
	if n == 0 || len(text) < n {
		return span{}, false
	}
	lowerText := strings.ToLower(text)
	maxDist := int(float64(n) * maxFuzzyDistanceRatio)
	if maxDist < 2 {
		maxDist = 2
	}

	best := -1
	bestDist := maxDist + 1
	step := n / 4
	if step < 1 {
		step = 1
	}
	for start := 0; start+n <= len(lowerText); start += step {
		window := lowerText[start : start+n]
		d := levenshteinBounded(lowerEvidence, window, bestDist)
		if d < bestDist {
			bestDist = d
			best = start
		}
	}
	if best < 0 {
		return span{}, false
	}
	return span{start: best, end: best + n}, true
}

// levenshteinBounded computes edit distance, short-circuiting once it
// provably exceeds cutoff (classic banded DP; inputs here are short
// evidence snippets so the plain O(n*m) table is cheap enough).
func levenshteinBounded(a, b string, cutoff int) int {
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
		rowMin := cur[0]
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
			if m < rowMin {
				rowMin = m
			}
		}
		if rowMin > cutoff {
			return cutoff + 1
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
