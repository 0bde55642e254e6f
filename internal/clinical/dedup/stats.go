// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dedup

import "github.com/ramihatou97/DCS-sub001/internal/clinical/note"

// CategoryStats is the merge metadata block §4.8 requires for one
// repeated category: `{original, deduplicated, reduction, mergedCount,
// references, newEvents}`.
type CategoryStats struct {
	Original         int
	Deduplicated     int
	ReductionPercent float64
	MergedCount      int
	References       int
	NewEvents        int
}

// Stats aggregates every category's merge metadata plus an overall
// reduction figure, the shape the Quality Scorer and orchestrator logs
// report on (the teacher's CacheMetrics in
// internal/intelligence/cache/semantic_cache.go is the nearest
// ancestor: a small metrics struct sitting next to the component it
// measures).
type Stats struct {
	Categories       map[note.Kind]CategoryStats
	OverallOriginal     int
	OverallDeduplicated int
	OverallReductionPercent float64
}

func (s *Stats) computeOverall() {
	for _, cs := range s.Categories {
		s.OverallOriginal += cs.Original
		s.OverallDeduplicated += cs.Deduplicated
	}
	if s.OverallOriginal > 0 {
		s.OverallReductionPercent = (1 - float64(s.OverallDeduplicated)/float64(s.OverallOriginal)) * 100
	}
}
