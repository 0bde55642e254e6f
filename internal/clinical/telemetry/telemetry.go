// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telemetry collects one pipeline run's observability trail:
// per-stage timings, the LLM attempt chain, accumulated cost, and
// edge-case flags — everything a collaborator needs to log, alert on,
// or bill against without reaching back into the pipeline internals
// (§9: "no component reaches into another's state").
//
// Grounded on the teacher's internal/superbrain/metrics: a plain
// accumulator struct fed by the stages it observes, with no
// aggregation logic of its own beyond simple sums and appends.
package telemetry

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage   string        `json:"stage"`
	Elapsed time.Duration `json:"elapsed"`
}

// Telemetry accumulates one Run's observability data. Not safe for
// concurrent writes; the Orchestrator records stages sequentially on
// its own goroutine even though the stages themselves may fan out.
type Telemetry struct {
	RequestID            string               `json:"requestId"`
	Stages               []StageTiming        `json:"stages"`
	EdgeFlags            []string             `json:"edgeFlags,omitempty"`
	RefinementIterations int                  `json:"refinementIterations"`
	CostCents            float64              `json:"costCents"`
	Attempts             []llmgateway.Attempt `json:"llmAttempts,omitempty"`
}

// New starts a Telemetry trail for one request.
func New(requestID string) *Telemetry {
	return &Telemetry{RequestID: requestID}
}

// Record appends one stage's elapsed time.
func (t *Telemetry) Record(stage string, elapsed time.Duration) {
	t.Stages = append(t.Stages, StageTiming{Stage: stage, Elapsed: elapsed})
}

// Flag notes an edge-case condition worth a collaborator's attention
// (a degraded LLM path, an exceeded deadline) without failing the
// request — matching §7's "non-fatal, logged and recorded" recovery
// actions.
func (t *Telemetry) Flag(reason string) {
	if reason == "" {
		return
	}
	t.EdgeFlags = append(t.EdgeFlags, reason)
}

// RecordAttempts appends one LLM call's provider attempt chain
// (spec.md §6's telemetry.llmAttempts), including skipped and failed
// attempts — scenario 5 requires the full chain survive even when
// every provider fails.
func (t *Telemetry) RecordAttempts(attempts []llmgateway.Attempt) {
	t.Attempts = append(t.Attempts, attempts...)
}

// SetRefinementIterations records how many refinement passes the
// Orchestrator's quality loop ran.
func (t *Telemetry) SetRefinementIterations(n int) {
	t.RefinementIterations = n
}

// SetCostCents records the Gateway's total spend for this request.
func (t *Telemetry) SetCostCents(cents float64) {
	t.CostCents = cents
}

// TotalElapsed sums every recorded stage, for a caller that wants a
// single number without walking Stages itself.
func (t *Telemetry) TotalElapsed() time.Duration {
	var total time.Duration
	for _, s := range t.Stages {
		total += s.Elapsed
	}
	return total
}

// Compress gzip-encodes the JSON telemetry payload, for a collaborator
// shipping it alongside a large PipelineResult where the trail itself
// (many stages across a long refinement loop) is worth shrinking
// before it crosses a network boundary.
func (t *Telemetry) Compress() ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
