// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dcs is the root-level thin facade SPEC_FULL.md §0 describes:
// it wires config, the knowledge pack registry, and the LLM Gateway
// into an Orchestrator once, then exposes GenerateDischargeSummary as
// the one exported entry point. Every call runs the full pipeline
// under the Options passed to it; all substantial logic stays under
// internal/clinical.
package dcs

import (
	"context"
	"fmt"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/orchestrator"
)

// Options is the per-request entry point options from spec.md §6
// (style, useLLM, qualityTarget, maxRefinementIterations, deadlineMs,
// strictValidation, providerOrder, pathologyHint). It is an alias for
// orchestrator.Options so callers never need to import internal/clinical
// directly.
type Options = orchestrator.Options

// PipelineResult is everything one GenerateDischargeSummary call
// produces: extracted data, the generated narrative, the quality
// report, and the telemetry trail.
type PipelineResult = orchestrator.Result

// Pipeline holds the long-lived collaborators one process builds once
// at startup (config, knowledge pack registry, LLM Gateway) behind the
// single exported operation callers actually use per request.
type Pipeline struct {
	orch *orchestrator.Orchestrator
}

// NewPipeline wires a Pipeline from its already-constructed
// collaborators, mirroring cmd/summarize's bootstrap-once shape.
func NewPipeline(cfg *config.Config, registry *knowledge.Registry, gateway *llmgateway.Gateway) *Pipeline {
	return &Pipeline{orch: orchestrator.New(cfg, registry, gateway)}
}

// GenerateDischargeSummary runs the full pipeline (§2-§5) over notes
// under opts, merging opts over the Pipeline's packaged Config.Defaults
// (§6). It is the module's one exported operation; everything else a
// caller needs — extracted data, narrative sections, quality, and the
// telemetry trail — comes back on PipelineResult.
func (p *Pipeline) GenerateDischargeSummary(ctx context.Context, notes []note.Note, opts Options) (*PipelineResult, error) {
	result, err := p.orch.Run(ctx, notes, opts)
	if err != nil {
		return nil, fmt.Errorf("dcs: %w", err)
	}
	return result, nil
}
