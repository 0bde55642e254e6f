// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package orchestrator implements the Orchestrator (§4.11): the fixed
// control flow that wires every other clinical package into one
// request — preprocess, build context, extract, merge, resolve
// temporal references, deduplicate, validate, refine while under the
// quality target, generate the narrative, and score the result.
//
// Grounded on the teacher's cmd/server/main.go bootstrap (wire every
// subsystem once, run the fixed request path) and
// internal/intelligence/cascade.Manager's iterate-while-below-threshold
// refinement loop, generalized from one cascade decision to the full
// quality-gated refinement pass.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/clinicalctx"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/dedup"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmextract"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/logging"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/merge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/narrative"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/patternextract"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/pipelineerr"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/preprocess"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/quality"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/telemetry"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/temporal"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/validate"
)

// Result is everything one Run call produces.
type Result struct {
	RequestID string
	Data      *note.ExtractedData
	Narrative narrative.Narrative
	Quality   quality.Report
	Telemetry *telemetry.Telemetry
}

// Options carries spec.md §6's per-request entry-point options. A zero
// value for any field falls back to the Orchestrator's Config.Defaults
// (the packaged/process-level defaults set once at startup): Style,
// UseLLM, and StrictValidation use pointer or sentinel representations
// because their Go zero value ("", false, 0) is also a meaningful
// explicit choice, so plain zero values can't tell "unset" apart from
// "caller chose this".
type Options struct {
	// PathologyHint short-circuits pathology scoring in the Context
	// Builder when non-nil (§6's pathologyHint).
	PathologyHint *note.Pathology
	// Style selects narrative tone; "" falls back to Config.Defaults.
	Style narrative.Style
	// UseLLM overrides whether the LLM Extractor/refinement loop runs;
	// nil falls back to Config.Defaults.
	UseLLM *bool
	// QualityTarget overrides the refinement loop's target score;
	// negative falls back to Config.Defaults.
	QualityTarget int
	// MaxRefinementIterations overrides the refinement loop's cap;
	// negative falls back to Config.Defaults.
	MaxRefinementIterations int
	// DeadlineMs overrides the request deadline; <= 0 falls back to
	// Config.Defaults.
	DeadlineMs int
	// ProviderOrder overrides the Gateway's fallback order for this
	// request only; empty falls back to Config's configured order.
	ProviderOrder []string
	// StrictValidation overrides Validator severity promotion; nil
	// falls back to Config.Defaults.
	StrictValidation *bool
}

// unset is the sentinel for Options' negative-means-unset int fields.
const unset = -1

// resolvedOptions is Options merged against Config.Defaults: the
// concrete settings one Run call actually executes with.
type resolvedOptions struct {
	style                   narrative.Style
	useLLM                  bool
	qualityTarget           int
	maxRefinementIterations int
	deadlineMs              int
	providerOrder           []string
	strictValidation        bool
}

// resolve merges opts over o.cfg.Defaults, implementing §6's
// "documented defaults" layering: Config.Defaults is the packaged
// default, Options is the per-call override.
func (o *Orchestrator) resolve(opts Options) resolvedOptions {
	r := resolvedOptions{
		style:                   narrative.Style(o.cfg.Defaults.Style),
		useLLM:                  o.cfg.Defaults.UseLLM,
		qualityTarget:           o.cfg.Defaults.QualityTarget,
		maxRefinementIterations: o.cfg.Defaults.MaxRefinementIterations,
		deadlineMs:              o.cfg.Defaults.DeadlineMs,
		providerOrder:           o.cfg.ProviderOrder(),
		strictValidation:        o.cfg.Defaults.StrictValidation,
	}
	if opts.Style != "" {
		r.style = opts.Style
	}
	if r.style == "" {
		r.style = narrative.StyleFormal
	}
	if opts.UseLLM != nil {
		r.useLLM = *opts.UseLLM
	}
	if opts.QualityTarget != unset && opts.QualityTarget >= 0 {
		r.qualityTarget = opts.QualityTarget
	}
	if opts.MaxRefinementIterations != unset && opts.MaxRefinementIterations >= 0 {
		r.maxRefinementIterations = opts.MaxRefinementIterations
	}
	if opts.DeadlineMs > 0 {
		r.deadlineMs = opts.DeadlineMs
	}
	if len(opts.ProviderOrder) > 0 {
		r.providerOrder = opts.ProviderOrder
	}
	if opts.StrictValidation != nil {
		r.strictValidation = *opts.StrictValidation
	}
	return r
}

// Orchestrator holds the long-lived collaborators a Run call wires
// together: configuration, the knowledge pack registry, and the LLM
// Gateway (nil disables every LLM-mode path, degrading to pattern
// extraction and template narration only).
type Orchestrator struct {
	cfg      *config.Config
	registry *knowledge.Registry
	gateway  *llmgateway.Gateway
	scorer   *quality.Scorer
}

// New builds an Orchestrator from its already-constructed
// collaborators; none of them are built here, mirroring the teacher's
// bootstrap-once-at-startup shape.
func New(cfg *config.Config, registry *knowledge.Registry, gateway *llmgateway.Gateway) *Orchestrator {
	return &Orchestrator{cfg: cfg, registry: registry, gateway: gateway, scorer: quality.New()}
}

// Run executes the full pipeline over one corpus of notes (§2), under
// opts (§6's per-request Options, merged over Config.Defaults).
func (o *Orchestrator) Run(ctx context.Context, notes []note.Note, opts Options) (*Result, error) {
	if len(notes) == 0 {
		return nil, fmt.Errorf("orchestrator: %w", pipelineerr.ErrEmptyInput)
	}
	r := o.resolve(opts)

	requestID := uuid.NewString()
	log := logging.For("orchestrator", requestID)
	start := time.Now()
	tel := telemetry.New(requestID)

	deadline := time.Duration(r.deadlineMs) * time.Millisecond
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	timed := func(name string, fn func() error) error {
		st := time.Now()
		err := fn()
		tel.Record(name, time.Since(st))
		return err
	}

	var pre preprocess.Result
	if err := timed("preprocess", func() error {
		var err error
		pre, err = preprocess.Preprocess(notes)
		return err
	}); err != nil {
		return nil, fmt.Errorf("orchestrator: preprocessing: %w (%v)", pipelineerr.ErrPreprocessing, err)
	}

	// §4.11 edge-case handling runs before step 1: classify the corpus
	// before context is built so a multiple-admissions corpus is
	// already trimmed to its latest episode by the time pathology and
	// extraction see it.
	pre.Notes = classifyInputSize(tel, pre.Notes)

	var cc clinicalctx.Context
	_ = timed("context", func() error {
		cc = clinicalctx.Build(pre.Notes, o.registry, opts.PathologyHint)
		return nil
	})
	pack := o.registry.Get(cc.Primary)
	forceLLM, confidenceCap := classifyPathology(tel, cc, pack)
	useLLM := r.useLLM || forceLLM

	patternEntities, llmEntities, llmErr := o.extract(ctx, timed, pre.Notes, cc, pack, useLLM, r.providerOrder, tel)
	if llmErr != nil {
		log.WithError(llmErr).Warn("llm extraction degraded to pattern-only")
		tel.Flag(pipelineerr.Kind(llmErr))
	}

	var data *note.ExtractedData
	_ = timed("merge", func() error {
		data = o.mergeAndResolve(patternEntities, llmEntities, pre.Notes, cc, pack, pre.SourceQuality)
		capConfidence(data, confidenceCap)
		return nil
	})

	validator := validate.New(pack, r.strictValidation)
	var extractedReport validate.Report
	_ = timed("dedup_validate", func() error {
		dedup.New(pack).Dedup(data)
		extractedReport = validator.ValidateExtracted(data, pre.Notes)
		removeEvidenceFailures(data, pre.Notes)
		return nil
	})

	iterations := o.refine(ctx, timed, &data, &extractedReport, validator, patternEntities, &llmEntities, pre, cc, pack, start, deadline, useLLM, r.providerOrder, r.qualityTarget, r.maxRefinementIterations, confidenceCap, tel)
	tel.SetRefinementIterations(iterations)

	data.Freeze()

	var generated narrative.Narrative
	_ = timed("narrative", func() error {
		generated = narrative.New(o.gateway, pack).Generate(ctx, data, r.style)
		return nil
	})

	narrativeReport := validator.ValidateNarrative(generated.ToMap())

	var report quality.Report
	_ = timed("quality", func() error {
		report = o.scorer.Score(quality.Input{
			Data:            data,
			ExtractedIssues: extractedReport,
			NarrativeIssues: narrativeReport,
			Elapsed:         time.Since(start),
			Deadline:        deadline,
		})
		return nil
	})

	if o.gateway != nil {
		tel.SetCostCents(o.gateway.TotalCostCents())
	}
	if deadline > 0 && ctx.Err() != nil {
		tel.Flag(pipelineerr.Kind(pipelineerr.ErrDeadlineExceeded))
	}

	log.WithField("overall_quality", report.Overall).Info("pipeline run complete")

	return &Result{
		RequestID: requestID,
		Data:      data,
		Narrative: generated,
		Quality:   report,
		Telemetry: tel,
	}, nil
}

// extract runs the Pattern Extractor and LLM Extractor concurrently
// (§5: Pattern∥LLM), joined with errgroup the way the domain-stack
// wiring table directs. A failed LLM pass is non-fatal (§7
// ErrLLMUnavailable): the request continues on pattern entities alone.
func (o *Orchestrator) extract(ctx context.Context, timed func(string, func() error) error, notes []note.Note, cc clinicalctx.Context, pack *knowledge.Pack, useLLM bool, providerOrder []string, tel *telemetry.Telemetry) ([]note.Entity, []note.Entity, error) {
	var patternEntities, llmEntities []note.Entity
	var llmErr error
	_ = timed("extract", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			patternEntities = patternextract.New(pack).Extract(notes)
			return nil
		})
		g.Go(func() error {
			if !useLLM || o.gateway == nil {
				return nil
			}
			entities, attempts, err := llmextract.New(o.gateway).Extract(gctx, notes, cc, providerOrder)
			tel.RecordAttempts(attempts)
			if err != nil {
				llmErr = err
				return nil
			}
			llmEntities = entities
			return nil
		})
		return g.Wait()
	})
	return patternEntities, llmEntities, llmErr
}

// mergeAndResolve runs the Hybrid Merger, resolves the named-date
// anchors the merged entities already carry, runs the Temporal Engine
// over the full set, and assembles the result into an ExtractedData
// (§3's "only merge.Merger.Merge constructs an ExtractedData").
func (o *Orchestrator) mergeAndResolve(patternEntities, llmEntities []note.Entity, notes []note.Note, cc clinicalctx.Context, pack *knowledge.Pack, sq note.SourceQuality) *note.ExtractedData {
	merged := merge.New(pack).Merge(patternEntities, llmEntities, cc, sq)
	anchors := resolveAnchors(merged)
	processed := temporal.New(anchors).Process(merged, notes)
	return merge.Assemble(processed)
}

// refine re-runs LLM extraction and re-merges while the quality score
// is below target, up to MaxRefinementIterations, bounded by the
// request's deadline (§4.11). Each successful pass replaces data and
// extractedReport in place.
func (o *Orchestrator) refine(ctx context.Context, timed func(string, func() error) error, data **note.ExtractedData, extractedReport *validate.Report, validator *validate.Validator, patternEntities []note.Entity, llmEntities *[]note.Entity, pre preprocess.Result, cc clinicalctx.Context, pack *knowledge.Pack, start time.Time, deadline time.Duration, useLLM bool, providerOrder []string, qualityTarget int, maxRefinementIterations int, confidenceCap float64, tel *telemetry.Telemetry) int {
	iterations := 0
	if o.gateway == nil || !useLLM {
		return iterations
	}
	for iterations < maxRefinementIterations {
		report := o.scorer.Score(quality.Input{
			Data: *data, ExtractedIssues: *extractedReport,
			Elapsed: time.Since(start), Deadline: deadline,
		})
		if report.Overall >= float64(qualityTarget) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		iterations++
		ok := false
		_ = timed(fmt.Sprintf("refine_%d", iterations), func() error {
			extra, attempts, err := llmextract.New(o.gateway).Extract(ctx, pre.Notes, cc, providerOrder)
			tel.RecordAttempts(attempts)
			if err != nil {
				return nil
			}
			*llmEntities = append(*llmEntities, extra...)
			*data = o.mergeAndResolve(patternEntities, *llmEntities, pre.Notes, cc, pack, pre.SourceQuality)
			capConfidence(*data, confidenceCap)
			dedup.New(pack).Dedup(*data)
			*extractedReport = validator.ValidateExtracted(*data, pre.Notes)
			removeEvidenceFailures(*data, pre.Notes)
			ok = true
			return nil
		})
		if !ok {
			break
		}
	}
	return iterations
}

// resolveAnchors pulls the admission/surgery/discharge dates out of a
// merged entity list, applying the same earlier-noteIndex-wins
// tie-break ExtractedData.SetDate uses for its singleton fields:
// anchors must be known before the Temporal Engine can resolve any
// other entity's date relative to them.
func resolveAnchors(entities []note.Entity) temporal.Anchors {
	var anchors temporal.Anchors
	bestIdx := map[note.DateFactKind]int{}

	consider := func(which note.DateFactKind, d note.Date, idx int) {
		if cur, ok := bestIdx[which]; ok && idx >= cur {
			return
		}
		bestIdx[which] = idx
		v := d
		switch which {
		case note.DateAdmission:
			anchors.Admission = &v
		case note.DateSurgery:
			anchors.Surgery = &v
		case note.DateDischarge:
			anchors.Discharge = &v
		}
	}

	for _, e := range entities {
		d, ok := e.Value.(note.DateFact)
		if !ok {
			continue
		}
		idx := int(^uint(0) >> 1) // max int: entities with no span sort last
		if len(e.SourceSpans) > 0 {
			idx = e.SourceSpans[0].NoteIndex
		}
		consider(d.Which, d.Value, idx)
	}
	return anchors
}

// removeEvidenceFailures drops every entity that fails the same
// source-span verification the Validator's checkEvidence check
// reports (§4.10): the Validator only reports issues, never mutates;
// the Orchestrator is the component that acts on a critical evidence
// finding by actually removing the offending entity before narration.
func removeEvidenceFailures(data *note.ExtractedData, notes []note.Note) {
	valid := func(e note.Entity) bool {
		if len(e.SourceSpans) == 0 {
			return false
		}
		for _, s := range e.SourceSpans {
			if s.NoteIndex < 0 || s.NoteIndex >= len(notes) {
				return false
			}
			if !strings.Contains(notes[s.NoteIndex].Text, s.MatchedText) {
				return false
			}
		}
		return true
	}
	filter := func(v []note.Entity) []note.Entity {
		out := make([]note.Entity, 0, len(v))
		for _, e := range v {
			if valid(e) {
				out = append(out, e)
			}
		}
		return out
	}

	if data.Demographic != nil && !valid(*data.Demographic) {
		data.Demographic = nil
	}
	for _, slot := range []**note.Entity{&data.AdmissionDate, &data.SurgeryDate, &data.DischargeDate, &data.IctusDate} {
		if *slot != nil && !valid(**slot) {
			*slot = nil
		}
	}

	data.ReplaceProcedures(filter(data.Procedures))
	data.ReplaceComplications(filter(data.Complications))
	data.ReplaceMedicationsPre(filter(data.MedicationsPre))
	data.ReplaceMedicationsPost(filter(data.MedicationsPost))
	data.ReplaceMedicationsDischarge(filter(data.MedicationsDischarge))
	data.ReplaceImagingPre(filter(data.ImagingPre))
	data.ReplaceImagingPost(filter(data.ImagingPost))
	data.ReplaceConsultations(filter(data.Consultations))
	data.ReplaceFollowUp(filter(data.FollowUp))
	data.ReplaceFunctionalScores(filter(data.FunctionalScores))
	data.ReplaceNeuroExams(filter(data.NeuroExams))
	data.ReplaceDiagnoses(filter(data.Diagnoses))
	data.ReplaceDispositionCandidates(filter(data.DispositionCandidates))
}
