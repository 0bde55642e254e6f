// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/clinicalctx"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// focusedPasses is the fixed pass order for complex cases (§4.5): each
// pass receives the prior passes' results as compact context.
var focusedPasses = []Pass{
	PassDemographicsDates,
	PassProceduresComplications,
	PassMedications,
	PassNeurologicalFunctional,
}

// Extractor drives the LLM Gateway through single-pass or focused
// multi-pass extraction, verifying every returned value against the
// source notes (§4.5).
type Extractor struct {
	gateway *llmgateway.Gateway
}

// New binds an Extractor to a Gateway.
func New(gateway *llmgateway.Gateway) *Extractor {
	return &Extractor{gateway: gateway}
}

// longCorpusChars and chunkOverlapChars drive §4.11's very-long-input
// edge case: a corpus over this size is split into overlapping windows
// so no single Gateway call exceeds a provider's practical context
// budget, with the overlap guarding against an entity's evidence
// spanning a chunk boundary.
const (
	longCorpusChars   = 100000
	chunkOverlapChars = 2000
)

// Extract runs the LLM Extractor over the note corpus, chunking it
// first if it is very long (§4.11). providerOrder, if non-empty, is
// forwarded to every Gateway call for this request (spec.md §6's
// providerOrder option). On Gateway failure it returns pipelineerr's
// wrapped ErrLLMUnavailable (via the Gateway) so the caller can fall
// back to pattern-only results, per §4.5: "Fails with LLMUnavailable in
// which case the hybrid merger proceeds with pattern-only results." The
// second return value is the full provider attempt chain across every
// call this Extract made, including chunks or passes preceding a
// failure, for §6's telemetry.llmAttempts.
func (x *Extractor) Extract(ctx context.Context, notes []note.Note, cc clinicalctx.Context, providerOrder []string) ([]note.Entity, []llmgateway.Attempt, error) {
	corpus := joinCorpus(notes)
	guidance := pathologyGuidance(cc)

	var all []note.Entity
	var attempts []llmgateway.Attempt
	for _, chunk := range chunkCorpus(corpus) {
		entities, chunkAttempts, err := x.extractChunk(ctx, chunk, guidance, cc, notes, providerOrder)
		attempts = append(attempts, chunkAttempts...)
		if err != nil {
			return all, attempts, err
		}
		all = append(all, entities...)
	}
	return all, attempts, nil
}

// extractChunk runs single-pass or focused multi-pass extraction
// (§4.5) over one chunk of the corpus.
func (x *Extractor) extractChunk(ctx context.Context, corpus, guidance string, cc clinicalctx.Context, notes []note.Note, providerOrder []string) ([]note.Entity, []llmgateway.Attempt, error) {
	var attempts []llmgateway.Attempt

	if !cc.IsComplex() {
		prompt := BuildPrompt(PassSimple, guidance, corpus, "")
		resp, err := x.gateway.Complete(ctx, llmgateway.Request{Prompt: prompt, Task: llmgateway.TaskExtract, MaxTokens: 4000, ProviderOrder: providerOrder})
		attempts = append(attempts, resp.Attempts...)
		if err != nil {
			return nil, attempts, err
		}
		return parseResponse(resp.Text, notes), attempts, nil
	}

	var all []note.Entity
	var priorSummary strings.Builder
	for _, pass := range focusedPasses {
		prompt := BuildPrompt(pass, guidance, corpus, priorSummary.String())
		resp, err := x.gateway.Complete(ctx, llmgateway.Request{Prompt: prompt, Task: llmgateway.TaskExtract, MaxTokens: 3000, ProviderOrder: providerOrder})
		attempts = append(attempts, resp.Attempts...)
		if err != nil {
			return nil, attempts, err
		}
		entities := parseResponse(resp.Text, notes)
		all = append(all, entities...)
		fmt.Fprintf(&priorSummary, "- pass %s produced %d findings\n", pass, len(entities))
		for _, e := range entities {
			fmt.Fprintf(&priorSummary, "  - %s: %v\n", e.Kind, e.Value)
		}
	}
	return all, attempts, nil
}

// chunkCorpus splits a very long corpus into overlapping windows
// (§4.11). A corpus at or under the threshold is returned unsplit.
func chunkCorpus(corpus string) []string {
	if len(corpus) <= longCorpusChars {
		return []string{corpus}
	}
	var chunks []string
	step := longCorpusChars - chunkOverlapChars
	for start := 0; start < len(corpus); start += step {
		end := start + longCorpusChars
		if end > len(corpus) {
			end = len(corpus)
		}
		chunks = append(chunks, corpus[start:end])
		if end == len(corpus) {
			break
		}
	}
	return chunks
}

func joinCorpus(notes []note.Note) string {
	var b strings.Builder
	for i, n := range notes {
		fmt.Fprintf(&b, "--- Note %d (%s) ---\n%s\n\n", i, n.ClassifiedType(), n.Text)
	}
	return b.String()
}

func pathologyGuidance(cc clinicalctx.Context) string {
	if cc.PrimaryPack == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Primary pathology: %s\n", cc.PrimaryPack.Name)
	if len(cc.PrimaryPack.ExpectedFields) > 0 {
		fmt.Fprintf(&b, "Expected fields for this pathology: %s\n", strings.Join(cc.PrimaryPack.ExpectedFields, ", "))
	}
	if len(cc.PrimaryPack.CommonProcedures) > 0 {
		fmt.Fprintf(&b, "Common procedures: %s\n", strings.Join(cc.PrimaryPack.CommonProcedures, ", "))
	}
	if len(cc.PrimaryPack.CommonComplications) > 0 {
		fmt.Fprintf(&b, "Common complications: %s\n", strings.Join(cc.PrimaryPack.CommonComplications, ", "))
	}
	return b.String()
}
