// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package llmgateway implements the LLM Gateway (§4.3): a provider
// abstraction with ordered fallback, health-check skipping, retry with
// prompt adjustment, response validation, and cost tracking.
//
// Grounded on the teacher's internal/superbrain/router (fallback chain
// walk), internal/heartbeat (TTL-cached provider health), and
// internal/intelligence/cascade.QualitySignalDetector (regex-based
// response-quality signals, here repurposed as response validation
// gates rather than cascade triggers). The per-provider circuit breaker
// is grounded on jordigilh-kubernaut's go.mod inclusion of
// github.com/sony/gobreaker.
package llmgateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/pipelineerr"
)

// Task tags the kind of generation being requested (§4.3).
type Task string

const (
	TaskExtract       Task = "extract"
	TaskNarrateSection Task = "narrate_section"
	TaskRefine        Task = "refine"
	TaskValidate      Task = "validate"
)

// Request is one generation request sent through the Gateway.
type Request struct {
	Prompt      string
	Task        Task
	MaxTokens   int
	Temperature float64
	// ProviderOrder, if non-empty, names providers that should be tried
	// first, in this order, ahead of the Gateway's configured fallback
	// order (spec.md §6's per-request providerOrder option). Names not
	// present in the Gateway's provider list are ignored; providers the
	// Gateway holds that aren't named here keep their original relative
	// order, tried last.
	ProviderOrder []string
}

// ProviderResponse is what a Provider's Complete returns on success.
type ProviderResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is the capability set every LLM provider must implement
// (§4.3 "polymorphic over the capability set {complete, healthCheck}").
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (ProviderResponse, error)
	Healthy(ctx context.Context) bool
}

// Attempt records one provider attempt for the response's attempt chain.
type Attempt struct {
	Provider string
	Task     Task
	Retries  int
	Err      string // empty on success
	Skipped  bool   // true if skipped due to failed health check
	LatencyMs int64
}

// Response is the Gateway's successful result.
type Response struct {
	RequestID string
	Text      string
	InputTokens int
	OutputTokens int
	Attempts  []Attempt
	Provider  string // the provider that ultimately succeeded
}

// CostEntry accumulates spend for one (provider, task) pair.
type CostEntry struct {
	Calls        int64
	InputTokens  int64
	OutputTokens int64
	CostCents    float64
}

// Gateway dispatches requests across an ordered provider list with
// fallback, retry, and cost tracking.
type Gateway struct {
	mu          sync.Mutex
	providers   []Provider
	configs     map[string]config.ProviderConfig
	breakers    map[string]*gobreaker.CircuitBreaker
	healthTTL   time.Duration
	maxRetries  int

	healthMu    sync.Mutex
	healthCache map[string]healthEntry

	costMu sync.Mutex
	cost   map[string]*CostEntry // key: provider|task
}

type healthEntry struct {
	healthy   bool
	checkedAt time.Time
}

// New constructs a Gateway from an ordered provider list and their
// configs. healthTTL is T_health; maxRetries is N_retry.
func New(providers []Provider, configs []config.ProviderConfig, healthTTL time.Duration, maxRetries int) *Gateway {
	cfgByName := make(map[string]config.ProviderConfig, len(configs))
	for _, c := range configs {
		cfgByName[c.Name] = c
	}
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(providers))
	for _, p := range providers {
		name := p.Name()
		breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    0,
			Timeout:     healthTTL,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return &Gateway{
		providers:   providers,
		configs:     cfgByName,
		breakers:    breakers,
		healthTTL:   healthTTL,
		maxRetries:  maxRetries,
		healthCache: make(map[string]healthEntry),
		cost:        make(map[string]*CostEntry),
	}
}

// Complete tries providers in order until one returns a valid response,
// implementing the fallback protocol of §4.3. Returns ErrLLMUnavailable
// if every provider fails.
func (g *Gateway) Complete(ctx context.Context, req Request) (Response, error) {
	resp := Response{RequestID: uuid.NewString()}

	for _, p := range g.orderedProviders(req.ProviderOrder) {
		name := p.Name()

		if g.isMarkedUnhealthy(name) {
			resp.Attempts = append(resp.Attempts, Attempt{Provider: name, Task: req.Task, Skipped: true})
			continue
		}

		text, inTok, outTok, retries, err := g.attemptWithRetry(ctx, p, req)
		latencyStart := time.Now()
		_ = latencyStart

		if err != nil {
			g.markUnhealthy(name)
			resp.Attempts = append(resp.Attempts, Attempt{Provider: name, Task: req.Task, Retries: retries, Err: err.Error()})
			continue
		}

		resp.Attempts = append(resp.Attempts, Attempt{Provider: name, Task: req.Task, Retries: retries})
		resp.Text = text
		resp.InputTokens = inTok
		resp.OutputTokens = outTok
		resp.Provider = name
		g.recordCost(name, req.Task, inTok, outTok)
		return resp, nil
	}

	return resp, fmt.Errorf("%w: all %d providers failed", pipelineerr.ErrLLMUnavailable, len(g.providers))
}

// orderedProviders reorders g.providers for one call per a requested
// providerOrder: every name in order appears first (in that order),
// followed by the remaining providers in their original relative
// order. An empty or all-unknown providerOrder leaves g.providers
// untouched.
func (g *Gateway) orderedProviders(providerOrder []string) []Provider {
	if len(providerOrder) == 0 {
		return g.providers
	}
	rank := make(map[string]int, len(providerOrder))
	for i, name := range providerOrder {
		rank[name] = i
	}
	out := make([]Provider, len(g.providers))
	copy(out, g.providers)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].Name()]
		rj, jok := rank[out[j].Name()]
		if iok && jok {
			return ri < rj
		}
		return iok && !jok
	})
	return out
}

// attemptWithRetry calls one provider through its circuit breaker, and
// retries up to maxRetries times (with an adjusted prompt) when the
// response fails validation, per §4.3.
func (g *Gateway) attemptWithRetry(ctx context.Context, p Provider, req Request) (text string, inTok, outTok, retries int, err error) {
	name := p.Name()
	cfg, hasCfg := g.configs[name]
	attemptCtx := ctx
	var cancel context.CancelFunc
	if hasCfg {
		attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
	}

	currentReq := req
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		out, breakerErr := g.breakers[name].Execute(func() (interface{}, error) {
			return p.Complete(attemptCtx, currentReq)
		})
		if breakerErr != nil {
			return "", 0, 0, attempt, breakerErr
		}
		pr := out.(ProviderResponse)
		if verr := Validate(currentReq.Task, pr.Text); verr != nil {
			retries = attempt
			currentReq.Prompt = adjustPrompt(currentReq.Prompt, verr)
			if attempt == g.maxRetries {
				return "", 0, 0, attempt, fmt.Errorf("%w: %v", pipelineerr.ErrLLMMalformedResponse, verr)
			}
			continue
		}
		return pr.Text, pr.InputTokens, pr.OutputTokens, attempt, nil
	}
	return "", 0, 0, g.maxRetries, fmt.Errorf("%w: exhausted retries", pipelineerr.ErrLLMMalformedResponse)
}

func adjustPrompt(prompt string, reason error) string {
	return prompt + "\n\nIMPORTANT: your previous response was rejected (" + reason.Error() + "). Respond completely and follow the required format exactly."
}

func (g *Gateway) isMarkedUnhealthy(name string) bool {
	g.healthMu.Lock()
	defer g.healthMu.Unlock()
	e, ok := g.healthCache[name]
	if !ok {
		return false
	}
	if time.Since(e.checkedAt) > g.healthTTL {
		delete(g.healthCache, name)
		return false
	}
	return !e.healthy
}

func (g *Gateway) markUnhealthy(name string) {
	g.healthMu.Lock()
	defer g.healthMu.Unlock()
	g.healthCache[name] = healthEntry{healthy: false, checkedAt: time.Now()}
}

func (g *Gateway) recordCost(provider string, task Task, inTok, outTok int) {
	cfg := g.configs[provider]
	g.costMu.Lock()
	defer g.costMu.Unlock()
	key := provider + "|" + string(task)
	e, ok := g.cost[key]
	if !ok {
		e = &CostEntry{}
		g.cost[key] = e
	}
	e.Calls++
	e.InputTokens += int64(inTok)
	e.OutputTokens += int64(outTok)
	e.CostCents += float64(inTok)*cfg.CostPerInputTokenCents + float64(outTok)*cfg.CostPerOutputTokenCents
}

// CostSnapshot returns a copy of the current cost ledger, keyed by
// "provider|task".
func (g *Gateway) CostSnapshot() map[string]CostEntry {
	g.costMu.Lock()
	defer g.costMu.Unlock()
	out := make(map[string]CostEntry, len(g.cost))
	for k, v := range g.cost {
		out[k] = *v
	}
	return out
}

// TotalCostCents sums every cost entry's CostCents.
func (g *Gateway) TotalCostCents() float64 {
	g.costMu.Lock()
	defer g.costMu.Unlock()
	var total float64
	for _, v := range g.cost {
		total += v.CostCents
	}
	return total
}
