// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmgateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/pipelineerr"
)

// fakeProvider is a deterministic test double standing in for a real
// provider SDK collaborator (§6). responses is consumed in order;
// once exhausted the last entry repeats.
type fakeProvider struct {
	name      string
	responses []fakeResult
	calls     int
	healthy   bool
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (ProviderResponse, error) {
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[idx]
	if r.err != nil {
		return ProviderResponse{}, r.err
	}
	return ProviderResponse{Text: r.text, InputTokens: 10, OutputTokens: 20}, nil
}

func (f *fakeProvider) Healthy(ctx context.Context) bool { return f.healthy }

func testCfg(name string) config.ProviderConfig {
	return config.ProviderConfig{Name: name, TimeoutMs: 5000, CredentialEnvVar: "UNUSED_TEST_VAR"}
}

func TestGatewayComplete_FirstProviderSucceeds(t *testing.T) {
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{text: `{"ok": true}`}}}
	g := New([]Provider{p1}, []config.ProviderConfig{testCfg("primary")}, time.Minute, 1)

	resp, err := g.Complete(context.Background(), Request{Prompt: "extract this", Task: TaskExtract})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Provider)
	assert.Equal(t, `{"ok": true}`, resp.Text)
	require.Len(t, resp.Attempts, 1)
	assert.Empty(t, resp.Attempts[0].Err)
}

func TestGatewayComplete_FallsBackOnError(t *testing.T) {
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{err: errors.New("connection refused")}}}
	p2 := &fakeProvider{name: "secondary", healthy: true, responses: []fakeResult{{text: `{"ok": true}`}}}
	g := New([]Provider{p1, p2}, []config.ProviderConfig{testCfg("primary"), testCfg("secondary")}, time.Minute, 0)

	resp, err := g.Complete(context.Background(), Request{Prompt: "extract this", Task: TaskExtract})
	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Provider)
	require.Len(t, resp.Attempts, 2)
	assert.NotEmpty(t, resp.Attempts[0].Err)
}

func TestGatewayComplete_AllProvidersFail(t *testing.T) {
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{err: errors.New("down")}}}
	g := New([]Provider{p1}, []config.ProviderConfig{testCfg("primary")}, time.Minute, 0)

	_, err := g.Complete(context.Background(), Request{Prompt: "extract this", Task: TaskExtract})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipelineerr.ErrLLMUnavailable))
}

func TestGatewayComplete_SkipsUnhealthyProvider(t *testing.T) {
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{err: errors.New("down")}}}
	p2 := &fakeProvider{name: "secondary", healthy: true, responses: []fakeResult{{text: `{"ok": true}`}}}
	g := New([]Provider{p1, p2}, []config.ProviderConfig{testCfg("primary"), testCfg("secondary")}, time.Minute, 0)

	_, err := g.Complete(context.Background(), Request{Prompt: "first call marks primary unhealthy", Task: TaskExtract})
	require.NoError(t, err)

	resp, err := g.Complete(context.Background(), Request{Prompt: "second call should skip primary", Task: TaskExtract})
	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Provider)

	found := false
	for _, a := range resp.Attempts {
		if a.Provider == "primary" {
			found = true
			assert.True(t, a.Skipped)
		}
	}
	assert.True(t, found, "expected primary to appear as a skipped attempt")
}

func TestGatewayComplete_RetriesOnValidationFailure(t *testing.T) {
	p1 := &fakeProvider{
		name:    "primary",
		healthy: true,
		responses: []fakeResult{
			{text: "too short"},
			{text: `{"ok": true, "padded": "enough characters to pass length check"}`},
		},
	}
	g := New([]Provider{p1}, []config.ProviderConfig{testCfg("primary")}, time.Minute, 1)

	resp, err := g.Complete(context.Background(), Request{Prompt: "extract this", Task: TaskExtract})
	require.NoError(t, err)
	assert.Equal(t, 2, p1.calls)
	assert.Equal(t, 1, resp.Attempts[0].Retries)
}

func TestGatewayComplete_MalformedResponseExhaustsRetries(t *testing.T) {
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{text: "still too short"}}}
	g := New([]Provider{p1}, []config.ProviderConfig{testCfg("primary")}, time.Minute, 1)

	_, err := g.Complete(context.Background(), Request{Prompt: "extract this", Task: TaskExtract})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipelineerr.ErrLLMUnavailable))
}

func TestGatewayCostSnapshot_AccumulatesAcrossCalls(t *testing.T) {
	cfg := testCfg("primary")
	cfg.CostPerInputTokenCents = 0.001
	cfg.CostPerOutputTokenCents = 0.002
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{text: `{"a": 1}`}, {text: `{"b": 2}`}}}
	g := New([]Provider{p1}, []config.ProviderConfig{cfg}, time.Minute, 0)

	_, err := g.Complete(context.Background(), Request{Prompt: "one", Task: TaskExtract})
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), Request{Prompt: "two", Task: TaskExtract})
	require.NoError(t, err)

	snap := g.CostSnapshot()
	entry, ok := snap["primary|extract"]
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.Calls)
	assert.InDelta(t, 2*(10*0.001+20*0.002), g.TotalCostCents(), 1e-9)
}

func TestGatewayComplete_ProviderOrderOverridesConfiguredFallback(t *testing.T) {
	p1 := &fakeProvider{name: "primary", healthy: true, responses: []fakeResult{{text: `{"ok": true}`}}}
	p2 := &fakeProvider{name: "secondary", healthy: true, responses: []fakeResult{{text: `{"ok": true}`}}}
	g := New([]Provider{p1, p2}, []config.ProviderConfig{testCfg("primary"), testCfg("secondary")}, time.Minute, 0)

	resp, err := g.Complete(context.Background(), Request{
		Prompt: "extract this", Task: TaskExtract, ProviderOrder: []string{"secondary"},
	})
	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Provider)
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, "secondary", resp.Attempts[0].Provider)
}
