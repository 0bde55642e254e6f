// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
)

// HTTPProvider is a generic JSON-completion provider adapter: it POSTs
// {"prompt": ..., "max_tokens": ..., "temperature": ...} to Endpoint
// and expects {"text": ..., "input_tokens": ..., "output_tokens": ...}
// back. Real provider SDKs (Anthropic, OpenAI, Bedrock, ...) are
// collaborators per §6 — this adapter is the shape a collaborator's
// client plugs into, grounded on the teacher's doctor.go
// httpClient+gatewayURL dispatch pattern
// (internal/superbrain/doctor/doctor.go).
type HTTPProvider struct {
	name       string
	endpoint   string
	credential string // resolved once from the env var named in config
	client     *http.Client
}

// NewHTTPProvider builds an HTTPProvider from a ProviderConfig and an
// endpoint URL. The credential is read from the environment at
// construction time and never logged (§6).
func NewHTTPProvider(cfg config.ProviderConfig, endpoint string) *HTTPProvider {
	return &HTTPProvider{
		name:       cfg.Name,
		endpoint:   endpoint,
		credential: os.Getenv(cfg.CredentialEnvVar),
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type httpRequestBody struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type httpResponseBody struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

func (p *HTTPProvider) Complete(ctx context.Context, req Request) (ProviderResponse, error) {
	body, err := json.Marshal(httpRequestBody{Prompt: req.Prompt, MaxTokens: req.MaxTokens, Temperature: req.Temperature})
	if err != nil {
		return ProviderResponse{}, fmt.Errorf("llmgateway: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return ProviderResponse{}, fmt.Errorf("llmgateway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.credential)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ProviderResponse{}, fmt.Errorf("llmgateway: provider %s request: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ProviderResponse{}, fmt.Errorf("llmgateway: provider %s rate limited", p.name)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ProviderResponse{}, fmt.Errorf("llmgateway: provider %s auth error", p.name)
	}
	if resp.StatusCode != http.StatusOK {
		return ProviderResponse{}, fmt.Errorf("llmgateway: provider %s returned status %d", p.name, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ProviderResponse{}, fmt.Errorf("llmgateway: provider %s read body: %w", p.name, err)
	}
	var parsed httpResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ProviderResponse{}, fmt.Errorf("llmgateway: provider %s malformed json: %w", p.name, err)
	}
	return ProviderResponse{Text: parsed.Text, InputTokens: parsed.InputTokens, OutputTokens: parsed.OutputTokens}, nil
}

func (p *HTTPProvider) Healthy(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(healthCtx, http.MethodGet, p.endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
