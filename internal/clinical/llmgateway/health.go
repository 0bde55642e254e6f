// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmgateway

import "context"

// HealthCheck runs a provider's own Healthy probe with the given
// context, and additionally marks it unhealthy in the Gateway's T_health
// cache on failure, grounded on the teacher's
// internal/heartbeat.ProviderHealthChecker periodic-check pattern
// (here invoked on demand rather than on a ticker, since the pipeline
// is request-scoped, not a long-running daemon).
func (g *Gateway) HealthCheck(ctx context.Context, p Provider) bool {
	ok := p.Healthy(ctx)
	if !ok {
		g.markUnhealthy(p.Name())
	}
	return ok
}

// MarkHealthy clears a provider's unhealthy marking, used by callers
// that perform their own out-of-band health probing.
func (g *Gateway) MarkHealthy(name string) {
	g.healthMu.Lock()
	defer g.healthMu.Unlock()
	delete(g.healthCache, name)
}
