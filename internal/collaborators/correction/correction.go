// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package correction defines the onUserCorrection collaborator
// interface (§6): the core pipeline never learns from feedback itself,
// it only exposes the callback shape a collaborator can satisfy after
// a clinician edits a generated narrative.
//
// Grounded on the teacher's sdk/switchailocal/pipeline.Hook/HookFunc
// (Before/After callback struct with optional fields): the same
// optional-field composition, narrowed to the single correction event
// the core actually emits.
package correction

import (
	"context"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/narrative"
)

// Correction describes one clinician edit to a generated section: the
// original text the pipeline produced, the corrected text the
// clinician submitted, and which section it applies to.
type Correction struct {
	RequestID string
	Section   narrative.Section
	Original  string
	Corrected string
}

// Hook is the interface a correction collaborator implements. The
// core calls OnCorrection when a caller reports an edit; it never
// inspects what the collaborator does with it.
type Hook interface {
	OnCorrection(ctx context.Context, c Correction) error
}

// HookFunc lets a caller supply just a function instead of a type,
// the same optional-field composition as the teacher's HookFunc
// struct.
type HookFunc struct {
	Func func(context.Context, Correction) error
}

// OnCorrection implements Hook.
func (h HookFunc) OnCorrection(ctx context.Context, c Correction) error {
	if h.Func == nil {
		return nil
	}
	return h.Func(ctx, c)
}
