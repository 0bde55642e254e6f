// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipelineerr defines the error-kind taxonomy of §7: sentinel
// errors wrapped with context via fmt.Errorf, tested with errors.Is,
// in the teacher's plain-errors style (no bespoke error-code package).
package pipelineerr

import "errors"

var (
	// ErrEmptyInput is fatal: return before any work (§7).
	ErrEmptyInput = errors.New("clinical: empty input")
	// ErrPreprocessing is fatal for the request.
	ErrPreprocessing = errors.New("clinical: preprocessing failed")
	// ErrLLMUnavailable means all providers failed; non-fatal, pattern-only
	// extraction and templated narrative continue.
	ErrLLMUnavailable = errors.New("clinical: llm unavailable")
	// ErrLLMMalformedResponse triggers one retry, then becomes
	// ErrLLMUnavailable for that call.
	ErrLLMMalformedResponse = errors.New("clinical: llm response malformed")
	// ErrEntityEvidenceMissing means the entity is discarded; never
	// surfaced as a request failure, only logged and recorded as an
	// issue.
	ErrEntityEvidenceMissing = errors.New("clinical: entity evidence missing")
	// ErrTemporalUnresolved means the entity is retained with
	// resolvedDate=nil and flagged; never surfaced as a failure.
	ErrTemporalUnresolved = errors.New("clinical: temporal reference unresolved")
	// ErrDeadlineExceeded means the pipeline finalizes with current
	// state and emits a telemetry warning.
	ErrDeadlineExceeded = errors.New("clinical: pipeline deadline exceeded")
	// ErrInvariantViolation is an internal bug: fail the request. Must
	// never be caused by input.
	ErrInvariantViolation = errors.New("clinical: invariant violation")
)

// Kind classifies err against the sentinel table above, for telemetry.
// Returns "" if err does not match a known kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "EmptyInput"
	case errors.Is(err, ErrPreprocessing):
		return "PreprocessingError"
	case errors.Is(err, ErrLLMUnavailable):
		return "LLMUnavailable"
	case errors.Is(err, ErrLLMMalformedResponse):
		return "LLMMalformedResponse"
	case errors.Is(err, ErrEntityEvidenceMissing):
		return "EntityEvidenceMissing"
	case errors.Is(err, ErrTemporalUnresolved):
		return "TemporalUnresolved"
	case errors.Is(err, ErrDeadlineExceeded):
		return "DeadlineExceeded"
	case errors.Is(err, ErrInvariantViolation):
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// Fatal reports whether err should abort the request per the recovery
// table in §7 (EmptyInput, PreprocessingError, InvariantViolation are
// fatal; everything else is non-fatal/degraded).
func Fatal(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrPreprocessing) ||
		errors.Is(err, ErrInvariantViolation)
}
