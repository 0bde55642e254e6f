// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package storage defines the persistence collaborator interface
// (§6): the core never implements storage itself ("the core stays
// storage-free"), it only names the shape a collaborator must satisfy
// to save and retrieve a pipeline run.
//
// Grounded on the teacher's sdk/switchailocal/pipeline.Hook interface
// shape (a narrow set of methods over a shared record type, no
// implementation bundled with the core).
package storage

import (
	"context"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/narrative"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/quality"
)

// Record is everything one pipeline run produces, the shape a
// collaborator persists as a unit.
type Record struct {
	RequestID string
	Data      *note.ExtractedData
	Narrative narrative.Narrative
	Quality   quality.Report
}

// Store is the interface a persistence collaborator implements.
type Store interface {
	Save(ctx context.Context, r Record) error
	Load(ctx context.Context, requestID string) (Record, error)
}

// NoOp is a Store that discards everything, for callers that want the
// core wired up without a real persistence layer (tests, the
// cmd/summarize CLI, a first smoke run against a new pathology pack).
type NoOp struct{}

// Save implements Store by discarding r.
func (NoOp) Save(ctx context.Context, r Record) error { return nil }

// Load implements Store by reporting the record was never saved.
func (NoOp) Load(ctx context.Context, requestID string) (Record, error) {
	return Record{}, nil
}
