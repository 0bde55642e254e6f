// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command summarize is a thin CLI collaborator exercising the
// discharge summary pipeline end to end: it loads configuration and
// knowledge packs, reads a corpus of clinical notes from a file, runs
// the Orchestrator, and prints the resulting narrative and quality
// report. It is not a server and carries no transport surface; wiring
// a real LLM provider or a persistence collaborator is left to the
// caller.
//
// Grounded on the teacher's cmd/server/main.go bootstrap shape
// (flag parsing, config load, logging setup, then run), trimmed to
// the non-HTTP core.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	dcs "github.com/ramihatou97/DCS-sub001"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/logging"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func main() {
	var configPath string
	var notesPath string
	var pathologyHint string

	flag.StringVar(&configPath, "config", "config.yaml", "pipeline configuration file")
	flag.StringVar(&notesPath, "notes", "", "path to a notes file: JSON array of {text, type} objects")
	flag.StringVar(&pathologyHint, "pathology", "", "optional pathology hint, skips context scoring")
	flag.Parse()

	if notesPath == "" {
		fmt.Fprintln(os.Stderr, "summarize: -notes is required")
		os.Exit(2)
	}

	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarize: reading config: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarize: loading config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Options{
		ToFile:    cfg.LoggingToFile,
		FilePath:  cfg.LogFilePath,
		MaxSizeMB: cfg.LogsMaxTotalSizeMB,
	})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	registry, err := knowledge.NewRegistry(cfg.KnowledgePackDir)
	if err != nil {
		log.WithError(err).Fatal("loading knowledge packs")
	}
	if cfg.WatchKnowledgePacks {
		if err := registry.Watch(); err != nil {
			log.WithError(err).Warn("knowledge pack hot reload disabled")
		}
		defer registry.Close()
	}

	notes, err := loadNotes(notesPath)
	if err != nil {
		log.WithError(err).Fatal("loading notes")
	}

	// No concrete Provider is wired here: provider SDKs are
	// collaborators (§6), not part of the core. With an empty
	// provider list the Gateway degrades every call to
	// ErrLLMUnavailable and the pipeline runs pattern-extraction and
	// template-narration only.
	gateway := llmgateway.New(nil, cfg.Providers, time.Duration(cfg.HealthCheckTTLMs)*time.Millisecond, cfg.MaxRetries)

	pipeline := dcs.NewPipeline(cfg, registry, gateway)

	var hint *note.Pathology
	if pathologyHint != "" {
		p := note.Pathology(pathologyHint)
		hint = &p
	}

	result, err := pipeline.GenerateDischargeSummary(context.Background(), notes, dcs.Options{PathologyHint: hint})
	if err != nil {
		log.WithError(err).Fatal("pipeline run failed")
	}

	printNarrative(result)
}

func loadNotes(path string) ([]note.Note, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	var entries []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("summarize: parsing notes file: %w", err)
	}
	notes := make([]note.Note, len(entries))
	for i, e := range entries {
		notes[i] = note.Note{
			Index:        i,
			Text:         e.Text,
			DeclaredType: note.Type(strings.ToLower(e.Type)),
		}
	}
	return notes, nil
}

func printNarrative(result *dcs.PipelineResult) {
	fmt.Printf("request %s — overall quality %.1f\n\n", result.RequestID, result.Quality.Overall)
	for section, content := range result.Narrative {
		fmt.Printf("## %s (%s)\n%s\n\n", section, content.Origin, content.Text)
	}
}
