// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package knowledge implements the knowledge-pack file format and
// registry of §6: one YAML file per pathology tag, read-only at
// startup, hot-reloadable via fsnotify so that "adding a pathology is
// adding a pack; no code change required" holds in practice, not just
// in theory. Grounded on the teacher's sdk/switchailocal/watcher.go
// directory-watch pattern and intelligence/semantic.Tier's
// YAML-file-backed initialization.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Pack is the per-pathology bundle of expected fields, scales,
// procedures, complications, and templates driving both extraction
// rules and narrative templates (§6 GLOSSARY).
type Pack struct {
	Name                string              `yaml:"name"`
	Aliases             []string            `yaml:"aliases"`
	ExpectedFields      []string            `yaml:"expected-fields"`
	GradingScales       map[string][2]float64 `yaml:"grading-scales"`
	CommonProcedures    []string            `yaml:"common-procedures"`
	CommonComplications []string            `yaml:"common-complications"`
	FollowUpConventions []string            `yaml:"follow-up-conventions"`
	NarrativeTemplate   string              `yaml:"narrative-template"`

	// ProcedureCanonical maps alternate surface forms to the canonical
	// spelling used for matching/dedup (§4.6 step 1).
	ProcedureCanonical map[string]string `yaml:"procedure-canonical"`
	// ComplicationCanonical is the complication equivalent.
	ComplicationCanonical map[string]string `yaml:"complication-canonical"`
	// DictionaryWeights is the weighted scoring dictionary used by the
	// Context Builder to score this pathology against a note corpus
	// (§4.2); keys are lowercase cue terms, values are weights.
	DictionaryWeights map[string]float64 `yaml:"dictionary-weights"`
}

// Range returns a documented scale's [min,max] if known.
func (p *Pack) Range(scaleName string) (min, max float64, ok bool) {
	r, found := p.GradingScales[scaleName]
	if !found {
		return 0, 0, false
	}
	return r[0], r[1], true
}

// Canonicalize returns the canonical spelling of a procedure or
// complication surface form, or the input unchanged if not found.
func (p *Pack) CanonicalProcedure(surface string) string {
	return canonicalLookup(p.ProcedureCanonical, surface)
}

func (p *Pack) CanonicalComplication(surface string) string {
	return canonicalLookup(p.ComplicationCanonical, surface)
}

func canonicalLookup(m map[string]string, surface string) string {
	key := strings.ToLower(strings.TrimSpace(surface))
	if v, ok := m[key]; ok {
		return v
	}
	return surface
}

// Registry loads and serves knowledge packs by pathology tag, rebuilt
// wholesale from disk on change rather than assembled by a compiled
// switch statement — so adding a pack never requires a code change.
type Registry struct {
	mu    sync.RWMutex
	packs map[note.Pathology]*Pack
	dir   string
	watcher *fsnotify.Watcher
}

// NewRegistry loads every *.yaml file in dir as a pack, keyed by its
// filename stem uppercased (e.g. sah.yaml -> Pathology("SAH")).
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{packs: make(map[note.Pathology]*Pack), dir: dir}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("knowledge: read pack dir: %w", err)
	}
	packs := make(map[note.Pathology]*Pack, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".yaml") {
			continue
		}
		full := filepath.Join(r.dir, ent.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("knowledge: read %s: %w", full, err)
		}
		var p Pack
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("knowledge: parse %s: %w", full, err)
		}
		tag := note.Pathology(strings.ToUpper(strings.TrimSuffix(ent.Name(), ".yaml")))
		packs[tag] = &p
	}
	r.mu.Lock()
	r.packs = packs
	r.mu.Unlock()
	return nil
}

// Get returns the pack for a pathology tag, falling back to GENERAL if
// the tag has no dedicated pack (edge case: no-pathology-detected, §4.11).
func (r *Registry) Get(p note.Pathology) *Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pack, ok := r.packs[p]; ok {
		return pack
	}
	return r.packs[note.PathologyGeneral]
}

// All returns every loaded pack, keyed by pathology tag.
func (r *Registry) All() map[note.Pathology]*Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[note.Pathology]*Pack, len(r.packs))
	for k, v := range r.packs {
		out[k] = v
	}
	return out
}

// Watch starts an fsnotify watch on the pack directory, reloading the
// registry whenever a file is written, created, or removed. Call Close
// to stop watching.
func (r *Registry) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("knowledge: start watcher: %w", err)
	}
	if err := w.Add(r.dir); err != nil {
		w.Close()
		return fmt.Errorf("knowledge: watch %s: %w", r.dir, err)
	}
	r.watcher = w
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					_ = r.reload()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops the directory watch, if one was started.
func (r *Registry) Close() error {
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
