// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmextract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/clinicalctx"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

type stubProvider struct {
	name string
	text string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Complete(ctx context.Context, req llmgateway.Request) (llmgateway.ProviderResponse, error) {
	return llmgateway.ProviderResponse{Text: s.text, InputTokens: 50, OutputTokens: 100}, nil
}
func (s *stubProvider) Healthy(ctx context.Context) bool { return true }

func TestExtract_SimplePassParsesVerifiedEntities(t *testing.T) {
	notes := []note.Note{
		{Index: 0, Text: "58-year-old female presented with severe headache. Date of admission: 2026-01-04. Underwent craniotomy for clot evacuation on 2026-01-05."},
	}
	responseJSON := `Here is the extraction:
{
  "demographics": {"age": 58, "sex": "F", "mrn": null, "evidence": "58-year-old female", "confidence": 0.9},
  "dates": {
    "admission": {"date": "2026-01-04", "evidence": "Date of admission: 2026-01-04", "confidence": 0.95},
    "surgery": {"date": null, "evidence": "", "confidence": 0},
    "discharge": {"date": null, "evidence": "", "confidence": 0}
  },
  "procedures": [{"name": "craniotomy", "evidence": "Underwent craniotomy for clot evacuation", "confidence": 0.9}],
  "complications": [],
  "medications": [],
  "imaging_findings": [],
  "functional_scores": [],
  "neuro_exams": [],
  "consultations": [],
  "diagnoses": [],
  "follow_up": []
}
That's the full extraction.`

	gw := llmgateway.New([]llmgateway.Provider{&stubProvider{name: "test", text: responseJSON}}, []config.ProviderConfig{{Name: "test"}}, time.Minute, 0)
	x := New(gw)

	entities, _, err := x.Extract(context.Background(), notes, clinicalctx.Context{}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, entities)

	var sawDemographic, sawProcedure, sawDate bool
	for _, e := range entities {
		require.NoError(t, e.Validate())
		switch e.Kind {
		case note.KindDemographic:
			sawDemographic = true
			d := e.Value.(note.Demographic)
			assert.Equal(t, 58, *d.Age)
		case note.KindProcedure:
			sawProcedure = true
		case note.KindDate:
			sawDate = true
		}
		assert.Equal(t, note.MethodLLM, e.Method)
	}
	assert.True(t, sawDemographic)
	assert.True(t, sawProcedure)
	assert.True(t, sawDate)
}

func TestExtract_UnverifiableEvidenceDropped(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient is stable."}}
	responseJSON := `{
  "demographics": {"age": 70, "sex": "M", "mrn": null, "evidence": "completely fabricated sentence never in notes", "confidence": 0.9},
  "dates": {"admission": {"date": null, "evidence": "", "confidence": 0}, "surgery": {"date": null, "evidence": "", "confidence": 0}, "discharge": {"date": null, "evidence": "", "confidence": 0}},
  "procedures": [], "complications": [], "medications": [], "imaging_findings": [],
  "functional_scores": [], "neuro_exams": [], "consultations": [], "diagnoses": [], "follow_up": []
}`
	gw := llmgateway.New([]llmgateway.Provider{&stubProvider{name: "test", text: responseJSON}}, []config.ProviderConfig{{Name: "test"}}, time.Minute, 0)
	x := New(gw)

	entities, _, err := x.Extract(context.Background(), notes, clinicalctx.Context{}, nil)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestExtract_ComplexContextRunsFocusedPasses(t *testing.T) {
	notes := []note.Note{{Index: 0, Text: "Patient underwent craniotomy. MRN: 123456."}}
	responseJSON := `{
  "demographics": {"age": null, "sex": null, "mrn": "123456", "evidence": "MRN: 123456", "confidence": 0.9},
  "dates": {"admission": {"date": null, "evidence": "", "confidence": 0}, "surgery": {"date": null, "evidence": "", "confidence": 0}, "discharge": {"date": null, "evidence": "", "confidence": 0}},
  "procedures": [{"name": "craniotomy", "evidence": "underwent craniotomy", "confidence": 0.9}],
  "complications": [], "medications": [], "imaging_findings": [],
  "functional_scores": [], "neuro_exams": [], "consultations": [], "diagnoses": [], "follow_up": []
}`
	gw := llmgateway.New([]llmgateway.Provider{&stubProvider{name: "test", text: responseJSON}}, []config.ProviderConfig{{Name: "test"}}, time.Minute, 0)
	x := New(gw)

	complexCtx := clinicalctx.Context{ComplexityScore: 80}
	entities, _, err := x.Extract(context.Background(), notes, complexCtx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, entities)
}
