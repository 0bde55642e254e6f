// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/config"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/narrative"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

func testConfig() *config.Config {
	return &config.Config{
		Defaults: config.PipelineDefaults{
			Style:                   "formal",
			UseLLM:                  false,
			QualityTarget:           90,
			MaxRefinementIterations: 2,
			DeadlineMs:              5000,
			StrictValidation:        false,
		},
		KnowledgePackDir: "../../../knowledgepacks",
	}
}

func sahNotes() []note.Note {
	return []note.Note{
		{
			Index:        0,
			DeclaredType: note.TypeAdmission,
			Text: "62-year-old female presents with severe headache. MRN: 445566. " +
				"Date of admission: 2026-01-01. Hunt-Hess grade 3 on presentation.",
		},
		{
			Index:        1,
			DeclaredType: note.TypeOperative,
			Text:         "Date of surgery: 2026-01-02. Patient underwent craniotomy for aneurysm clipping.",
		},
		{
			Index:        2,
			DeclaredType: note.TypeProgress,
			Text: "Hospital course was complicated by vasospasm. Nimodipine 30mg PO q4h started. " +
				"CT head showed no new hemorrhage. Pupils equal and reactive.",
		},
		{
			Index:        3,
			DeclaredType: note.TypeDischarge,
			Text: "Date of discharge: 2026-01-10. Patient was discharged home in stable condition. " +
				"Follow up with neurosurgery clinic in 2 weeks.",
		},
	}
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	registry, err := knowledge.NewRegistry("../../../knowledgepacks")
	require.NoError(t, err)
	gateway := llmgateway.New(nil, nil, time.Minute, 1)
	return New(testConfig(), registry, gateway)
}

func TestOrchestratorRun_SAHScenario(t *testing.T) {
	o := newTestOrchestrator(t)
	hint := note.PathologySAH

	result, err := o.Run(context.Background(), sahNotes(), Options{PathologyHint: &hint})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RequestID)
	require.NotNil(t, result.Data)
	assert.True(t, result.Data.IsFrozen())

	require.NotNil(t, result.Data.AdmissionDate)
	require.NotNil(t, result.Data.SurgeryDate)
	require.NotNil(t, result.Data.DischargeDate)

	disposition, ok := result.Data.Disposition()
	if assert.True(t, ok, "expected a discharge disposition to survive extraction") {
		dispositionValue, dispOK := disposition.Value.(note.DischargeDisposition)
		if dispOK {
			assert.Contains(t, dispositionValue.Value, "home")
		}
	}

	assert.NotEmpty(t, result.Data.Procedures)
	assert.NotEmpty(t, result.Data.Complications)

	dischargeSection, ok := result.Narrative[narrative.SectionDischargeDisposition]
	require.True(t, ok)
	assert.NotEmpty(t, dischargeSection.Text)

	for section := range narrative.CriticalSections {
		content, present := result.Narrative[section]
		assert.True(t, present, "missing critical section %s", section)
		assert.NotEmpty(t, content.Text)
	}

	assert.GreaterOrEqual(t, result.Quality.Overall, 0.0)
	assert.LessOrEqual(t, result.Quality.Overall, 100.0)

	require.NotNil(t, result.Telemetry)
	assert.NotEmpty(t, result.Telemetry.Stages)
	assert.Equal(t, 0, result.Telemetry.RefinementIterations, "UseLLM is false, refinement loop should not run")
}

func TestOrchestratorRun_EmptyInputRejected(t *testing.T) {
	o := newTestOrchestrator(t)

	result, err := o.Run(context.Background(), nil, Options{})
	assert.Nil(t, result)
	require.Error(t, err)
}

func TestOrchestratorRun_NoPathologyHintStillExtracts(t *testing.T) {
	o := newTestOrchestrator(t)

	result, err := o.Run(context.Background(), sahNotes(), Options{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Data.Procedures)
}

func TestResolve_OptionsOverrideDefaults(t *testing.T) {
	o := newTestOrchestrator(t)

	r := o.resolve(Options{})
	assert.Equal(t, narrative.StyleFormal, r.style)
	assert.False(t, r.useLLM)
	assert.Equal(t, 90, r.qualityTarget)
	assert.False(t, r.strictValidation)

	useLLM := true
	strict := true
	r = o.resolve(Options{
		Style:                   narrative.StyleConcise,
		UseLLM:                  &useLLM,
		QualityTarget:           95,
		MaxRefinementIterations: 1,
		DeadlineMs:              2000,
		ProviderOrder:           []string{"openai"},
		StrictValidation:        &strict,
	})
	assert.Equal(t, narrative.StyleConcise, r.style)
	assert.True(t, r.useLLM)
	assert.Equal(t, 95, r.qualityTarget)
	assert.Equal(t, 1, r.maxRefinementIterations)
	assert.Equal(t, 2000, r.deadlineMs)
	assert.Equal(t, []string{"openai"}, r.providerOrder)
	assert.True(t, r.strictValidation)
}
