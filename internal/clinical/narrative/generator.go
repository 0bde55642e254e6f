// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package narrative

import (
	"context"

	"github.com/ramihatou97/DCS-sub001/internal/clinical/knowledge"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/llmgateway"
	"github.com/ramihatou97/DCS-sub001/internal/clinical/note"
)

// Generator produces a Narrative from a frozen ExtractedData, preferring
// LLM-mode section synthesis and falling back to the deterministic
// template when the Gateway is unavailable or its output cannot be
// parsed (§4.9), grounded on the Gateway's own provider-fallback shape:
// try the preferred path, degrade to a guaranteed-to-succeed one rather
// than fail the whole request.
type Generator struct {
	gateway *llmgateway.Gateway
	pack    *knowledge.Pack
}

// New binds a Generator to a Gateway (nil disables LLM mode entirely,
// running every section through the template fallback) and the
// pathology pack whose conventions and canonical names inform prompts
// and templates.
func New(gateway *llmgateway.Gateway, pack *knowledge.Pack) *Generator {
	return &Generator{gateway: gateway, pack: pack}
}

// Generate builds every section in SectionOrder, each seeing the
// sections already produced before it (§4.9 "cross-section
// consistency"). data must be frozen — the Generator only reads it.
// style is spec.md §6's per-request narrative tone option; an empty
// style is treated as StyleFormal.
func (g *Generator) Generate(ctx context.Context, data *note.ExtractedData, style Style) Narrative {
	if style == "" {
		style = StyleFormal
	}
	out := make(Narrative, len(SectionOrder))
	for _, section := range SectionOrder {
		content := g.generateSection(ctx, section, data, out, style)
		out[section] = content
	}
	var surgeryDate *note.Date
	if d, ok := data.DateValue(note.DateSurgery); ok {
		surgeryDate = &d
	}
	ApplyStyleToNarrative(out, surgeryDate)
	return out
}

func (g *Generator) generateSection(ctx context.Context, section Section, data *note.ExtractedData, prior Narrative, style Style) SectionContent {
	if g.gateway != nil && sectionHasData(section, data) {
		if text, ok := g.tryLLM(ctx, section, data, prior, style); ok {
			return SectionContent{Text: text, Origin: OriginLLM}
		}
	}
	return SectionContent{Text: BuildTemplate(section, data, g.pack, style), Origin: OriginTemplate}
}

// tryLLM runs the LLM-mode path for one section: one initial attempt,
// one retry with a stricter prompt on a malformed response, per
// §4-FULL.H. Any Gateway failure (including LLMUnavailable) falls
// straight through to the template, which is always available.
func (g *Generator) tryLLM(ctx context.Context, section Section, data *note.ExtractedData, prior Narrative, style Style) (string, bool) {
	prompt := BuildPrompt(section, data, g.pack, prior, style)
	text, err := g.complete(ctx, prompt)
	if err != nil {
		return "", false
	}
	if parsed, ok := g.parseWithCorrection(section, text); ok {
		return parsed, true
	}
	retryPrompt := buildRetryPrompt(prompt, "missing or empty \"text\" field")
	text, err = g.complete(ctx, retryPrompt)
	if err != nil {
		return "", false
	}
	if parsed, ok := g.parseWithCorrection(section, text); ok {
		return parsed, true
	}
	return "", false
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.gateway.Complete(ctx, llmgateway.Request{
		Prompt: prompt,
		Task:   llmgateway.TaskNarrateSection,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// parseWithCorrection tries a direct parse, then one sjson-patched
// correction of a drifted "section" field before giving up.
func (g *Generator) parseWithCorrection(section Section, responseText string) (string, bool) {
	if text, err := parseSectionResponse(responseText); err == nil {
		return text, true
	}
	if fixed, err := correctSectionName(responseText, section); err == nil {
		if text, perr := parseSectionResponse(fixed); perr == nil {
			return text, true
		}
	}
	return "", false
}

// sectionHasData reports whether a section has any extracted entity to
// draw on, so the Generator skips an LLM round trip that could only
// ever produce filler for an empty section and goes straight to the
// guaranteed notDocumented template output.
func sectionHasData(section Section, data *note.ExtractedData) bool {
	switch section {
	case SectionDemographics:
		return data.Demographic != nil
	case SectionPrincipalDiagnosis, SectionSecondaryDiagnoses, SectionChiefComplaint:
		return data.PrimaryPathology != "" || hasData(data.Diagnoses)
	case SectionHistoryOfPresentIllness:
		_, ok := data.DateValue(note.DateAdmission)
		return ok || data.PrimaryPathology != ""
	case SectionHospitalCourse:
		return hasData(data.Procedures) || hasData(data.Complications) || hasData(data.FunctionalScores)
	case SectionProcedures:
		return hasData(data.Procedures)
	case SectionComplications:
		return hasData(data.Complications)
	case SectionConsultations:
		return hasData(data.Consultations)
	case SectionDischargeStatus:
		return hasData(data.FunctionalScores) || hasData(data.NeuroExams)
	case SectionDischargeMedications:
		return hasData(data.MedicationsDischarge)
	case SectionDischargeDisposition:
		_, ok := data.Disposition()
		return ok
	case SectionFollowUpPlan:
		return hasData(data.FollowUp)
	default:
		return false
	}
}
