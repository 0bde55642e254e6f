// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package llmgateway

import (
	"fmt"
	"regexp"
	"strings"
)

// minResponseLength is the task-specific minimum acceptable response
// length (§4.3 rule b).
var minResponseLength = map[Task]int{
	TaskExtract:        20,
	TaskNarrateSection: 15,
	TaskRefine:         10,
	TaskValidate:       5,
}

// abruptEndingPatterns flag a response that appears cut off mid-thought,
// grounded on the teacher's cascade.QualitySignalDetector abrupt-ending
// regex table (internal/intelligence/cascade/quality_signals.go).
var abruptEndingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\.\.$`),
	regexp.MustCompile(`(?i)(?:and|but|or|so|then)\s*$`),
	regexp.MustCompile(`(?i)(?:the|a|an|this|that)\s*$`),
	regexp.MustCompile(`(?i)(?:is|are|was|were|be)\s*$`),
}

var truncationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[(?:truncated|cut off|continued)\]`),
	regexp.MustCompile(`(?i)(?:output|response) (?:truncated|limit)`),
	regexp.MustCompile(`(?i)(?:maximum|max) (?:length|tokens?) (?:reached|exceeded)`),
}

// Validate rejects output that is empty, shorter than the task minimum,
// ends with an ellipsis or mid-token, or lacks the structural markers
// required by the task (§4.3 rules a-d).
func Validate(task Task, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("empty response")
	}
	if min, ok := minResponseLength[task]; ok && len(trimmed) < min {
		return fmt.Errorf("response shorter than minimum (%d < %d)", len(trimmed), min)
	}
	for _, re := range abruptEndingPatterns {
		if re.MatchString(trimmed) {
			return fmt.Errorf("response appears to end abruptly")
		}
	}
	for _, re := range truncationPatterns {
		if re.MatchString(trimmed) {
			return fmt.Errorf("response indicates truncation")
		}
	}
	if err := checkStructuralMarkers(task, trimmed); err != nil {
		return err
	}
	return nil
}

func checkStructuralMarkers(task Task, text string) error {
	switch task {
	case TaskExtract, TaskRefine, TaskValidate:
		if !strings.Contains(text, "{") {
			return fmt.Errorf("missing JSON opener for %s task", task)
		}
	case TaskNarrateSection:
		// A narrative section must contain at least one sentence-ending
		// punctuation mark; a bare fragment is not acceptable prose.
		if !strings.ContainsAny(text, ".!?") {
			return fmt.Errorf("missing section content for narrate task")
		}
	}
	return nil
}
