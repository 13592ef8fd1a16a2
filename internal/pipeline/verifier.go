// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Verdict is the verifier's full judgment of a draft. Confidence here is the
// only confidence value the system ever reports.
type Verdict struct {
	Answer     string
	Citations  []string
	Confidence types.Confidence
	Passed     bool
	Reason     string
}

// verify checks a draft against the evidence that was actually retrieved and
// derives the final answer and confidence. Two rules reject a draft:
//
// Rule A: a substantive (non-refusal) answer with no citations is replaced
// by the refusal answer.
//
// Rule B: any citation outside the retrieved evidence IDs rejects the draft
// the same way.
//
// Confidence is high only when citations are non-empty, verification passed,
// and the evidence was auto-selected by the planner. Refusals are always
// low. Verification is idempotent: a rejected draft re-verified yields the
// same answer, citations, and confidence.
func verify(draft Draft, evidenceIDs []string, autoSelected bool) Verdict {
	isRefusal := strings.TrimSpace(draft.Answer) == types.RefusalAnswer

	if !isRefusal && len(draft.Citations) == 0 {
		return Verdict{
			Answer:     types.RefusalAnswer,
			Confidence: types.ConfidenceLow,
			Reason:     "substantive answer has no citations",
		}
	}

	known := make(map[string]bool, len(evidenceIDs))
	for _, id := range evidenceIDs {
		known[id] = true
	}
	var invalid []string
	for _, c := range draft.Citations {
		if !known[c] {
			invalid = append(invalid, c)
		}
	}
	if len(invalid) > 0 {
		return Verdict{
			Answer:     types.RefusalAnswer,
			Confidence: types.ConfidenceLow,
			Reason:     fmt.Sprintf("citations outside retrieved evidence: %s", strings.Join(invalid, ", ")),
		}
	}

	v := Verdict{
		Answer:    draft.Answer,
		Citations: draft.Citations,
		Passed:    true,
	}
	switch {
	case isRefusal:
		v.Confidence = types.ConfidenceLow
		v.Reason = "refusal answers are always low confidence"
		v.Citations = nil
	case !autoSelected:
		v.Confidence = types.ConfidenceLow
		v.Reason = "evidence was caller-supplied, not auto-selected"
	default:
		v.Confidence = types.ConfidenceHigh
		v.Reason = "all citations resolve to auto-selected evidence"
	}
	return v
}
