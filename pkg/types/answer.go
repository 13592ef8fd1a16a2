// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RefusalAnswer is the canonical answer returned when the evidence cannot
// support a grounded answer. Callers compare answers against this exact
// string; it is a deliberate fixed value, never a paraphrase.
const RefusalAnswer = "Not defined in the paper"

// Confidence is the system-derived confidence attached to an answer. It is
// computed solely by the verifier; the model's self-reported confidence is
// never trusted.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// LinkedGroup is one connected component of evidence units that share at
// least one entity. Shared variables and concepts are those occurring in at
// least two members of the group.
type LinkedGroup struct {
	// SourceIDs are the member evidence IDs, sorted.
	SourceIDs []string `json:"source_ids" yaml:"source_ids"`

	// SharedVariables are variables occurring in two or more members, sorted.
	SharedVariables []string `json:"shared_variables" yaml:"shared_variables"`

	// SharedConcepts are concepts occurring in two or more members, sorted.
	SharedConcepts []string `json:"shared_concepts" yaml:"shared_concepts"`
}

// Sentence is one unit of a composed narrative, citing exactly one evidence ID.
type Sentence struct {
	// Text is the sentence text.
	Text string `json:"text" yaml:"text"`

	// Citation is the single evidence ID supporting the sentence.
	Citation string `json:"citation" yaml:"citation"`
}

// Debug carries the sanitized introspection fields exposed when a caller
// requests debug output. Raw prompts, raw model messages, and internal state
// are never included.
type Debug struct {
	// PlannerReason explains how candidate evidence was selected.
	PlannerReason string `json:"planner_reason,omitempty" yaml:"planner_reason,omitempty"`

	// VerifierReason explains the verification outcome.
	VerifierReason string `json:"verifier_reason,omitempty" yaml:"verifier_reason,omitempty"`

	// ComposerReason explains the composition outcome, when composition ran.
	ComposerReason string `json:"composer_reason,omitempty" yaml:"composer_reason,omitempty"`

	// EvidenceLinks is a citation-only rendering of the linked groups.
	EvidenceLinks []LinkedGroup `json:"evidence_links,omitempty" yaml:"evidence_links,omitempty"`
}

// Answer is the result of one grounded-answer pipeline invocation.
type Answer struct {
	// Answer is the answer text, or RefusalAnswer when the evidence was
	// insufficient or verification failed.
	Answer string `json:"answer" yaml:"answer"`

	// Citations are the evidence IDs supporting the answer. Always a subset
	// of the IDs actually supplied to the model.
	Citations []string `json:"citations" yaml:"citations"`

	// Confidence is the system-derived confidence.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// Narrative is the composed, sentence-verified explanation, when
	// composition was requested and passed verification.
	Narrative string `json:"narrative,omitempty" yaml:"narrative,omitempty"`

	// Sentences are the verified narrative sentences with their citations.
	Sentences []Sentence `json:"sentences,omitempty" yaml:"sentences,omitempty"`

	// Debug is present only when the caller requested debug output.
	Debug *Debug `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// IsRefusal reports whether the answer is the canonical refusal.
func (a Answer) IsRefusal() bool {
	return a.Answer == RefusalAnswer
}
