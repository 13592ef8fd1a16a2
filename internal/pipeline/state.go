// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline implements the grounded-answer pipeline: planner,
// retriever, explainer, verifier, evidence linker, and composer, executed
// strictly in sequence over one per-request State. The model's output is
// never trusted directly; the verifier re-checks every citation and derives
// the only confidence value callers ever see.
package pipeline

import (
	"fmt"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// State is the per-request workflow state. It is owned by exactly one
// pipeline invocation and never shared across requests. Each field group is
// written once, by its owning stage, in pipeline order.
type State struct {
	// Inputs, set at construction.
	Question    string
	ExplicitIDs []string
	Debug       bool

	// Planner outputs.
	CandidateIDs  []string
	AutoSelected  bool
	PlannerReason string

	// Retriever outputs.
	Paragraphs []*types.Paragraph
	Equations  []*types.Equation

	// Explainer outputs.
	Draft        Draft
	RawModelText string

	// Verifier outputs.
	Answer             string
	Citations          []string
	Confidence         types.Confidence
	VerificationPassed bool
	VerifierReason     string

	// Evidence linker outputs.
	LinkedGroups []types.LinkedGroup

	// Composer outputs.
	Narrative      string
	Sentences      []types.Sentence
	ComposerPassed bool
	ComposerReason string
}

// Draft is the explainer's parsed, citation-filtered model answer. The
// model-reported confidence is carried only until the verifier runs; it is
// never surfaced to callers.
type Draft struct {
	Answer          string
	Citations       []string
	ModelConfidence string
}

// NewState validates required inputs and builds an empty workflow state.
func NewState(question string, explicitIDs []string, debug bool) (*State, error) {
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	return &State{
		Question:    question,
		ExplicitIDs: explicitIDs,
		Debug:       debug,
	}, nil
}

// EvidenceIDs returns the IDs of all retrieved evidence units, paragraphs
// first, in retrieval order.
func (s *State) EvidenceIDs() []string {
	var ids []string
	for _, p := range s.Paragraphs {
		ids = append(ids, p.ID)
	}
	for _, eq := range s.Equations {
		ids = append(ids, eq.ID)
	}
	return ids
}
