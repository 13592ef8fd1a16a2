// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/answer-engine/internal/entities"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// EvidenceStore is the read-only document surface the pipeline needs.
// *types.Document satisfies it.
type EvidenceStore interface {
	Paragraphs(ids []string) []*types.Paragraph
	EquationsForParagraphs(ids []string) []*types.Equation
	AllParagraphs() []*types.Paragraph
}

// ExtractorFunc extracts entities from a unit of evidence text.
type ExtractorFunc func(text string) types.Entities

// Pipeline answers questions about one or more documents. It holds only
// injected collaborators and per-deployment settings; all per-request state
// lives in State, so a single Pipeline is safe for concurrent use.
type Pipeline struct {
	client  llm.Client
	extract ExtractorFunc
}

// New builds a pipeline around a model client. A nil extractor falls back to
// the deterministic heuristic extractor.
func New(client llm.Client, extract ExtractorFunc) (*Pipeline, error) {
	if client == nil {
		return nil, fmt.Errorf("model client required")
	}
	if extract == nil {
		extract = entities.Extract
	}
	return &Pipeline{client: client, extract: extract}, nil
}

// Request carries one question through the pipeline.
type Request struct {
	Question string

	// EvidenceIDs, when set, bypass planner selection. Caller-supplied
	// evidence caps confidence at low.
	EvidenceIDs []string

	// Compose additionally runs the narrative composer, at the cost of a
	// second model call.
	Compose bool

	// Debug attaches stage reasoning to the answer.
	Debug bool
}

// Answer runs every stage in order and returns the verified answer. The
// returned error is reserved for infrastructure failures (model transport,
// unparseable model output, bad input); a refusal is a normal answer, never
// an error.
func (p *Pipeline) Answer(ctx context.Context, doc EvidenceStore, req Request) (types.Answer, error) {
	state, err := NewState(req.Question, req.EvidenceIDs, req.Debug)
	if err != nil {
		return types.Answer{}, err
	}

	state.CandidateIDs, state.AutoSelected, state.PlannerReason = plan(doc, state.Question, state.ExplicitIDs)
	state.Paragraphs, state.Equations = retrieve(doc, state.CandidateIDs)

	state.Draft, state.RawModelText, err = explain(ctx, p.client, state.Paragraphs, state.Equations, state.Question)
	if err != nil {
		return types.Answer{}, err
	}

	verdict := verify(state.Draft, state.EvidenceIDs(), state.AutoSelected)
	state.Answer = verdict.Answer
	state.Citations = verdict.Citations
	state.Confidence = verdict.Confidence
	state.VerificationPassed = verdict.Passed
	state.VerifierReason = verdict.Reason

	state.LinkedGroups = link(state.Paragraphs, state.Equations, p.extract)

	if req.Compose {
		comp, err := compose(ctx, p.client, state.Paragraphs, state.Equations, state.LinkedGroups, state.Question, p.extract)
		if err != nil {
			return types.Answer{}, err
		}
		state.ComposerPassed = comp.Passed
		state.ComposerReason = comp.Reason
		if comp.Passed {
			state.Narrative = comp.Narrative
			state.Sentences = comp.Sentences
		}
	}

	return p.result(state), nil
}

// result assembles the caller-facing answer from final state. Debug output
// carries stage reasoning but never raw model text.
func (p *Pipeline) result(state *State) types.Answer {
	answer := types.Answer{
		Answer:     state.Answer,
		Citations:  state.Citations,
		Confidence: state.Confidence,
		Narrative:  state.Narrative,
		Sentences:  state.Sentences,
	}
	if state.Debug {
		answer.Debug = &types.Debug{
			PlannerReason:  state.PlannerReason,
			VerifierReason: state.VerifierReason,
			ComposerReason: state.ComposerReason,
			EvidenceLinks:  state.LinkedGroups,
		}
	}
	return answer
}
