// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/answer-engine/internal/jsonblock"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// explainPayload is the JSON contract the explainer prompt asks the model
// to follow.
type explainPayload struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence string   `json:"confidence"`
}

// explain produces a draft answer for the question over the retrieved
// evidence. With no evidence it refuses immediately and never calls the
// model. Citations the model invents are dropped here; the verifier then
// judges what remains. Model and parse failures propagate as errors and are
// never turned into refusals.
func explain(ctx context.Context, client llm.Client, paragraphs []*types.Paragraph, equations []*types.Equation, question string) (Draft, string, error) {
	if len(paragraphs) == 0 {
		return Draft{Answer: types.RefusalAnswer, ModelConfidence: "low"}, "", nil
	}

	prompt, err := renderExplainPrompt(paragraphs, equations, question)
	if err != nil {
		return Draft{}, "", fmt.Errorf("rendering explain prompt: %w", err)
	}

	raw, err := client.Generate(ctx, prompt)
	if err != nil {
		return Draft{}, "", fmt.Errorf("explainer: %w", err)
	}

	var payload explainPayload
	if err := jsonblock.Unmarshal(raw, &payload); err != nil {
		return Draft{}, raw, fmt.Errorf("explainer: %w", err)
	}

	if payload.Answer == "" {
		payload.Answer = types.RefusalAnswer
	}

	supplied := make(map[string]bool, len(paragraphs)+len(equations))
	for _, p := range paragraphs {
		supplied[p.ID] = true
	}
	for _, eq := range equations {
		supplied[eq.ID] = true
	}

	var citations []string
	for _, c := range payload.Citations {
		if supplied[c] {
			citations = append(citations, c)
		}
	}

	return Draft{
		Answer:          payload.Answer,
		Citations:       citations,
		ModelConfidence: payload.Confidence,
	}, raw, nil
}
