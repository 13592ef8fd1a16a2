// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/answer-engine/internal/jsonblock"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// technicalVocabulary lists the domain terms a composed sentence may only
// use when the evidence itself uses them. Ordinary words that also appear in
// concept extraction (key, value, query, layer, input, output) are exempt;
// rejecting those would fail nearly every faithful paraphrase.
var technicalVocabulary = map[string]bool{
	"adam":                  true,
	"backpropagation":       true,
	"beam search":           true,
	"bleu":                  true,
	"bleu score":            true,
	"convolution":           true,
	"convolutional":         true,
	"cross attention":       true,
	"cross-attention":       true,
	"cross-entropy":         true,
	"decoder":               true,
	"dot product":           true,
	"dot-product":           true,
	"dot-product attention": true,
	"dropout":               true,
	"embedding":             true,
	"embeddings":            true,
	"encoder":               true,
	"feed-forward":          true,
	"feedforward":           true,
	"ffn":                   true,
	"label smoothing":       true,
	"layer norm":            true,
	"layer normalization":   true,
	"layernorm":             true,
	"lstm":                  true,
	"multi-head":            true,
	"multi-head attention":  true,
	"multihead":             true,
	"perplexity":            true,
	"position encoding":     true,
	"positional encoding":   true,
	"recurrent":             true,
	"residual":              true,
	"residual connection":   true,
	"scaled dot-product":    true,
	"self attention":        true,
	"self-attention":        true,
	"softmax":               true,
	"transformer":           true,
	"warmup":                true,
}

// compositionPayload is the JSON contract the composer prompt asks the model
// to follow.
type compositionPayload struct {
	ComposedExplanation string           `json:"composed_explanation"`
	Sentences           []types.Sentence `json:"sentences"`
}

// Composition is a verified narrative. Passed is false when any sentence
// failed verification; the narrative is then withheld and Reason says why.
type Composition struct {
	Narrative string
	Sentences []types.Sentence
	Passed    bool
	Reason    string
}

// compose asks the model for a re-cited narrative over the evidence and then
// verifies every sentence against the evidence. With no evidence it returns
// a failed composition without calling the model. Model and parse failures
// propagate as errors.
func compose(ctx context.Context, client llm.Client, paragraphs []*types.Paragraph, equations []*types.Equation, groups []types.LinkedGroup, question string, extract ExtractorFunc) (Composition, error) {
	if len(paragraphs) == 0 {
		return Composition{Reason: "no evidence to compose from"}, nil
	}

	prompt, err := renderComposePrompt(paragraphs, equations, groups, question)
	if err != nil {
		return Composition{}, fmt.Errorf("rendering compose prompt: %w", err)
	}

	raw, err := client.Generate(ctx, prompt)
	if err != nil {
		return Composition{}, fmt.Errorf("composer: %w", err)
	}

	var payload compositionPayload
	if err := jsonblock.Unmarshal(raw, &payload); err != nil {
		return Composition{}, fmt.Errorf("composer: %w", err)
	}

	if reason := verifyComposition(payload.Sentences, paragraphs, equations, extract); reason != "" {
		return Composition{Sentences: payload.Sentences, Reason: reason}, nil
	}

	var parts []string
	for _, s := range payload.Sentences {
		parts = append(parts, fmt.Sprintf("%s [%s]", strings.TrimSpace(s.Text), s.Citation))
	}

	return Composition{
		Narrative: strings.Join(parts, " "),
		Sentences: payload.Sentences,
		Passed:    true,
		Reason:    "every sentence cites retrieved evidence and introduces no new entities",
	}, nil
}

// verifyComposition checks each sentence in order: it must carry exactly one
// citation, the citation must name retrieved evidence, and the sentence may
// not introduce variables or restricted technical terms absent from the
// evidence. The first violation is reported; an empty reason means the
// composition passed.
func verifyComposition(sentences []types.Sentence, paragraphs []*types.Paragraph, equations []*types.Equation, extract ExtractorFunc) string {
	if len(sentences) == 0 {
		return "composition contains no sentences"
	}

	known := make(map[string]bool)
	evidenceVars := make(map[string]bool)
	evidenceConcepts := make(map[string]bool)
	addEntities := func(e types.Entities) {
		for _, v := range e.Variables {
			evidenceVars[strings.ToLower(v)] = true
		}
		for _, c := range e.Concepts {
			evidenceConcepts[strings.ToLower(c)] = true
		}
	}
	for _, p := range paragraphs {
		known[p.ID] = true
		if p.Entities != nil {
			addEntities(*p.Entities)
		} else {
			addEntities(extract(p.Text))
		}
	}
	for _, eq := range equations {
		known[eq.ID] = true
		addEntities(extract(eq.EquationText))
	}

	for i, s := range sentences {
		if strings.TrimSpace(s.Citation) == "" {
			return fmt.Sprintf("sentence %d lacks a citation", i+1)
		}
		if !known[s.Citation] {
			return fmt.Sprintf("sentence %d has invalid citation %q", i+1, s.Citation)
		}

		found := extract(s.Text)
		for _, v := range found.Variables {
			if !evidenceVars[strings.ToLower(v)] {
				return fmt.Sprintf("sentence %d introduces variable %q not in evidence", i+1, v)
			}
		}
		for _, c := range found.Concepts {
			lc := strings.ToLower(c)
			if technicalVocabulary[lc] && !evidenceConcepts[lc] {
				return fmt.Sprintf("sentence %d introduces concept %q not in evidence", i+1, c)
			}
		}
	}
	return ""
}
