// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// attentionDoc builds a small transformer-paper document used across the
// package tests.
func attentionDoc(t *testing.T) *types.Document {
	t.Helper()

	sections := []types.Section{
		{
			Title: "Introduction",
			Paragraphs: []types.Paragraph{
				{
					ID: "s1_p1",
					Text: "The dominant sequence transduction models are based on recurrent or " +
						"convolutional neural networks. Attention mechanisms allow modeling of " +
						"dependencies without regard to their distance.",
				},
				{
					ID: "s1_p2",
					Text: "An attention function maps a query and a set of key-value pairs to an " +
						"output. The output is computed as a weighted sum of the values, where the " +
						"weight assigned to each value is computed by scaled dot-product attention " +
						"over the query Q and key K.",
				},
			},
		},
		{
			Title: "Model Architecture",
			Paragraphs: []types.Paragraph{
				{
					ID: "s2_p1",
					Text: "In practice we compute the attention function on a set of queries " +
						"simultaneously, packed into a matrix Q. The keys and values are packed " +
						"into matrices K and V. A softmax function determines the weights on the " +
						"values, scaled by the dimension d_k.",
					EquationIDs: []string{"eq1"},
				},
			},
		},
	}
	equations := []types.Equation{
		{
			ID:                    "eq1",
			EquationText:          "Attention(Q, K, V) = softmax(QK^T / √d_k)V",
			AssociatedParagraphID: "s2_p1",
		},
	}

	doc, err := types.NewDocument("Attention Is All You Need", sections, equations)
	require.NoError(t, err)
	return doc
}

func newTestPipeline(t *testing.T, client llm.Client) *Pipeline {
	t.Helper()
	p, err := New(client, nil)
	require.NoError(t, err)
	return p
}

func TestAnswerRefusesWithoutModelCall(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{Response: llm.MockAnswer("should never be used", []string{"s1_p1"}, "high")}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is quantum computing?"})
	require.NoError(t, err)

	assert.True(t, got.IsRefusal())
	assert.Equal(t, types.ConfidenceLow, got.Confidence)
	assert.Empty(t, got.Citations)
	assert.Equal(t, 0, mock.Calls(), "no evidence means the model must not be consulted")
}

func TestAnswerGroundedHighConfidence(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{
		Response: llm.MockAnswer(
			"An attention function maps a query and key-value pairs to an output.",
			[]string{"s1_p2"}, "low"),
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?"})
	require.NoError(t, err)

	assert.False(t, got.IsRefusal())
	assert.Equal(t, []string{"s1_p2"}, got.Citations)
	// Verifier-derived, not the model's self-reported "low".
	assert.Equal(t, types.ConfidenceHigh, got.Confidence)
	assert.Equal(t, 1, mock.Calls())
}

func TestAnswerDropsInventedCitations(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{
		Response: llm.MockAnswer("Attention maps queries to outputs.", []string{"s1_p2", "s9_p9"}, "high"),
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1_p2"}, got.Citations)
	assert.Equal(t, types.ConfidenceHigh, got.Confidence)
}

func TestAnswerRejectsUncitedSubstantiveAnswer(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{
		Response: llm.MockAnswer("Attention maps queries to outputs.", []string{"s9_p9"}, "high"),
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?"})
	require.NoError(t, err)

	// The only citation was invented, so nothing supports the answer.
	assert.True(t, got.IsRefusal())
	assert.Equal(t, types.ConfidenceLow, got.Confidence)
	assert.Empty(t, got.Citations)
}

func TestAnswerExplicitEvidenceCapsConfidence(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{
		Response: llm.MockAnswer("Queries, keys, and values are packed into matrices.", []string{"s2_p1"}, "high"),
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{
		Question:    "How are queries packed?",
		EvidenceIDs: []string{"s2_p1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"s2_p1"}, got.Citations)
	assert.Equal(t, types.ConfidenceLow, got.Confidence)
}

func TestAnswerPropagatesModelErrors(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{Err: llm.ErrTimeout}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrTimeout)
	assert.Empty(t, got.Answer)
}

func TestAnswerParseFailureIsErrorNotRefusal(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{Response: "the model rambled and produced no JSON object at all"}
	p := newTestPipeline(t, mock)

	_, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), types.RefusalAnswer)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	doc := attentionDoc(t)
	p := newTestPipeline(t, &llm.Mock{})

	_, err := p.Answer(context.Background(), doc, Request{Question: ""})
	assert.Error(t, err)
}

func TestAnswerDebugOutput(t *testing.T) {
	doc := attentionDoc(t)
	mock := &llm.Mock{
		Response: llm.MockAnswer("Attention maps queries to outputs.", []string{"s1_p2"}, "high"),
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?", Debug: true})
	require.NoError(t, err)
	require.NotNil(t, got.Debug)
	assert.NotEmpty(t, got.Debug.PlannerReason)
	assert.NotEmpty(t, got.Debug.VerifierReason)

	got, err = p.Answer(context.Background(), doc, Request{Question: "What is attention?"})
	require.NoError(t, err)
	assert.Nil(t, got.Debug)
}

func TestAnswerWithComposition(t *testing.T) {
	doc := attentionDoc(t)
	sentences := []types.Sentence{
		{Text: "Attention maps queries to outputs using key-value pairs.", Citation: "s1_p2"},
		{Text: "A softmax function scaled by d_k determines the weights.", Citation: "s2_p1"},
	}
	mock := &llm.Mock{
		KeywordResponses: map[string]string{
			"grounded question answering": llm.MockAnswer(
				"Attention maps queries to outputs.", []string{"s1_p2"}, "high"),
			"grounded explanation composer": llm.MockComposition(sentences),
		},
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?", Compose: true})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.Calls())
	require.Len(t, got.Sentences, 2)
	assert.Contains(t, got.Narrative, "[s1_p2]")
	assert.Contains(t, got.Narrative, "[s2_p1]")
	assert.Equal(t, types.ConfidenceHigh, got.Confidence)
}

func TestAnswerWithheldNarrativeOnCompositionFailure(t *testing.T) {
	doc := attentionDoc(t)
	bad := []types.Sentence{
		{Text: "The model achieves a strong BLEU score on translation.", Citation: "s1_p2"},
	}
	mock := &llm.Mock{
		KeywordResponses: map[string]string{
			"grounded question answering": llm.MockAnswer(
				"Attention maps queries to outputs.", []string{"s1_p2"}, "high"),
			"grounded explanation composer": llm.MockComposition(bad),
		},
	}
	p := newTestPipeline(t, mock)

	got, err := p.Answer(context.Background(), doc, Request{Question: "What is attention?", Compose: true, Debug: true})
	require.NoError(t, err)

	assert.Empty(t, got.Narrative)
	assert.Empty(t, got.Sentences)
	require.NotNil(t, got.Debug)
	assert.Contains(t, got.Debug.ComposerReason, "bleu")
}
