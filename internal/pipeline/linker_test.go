// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/internal/entities"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestLinkParagraphAndEquation(t *testing.T) {
	doc := attentionDoc(t)
	paragraphs := doc.Paragraphs([]string{"s2_p1"})
	equations := doc.EquationsForParagraphs([]string{"s2_p1"})

	groups := link(paragraphs, equations, entities.Extract)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, []string{"eq1", "s2_p1"}, g.SourceIDs)
	assert.Subset(t, g.SharedVariables, []string{"K", "Q", "V", "d_k"})
	assert.Subset(t, g.SharedConcepts, []string{"attention", "softmax"})
}

func TestLinkSharedMeansTwoMembersNotAll(t *testing.T) {
	// a and b share x; b and c share y. All three form one group, and both x
	// and y are shared even though neither occurs in every member.
	extract := func(text string) types.Entities {
		switch text {
		case "a":
			return types.Entities{Variables: []string{"x"}}
		case "b":
			return types.Entities{Variables: []string{"x", "y"}}
		default:
			return types.Entities{Variables: []string{"y"}}
		}
	}
	paragraphs := []*types.Paragraph{
		{ID: "p_a", Text: "a"},
		{ID: "p_b", Text: "b"},
		{ID: "p_c", Text: "c"},
	}

	groups := link(paragraphs, nil, extract)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"p_a", "p_b", "p_c"}, groups[0].SourceIDs)
	assert.Equal(t, []string{"x", "y"}, groups[0].SharedVariables)
}

func TestLinkOmitsSingletons(t *testing.T) {
	extract := func(text string) types.Entities {
		if text == "alpha" {
			return types.Entities{Concepts: []string{"alpha"}}
		}
		return types.Entities{Concepts: []string{"beta"}}
	}
	paragraphs := []*types.Paragraph{
		{ID: "p1", Text: "alpha"},
		{ID: "p2", Text: "beta"},
	}

	assert.Empty(t, link(paragraphs, nil, extract))
}

func TestLinkSingleUnit(t *testing.T) {
	paragraphs := []*types.Paragraph{{ID: "p1", Text: "attention and softmax"}}
	assert.Empty(t, link(paragraphs, nil, entities.Extract))
}

func TestLinkPrefersAnnotatedEntities(t *testing.T) {
	calls := 0
	extract := func(text string) types.Entities {
		calls++
		return types.Entities{}
	}
	annotated := &types.Entities{Variables: []string{"Q"}}
	paragraphs := []*types.Paragraph{
		{ID: "p1", Text: "irrelevant", Entities: annotated},
		{ID: "p2", Text: "irrelevant", Entities: annotated},
	}

	groups := link(paragraphs, nil, extract)
	require.Len(t, groups, 1)
	assert.Equal(t, 0, calls, "annotated paragraphs must not be re-extracted")
}
