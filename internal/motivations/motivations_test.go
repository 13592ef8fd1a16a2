// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package motivations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantCount   int
		wantTrigger string
	}{
		{
			name:        "in order to",
			text:        "We scale the dot products in order to counteract small gradients.",
			wantCount:   1,
			wantTrigger: "in order to",
		},
		{
			name:        "because",
			text:        "We chose this design because it reduces computation.",
			wantCount:   1,
			wantTrigger: "because",
		},
		{
			name:        "since as reason",
			text:        "We normalize since it stabilizes training.",
			wantCount:   1,
			wantTrigger: "since",
		},
		{
			name:      "since as date is not a motivation",
			text:      "This approach has been standard since 2014.",
			wantCount: 0,
		},
		{
			name:      "no trigger",
			text:      "The model has six layers.",
			wantCount: 0,
		},
		{
			name:      "one per triggering sentence",
			text:      "We use dropout to avoid overfitting. We also use warmup because it helps.",
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromText(tt.text)
			require.Len(t, got, tt.wantCount)
			if tt.wantCount == 1 {
				assert.Equal(t, tt.wantTrigger, got[0].TriggerPhrase)
				assert.NotEmpty(t, got[0].FullSentence)
			}
		})
	}
}

func TestHas(t *testing.T) {
	assert.True(t, Has("We mask future positions to prevent leftward information flow."))
	assert.False(t, Has("The encoder has six identical layers."))
}

func newMotivationDoc(t *testing.T) *types.Document {
	t.Helper()
	doc, err := types.NewDocument("t", []types.Section{
		{
			Title: "Model",
			Paragraphs: []types.Paragraph{
				{ID: "s1_p1", Text: "We employ residual connections in order to ease optimization."},
				{ID: "s1_p2", Text: "The decoder also has six layers."},
			},
		},
	}, nil)
	require.NoError(t, err)
	return doc
}

func TestForDocument(t *testing.T) {
	doc := newMotivationDoc(t)
	got := ForDocument(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "s1_p1", got[0].ParagraphID)
	assert.Equal(t, "in order to", got[0].TriggerPhrase)
}

func TestSearch(t *testing.T) {
	doc := newMotivationDoc(t)
	assert.Len(t, Search(doc, "residual"), 1)
	assert.Empty(t, Search(doc, "quantum"))
	assert.Nil(t, Search(doc, "  "))
}

func TestSummary(t *testing.T) {
	doc := newMotivationDoc(t)
	counts := Summary(doc)
	assert.Equal(t, 1, counts["in order to"])
}
