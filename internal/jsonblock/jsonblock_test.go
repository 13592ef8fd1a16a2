// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jsonblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerPayload struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence string   `json:"confidence"`
}

func TestFind(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{
			name: "bare object",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "leading and trailing prose",
			text: `Here is the answer: {"a": 1} hope that helps`,
			want: `{"a": 1}`,
		},
		{
			name: "nested object with array",
			text: `x {"a": {"b": [1, 2, {"c": 3}]}} y`,
			want: `{"a": {"b": [1, 2, {"c": 3}]}}`,
		},
		{
			name: "braces inside strings ignored",
			text: `{"a": "curly } brace { soup"}`,
			want: `{"a": "curly } brace { soup"}`,
		},
		{
			name: "escaped quote does not end string",
			text: `{"a": "quote \" and } brace"}`,
			want: `{"a": "quote \" and } brace"}`,
		},
		{
			name:    "no opening brace",
			text:    "just prose, no object here",
			wantErr: ErrNoObject,
		},
		{
			name:    "truncated object",
			text:    `{"a": {"b": 1}`,
			wantErr: ErrUnterminated,
		},
		{
			name:    "empty input",
			text:    "",
			wantErr: ErrNoObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find(tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalDirect(t *testing.T) {
	var p answerPayload
	err := Unmarshal(`{"answer": "yes", "citations": ["p1"], "confidence": "high"}`, &p)
	require.NoError(t, err)
	assert.Equal(t, "yes", p.Answer)
	assert.Equal(t, []string{"p1"}, p.Citations)
}

func TestUnmarshalFencedBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "json fence",
			text: "Sure, here you go:\n```json\n{\"answer\": \"yes\", \"citations\": [\"p1\"], \"confidence\": \"low\"}\n```\n",
		},
		{
			name: "plain fence",
			text: "```\n{\"answer\": \"yes\", \"citations\": [\"p1\"], \"confidence\": \"low\"}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p answerPayload
			require.NoError(t, Unmarshal(tt.text, &p))
			assert.Equal(t, "yes", p.Answer)
		})
	}
}

func TestUnmarshalEmbeddedInProse(t *testing.T) {
	text := `Based on the evidence I can answer. {"answer": "Attention is a mechanism.", "citations": ["s1_p1", "eq1"], "confidence": "high"} Let me know if you need more.`

	var p answerPayload
	require.NoError(t, Unmarshal(text, &p))
	assert.Equal(t, "Attention is a mechanism.", p.Answer)
	assert.Equal(t, []string{"s1_p1", "eq1"}, p.Citations)
}

// Round-trip property: extraction from decorated text must produce the same
// logical object as parsing the object in isolation.
func TestUnmarshalRoundTrip(t *testing.T) {
	object := `{"answer": "A {tricky} \"answer\"", "citations": ["p1", "p2"], "confidence": "low"}`

	var want answerPayload
	require.NoError(t, Unmarshal(object, &want))

	decorations := []string{
		object,
		"prefix " + object,
		object + " suffix",
		"prefix " + object + " suffix",
		"```json\n" + object + "\n```",
	}

	for _, text := range decorations {
		var got answerPayload
		require.NoError(t, Unmarshal(text, &got))
		assert.Equal(t, want, got)
	}
}

func TestUnmarshalTruncatedIsUnterminated(t *testing.T) {
	var p answerPayload
	err := Unmarshal(`The answer is {"answer": "cut off`, &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnterminated)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestUnmarshalNoObject(t *testing.T) {
	var p answerPayload
	err := Unmarshal("no structured output at all", &p)
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestUnmarshalInvalidInteriorSurfacesParseError(t *testing.T) {
	// Balanced braces but not valid JSON.
	var p answerPayload
	err := Unmarshal("prose {not: valid json} prose", &p)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
