// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Mock is a configurable Client for tests. It records every prompt so tests
// can assert both call counts (e.g. "the model was never invoked") and
// prompt contents. Responses can be fixed or keyed on a prompt substring.
type Mock struct {
	mu sync.Mutex

	// Response is returned when no keyword matches.
	Response string

	// KeywordResponses maps a prompt substring (case-insensitive) to a
	// response, checked before Response.
	KeywordResponses map[string]string

	// Err, when set, is returned from every call.
	Err error

	prompts []string
}

// Generate records the prompt and returns the configured response.
func (m *Mock) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)

	if m.Err != nil {
		return "", m.Err
	}

	lower := strings.ToLower(prompt)
	for keyword, response := range m.KeywordResponses {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return response, nil
		}
	}

	if m.Response == "" {
		return MockAnswer(types.RefusalAnswer, nil, "high"), nil
	}
	return m.Response, nil
}

// Calls returns how many times Generate was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of the recorded prompts.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// MockAnswer builds the JSON answer payload the explainer prompt asks for.
func MockAnswer(answer string, citations []string, confidence string) string {
	if citations == nil {
		citations = []string{}
	}
	b, _ := json.Marshal(map[string]any{
		"answer":     answer,
		"citations":  citations,
		"confidence": confidence,
	})
	return string(b)
}

// MockComposition builds the JSON composition payload the composer prompt
// asks for.
func MockComposition(sentences []types.Sentence) string {
	var parts []string
	for _, s := range sentences {
		parts = append(parts, s.Text+" ["+s.Citation+"]")
	}
	b, _ := json.Marshal(map[string]any{
		"composed_explanation": strings.Join(parts, " "),
		"sentences":            sentences,
	})
	return string(b)
}
