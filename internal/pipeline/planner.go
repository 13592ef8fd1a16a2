// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// maxCandidates caps how many paragraphs the planner selects per question.
const maxCandidates = 10

// stopwords are excluded from question keyword extraction.
var stopwords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "are": true,
	"as": true, "at": true, "be": true, "been": true, "being": true,
	"but": true, "by": true, "can": true, "could": true, "did": true,
	"do": true, "does": true, "explain": true, "for": true, "from": true,
	"had": true, "has": true, "have": true, "how": true, "in": true,
	"into": true, "is": true, "it": true, "its": true, "may": true,
	"me": true, "might": true, "must": true, "no": true, "not": true,
	"of": true, "on": true, "or": true, "paper": true, "say": true,
	"says": true, "shall": true, "should": true, "tell": true,
	"that": true, "the": true, "their": true, "them": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "who": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true,
}

// tokenize lowercases text and splits it into alphanumeric runs of length
// two or more.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// questionKeywords extracts the non-stopword keyword set of a question.
func questionKeywords(question string) map[string]bool {
	keywords := make(map[string]bool)
	for _, tok := range tokenize(question) {
		if !stopwords[tok] {
			keywords[tok] = true
		}
	}
	return keywords
}

// plan selects candidate evidence paragraph IDs for the question. When the
// caller supplied explicit IDs those are used verbatim and autoSelected is
// false, which later caps confidence at low. Otherwise paragraphs are scored
// by keyword overlap with the question, sorted by descending score with
// document position breaking ties, and capped at maxCandidates. A question
// with no keyword overlap selects nothing; the refusal then happens
// downstream without a model call.
func plan(doc EvidenceStore, question string, explicitIDs []string) (ids []string, autoSelected bool, reason string) {
	if len(explicitIDs) > 0 {
		return explicitIDs, false, fmt.Sprintf("using %d caller-supplied evidence IDs", len(explicitIDs))
	}

	keywords := questionKeywords(question)
	if len(keywords) == 0 {
		return nil, true, "question contains no searchable keywords"
	}

	type scored struct {
		id       string
		score    int
		position int
	}
	var candidates []scored
	for i, p := range doc.AllParagraphs() {
		score := 0
		for _, tok := range tokenize(p.Text) {
			if keywords[tok] {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{id: p.ID, score: score, position: i})
		}
	}

	if len(candidates) == 0 {
		return nil, true, "no paragraphs overlap the question keywords"
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].position < candidates[j].position
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	for _, c := range candidates {
		ids = append(ids, c.id)
	}
	return ids, true, fmt.Sprintf("selected %d paragraphs by keyword overlap", len(ids))
}

// retrieve resolves candidate IDs into paragraph and equation evidence.
// Unknown IDs are skipped, order is preserved, and equations associated with
// or referenced by the retrieved paragraphs come along.
func retrieve(doc EvidenceStore, candidateIDs []string) ([]*types.Paragraph, []*types.Equation) {
	paragraphs := doc.Paragraphs(candidateIDs)
	ids := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		ids = append(ids, p.ID)
	}
	return paragraphs, doc.EquationsForParagraphs(ids)
}
