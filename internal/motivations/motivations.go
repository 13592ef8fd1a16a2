// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package motivations finds explicit author motivations in document text.
// Only statements introduced by a recognized trigger phrase ("because",
// "in order to", "to address", ...) are extracted; nothing is inferred.
// Used to answer "why" questions about author decisions.
package motivations

import (
	"regexp"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Motivation is one explicitly stated author motivation.
type Motivation struct {
	// Text is the motivation statement, starting at the trigger phrase.
	Text string `json:"text" yaml:"text"`

	// TriggerPhrase is the phrase that introduced the motivation, lowercased.
	TriggerPhrase string `json:"trigger_phrase" yaml:"trigger_phrase"`

	// FullSentence is the complete sentence containing the motivation.
	FullSentence string `json:"full_sentence" yaml:"full_sentence"`

	// ParagraphID identifies the source paragraph, when known.
	ParagraphID string `json:"paragraph_id,omitempty" yaml:"paragraph_id,omitempty"`
}

// triggerAlternatives signal explicit motivation. Longer phrases come first
// so they win over their prefixes. "as" is deliberately absent: too many
// false positives ("as well as", "as a result").
var triggerAlternatives = []string{
	`in order to`, `so that`, `so as to`,
	`with the aim of`, `with the goal of`,
	`for the purpose of`, `with the purpose of`,
	`to enable`, `to allow`, `to achieve`, `to improve`, `to reduce`,
	`to avoid`, `to address`, `to solve`, `to overcome`, `to mitigate`,
	`to facilitate`, `to support`, `to counteract`, `to prevent`, `to ensure`,
	`to handle`, `to deal with`, `to cope with`,
	`because`, `due to`, `owing to`, `given that`,
	`the reason (?:is|being|for)`,
	`this is because`, `this allows`, `this enables`, `this ensures`,
	`this prevents`, `this helps`, `this makes`,
	`the advantage (?:is|of)`, `the benefit (?:is|of)`,
	`which allows`, `which enables`, `which ensures`, `which prevents`,
	`which helps`, `which makes`,
	`allowing`, `enabling`, `ensuring`, `preventing`,
	`rather than`, `instead of`,
	// "since" only as a reason, not a date ("since 2014").
	`since(?:\s+(?:it|they|this|these|the|we|our))`,
}

var triggerRegex = regexp.MustCompile(`(?i)\b(` + strings.Join(triggerAlternatives, `|`) + `)\b`)

var sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]?`)

// splitSentences breaks text into rough sentences on terminal punctuation.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRegex.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FromText extracts motivations from raw text, one per triggering sentence.
func FromText(text string) []Motivation {
	var out []Motivation
	for _, sentence := range splitSentences(text) {
		loc := triggerRegex.FindStringIndex(sentence)
		if loc == nil {
			continue
		}
		trigger := strings.ToLower(sentence[loc[0]:loc[1]])
		// Normalize the conditional "since" trigger to the bare word.
		if strings.HasPrefix(trigger, "since") {
			trigger = "since"
		}
		out = append(out, Motivation{
			Text:          strings.TrimRight(sentence[loc[0]:], ".!?"),
			TriggerPhrase: trigger,
			FullSentence:  sentence,
		})
	}
	return out
}

// Has reports whether the text contains at least one explicit motivation.
func Has(text string) bool {
	for _, sentence := range splitSentences(text) {
		if triggerRegex.MatchString(sentence) {
			return true
		}
	}
	return false
}

// ForParagraph extracts motivations from one paragraph, tagging each with
// the paragraph ID.
func ForParagraph(p *types.Paragraph) []Motivation {
	ms := FromText(p.Text)
	for i := range ms {
		ms[i].ParagraphID = p.ID
	}
	return ms
}

// ForDocument extracts motivations from every paragraph, in document order.
func ForDocument(doc *types.Document) []Motivation {
	var out []Motivation
	for _, p := range doc.AllParagraphs() {
		out = append(out, ForParagraph(p)...)
	}
	return out
}

// Search returns the document's motivations whose sentence contains the
// query, case-insensitively.
func Search(doc *types.Document, query string) []Motivation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []Motivation
	for _, m := range ForDocument(doc) {
		if strings.Contains(strings.ToLower(m.FullSentence), query) {
			out = append(out, m)
		}
	}
	return out
}

// Summary counts motivations per trigger phrase across the document.
func Summary(doc *types.Document) map[string]int {
	counts := make(map[string]int)
	for _, m := range ForDocument(doc) {
		counts[m.TriggerPhrase]++
	}
	return counts
}
