// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entities extracts variables and domain concepts from evidence text
// using deterministic keyword and pattern heuristics. The extractor is a pure
// function of its input: same text, same entities, no model calls.
package entities

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// variablePatterns match mathematical notation common in ML papers:
// subscripted dimensions (d_k, d_model), single-letter matrices (Q, K, V),
// projection weights (W^Q, W_1), head and layer indices, and PE.
var variablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(d_(?:k|v|model|ff))\b`),
	regexp.MustCompile(`\b([QKVWXYZ])\b`),
	regexp.MustCompile(`\b(W(?:\^[QKVO]|_[io0-9])+)\b`),
	regexp.MustCompile(`(?i)\b(head_?[i0-9]*)\b`),
	regexp.MustCompile(`\b(PE)\b`),
	regexp.MustCompile(`(?i)\b(layer_[0-9]+)\b`),
	// Contextual single letters: "n" as sequence length, "h" as head count.
	regexp.MustCompile(`\b(n)\s*(?:[,.)]|is\b|are\b|represents?\b)`),
	regexp.MustCompile(`\b(h)\s*(?:heads?\b|=|,)`),
}

// conceptKeywords is the domain vocabulary recognized as concepts. Multi-word
// phrases are matched longest-first so "bleu score" wins over "bleu".
var conceptKeywords = []string{
	// Attention mechanisms.
	"attention", "self-attention", "self attention", "multi-head attention",
	"multi-head", "multihead", "scaled dot-product", "dot-product attention",
	"cross-attention", "cross attention",

	// Architecture components.
	"transformer", "encoder", "decoder", "layer", "sublayer", "sub-layer",
	"embedding", "embeddings", "positional encoding", "position encoding",
	"feed-forward", "feedforward", "ffn", "residual connection", "residual",
	"layer normalization", "layer norm", "layernorm", "dropout",
	"lstm", "recurrent", "convolutional",

	// Operations.
	"softmax", "linear projection", "projection", "concatenation", "concat",
	"matrix multiplication", "dot product", "weighted sum",

	// Training.
	"training", "inference", "regularization", "label smoothing",
	"learning rate", "warmup", "optimizer", "adam", "loss", "cross-entropy",

	// Evaluation.
	"bleu score", "bleu", "perplexity", "accuracy", "f1", "precision", "recall",

	// Data.
	"sequence", "token", "tokens", "vocabulary", "batch size", "batch",
	"input", "output", "query", "key", "value", "mask", "padding",
}

var conceptRegex = buildConceptRegex()

func buildConceptRegex() *regexp.Regexp {
	keywords := make([]string, len(conceptKeywords))
	copy(keywords, conceptKeywords)
	// Longest first so phrase matches beat their substrings.
	sort.Slice(keywords, func(i, j int) bool { return len(keywords[i]) > len(keywords[j]) })

	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Variables extracts mathematical variables from text. Original case is kept
// but duplicates are removed case-insensitively, preserving first-seen order.
func Variables(text string) []string {
	var found []string
	seen := make(map[string]bool)

	for _, pat := range variablePatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			v := strings.TrimSpace(m[1])
			if v == "" {
				continue
			}
			lower := strings.ToLower(v)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			found = append(found, v)
		}
	}

	return found
}

// Concepts extracts domain concepts from text, lowercased and deduplicated
// in first-seen order.
func Concepts(text string) []string {
	var found []string
	seen := make(map[string]bool)

	for _, m := range conceptRegex.FindAllString(text, -1) {
		c := strings.ToLower(strings.TrimSpace(m))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		found = append(found, c)
	}

	return found
}

// Extract runs both extractors over the text.
func Extract(text string) types.Entities {
	return types.Entities{
		Variables: Variables(text),
		Concepts:  Concepts(text),
	}
}

// AnnotateDocument extracts entities for every paragraph that does not
// already carry pre-computed ones. The document is modified in place; call
// during ingestion, before the document becomes read-only.
func AnnotateDocument(doc *types.Document) {
	for si := range doc.Sections {
		sec := &doc.Sections[si]
		for pi := range sec.Paragraphs {
			p := &sec.Paragraphs[pi]
			if p.Entities == nil {
				e := Extract(p.Text)
				p.Entities = &e
			}
		}
	}
}

// DocumentVariables returns the unique variables across all annotated
// paragraphs, in first-occurrence order.
func DocumentVariables(doc *types.Document) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range doc.AllParagraphs() {
		if p.Entities == nil {
			continue
		}
		for _, v := range p.Entities.Variables {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// DocumentConcepts returns the unique concepts across all annotated
// paragraphs, in first-occurrence order.
func DocumentConcepts(doc *types.Document) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range doc.AllParagraphs() {
		if p.Entities == nil {
			continue
		}
		for _, c := range p.Entities.Concepts {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
