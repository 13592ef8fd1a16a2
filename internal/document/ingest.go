// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document ingests plain-text or Markdown files into the
// Document → Section → Paragraph structure used by the answer pipeline.
// Ingestion assigns stable IDs, lifts display equations out of the prose,
// and annotates paragraphs with entities. The returned document is
// validated atomically: duplicate IDs abort ingestion with no partial
// document.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/answer-engine/internal/entities"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// minParagraphLength merges shorter fragments into the preceding paragraph.
const minParagraphLength = 50

// sectionHeaderPatterns match common academic section headings: numbered
// ("3.2 Attention"), all-caps ("ABSTRACT"), and short title case.
var sectionHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d+\.?\d*\.?\s+[A-Z][A-Za-z\s-]+)$`),
	regexp.MustCompile(`^([A-Z][A-Z\s]{2,30})$`),
	regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,4})$`),
}

var markdownHeading = regexp.MustCompile(`^#{1,4}\s+(.+)$`)

// mathSymbols marks a text segment as equation-like when combined with "=".
const mathSymbols = "√∑Σ∏^_"

// SplitParagraphs splits raw text into paragraph strings on blank lines,
// collapsing internal whitespace and merging fragments shorter than
// minParagraphLength into the previous paragraph.
func SplitParagraphs(text string) []string {
	raw := regexp.MustCompile(`\n\s*\n`).Split(text, -1)

	var paragraphs []string
	current := ""

	for _, para := range raw {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		if len(para) < minParagraphLength && current != "" {
			// Keep section headings intact; merge other short fragments.
			if _, ok := DetectSectionHeader(para); !ok {
				current = current + " " + para
				continue
			}
		}
		if current != "" {
			paragraphs = append(paragraphs, current)
		}
		current = para
	}
	if current != "" {
		paragraphs = append(paragraphs, current)
	}

	return paragraphs
}

// DetectSectionHeader reports whether the text looks like a section heading
// and returns the heading title. Markdown headings are recognized directly;
// otherwise short numbered, all-caps, or title-case lines qualify.
func DetectSectionHeader(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if m := markdownHeading.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	// Headings are short.
	if len(text) > 100 {
		return "", false
	}

	for _, pat := range sectionHeaderPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// findEquations returns equation-like segments of a paragraph: sentence
// segments containing "=" together with function notation or math symbols.
// The matched text is preserved verbatim.
func findEquations(text string) []string {
	var out []string
	for _, seg := range splitEquationSegments(text) {
		seg = strings.TrimSpace(seg)
		if seg == "" || len(seg) > 200 || !strings.Contains(seg, "=") {
			continue
		}
		if looksLikeEquation(seg) {
			out = append(out, seg)
		}
	}
	return out
}

var functionForm = regexp.MustCompile(`\b\w+\([^)]*\)\s*=`)

func looksLikeEquation(seg string) bool {
	if functionForm.MatchString(seg) {
		return true
	}
	return strings.ContainsAny(seg, mathSymbols)
}

// splitEquationSegments breaks a paragraph on semicolons and sentence ends
// so each candidate segment holds at most one equation.
func splitEquationSegments(text string) []string {
	return regexp.MustCompile(`[;]|\.\s+`).Split(text, -1)
}

// ParseText parses raw text into a validated Document. Section and
// paragraph indices are 1-based in the IDs ("s2_p1"); equations are numbered
// document-wide ("eq1") and linked to their source paragraph both ways.
func ParseText(title, raw string) (*types.Document, error) {
	paragraphs := SplitParagraphs(raw)

	var sections []types.Section
	var equations []types.Equation

	currentTitle := "Document Start"
	var currentParagraphs []types.Paragraph
	sectionIndex := 0
	paragraphIndex := 0
	equationCount := 0

	flush := func() {
		if len(currentParagraphs) > 0 {
			sections = append(sections, types.Section{
				Title:      currentTitle,
				Paragraphs: currentParagraphs,
			})
		}
	}

	for _, text := range paragraphs {
		if header, ok := DetectSectionHeader(text); ok {
			if len(currentParagraphs) > 0 {
				flush()
				currentParagraphs = nil
				sectionIndex++
				paragraphIndex = 0
			}
			currentTitle = header
			continue
		}

		paraID := fmt.Sprintf("s%d_p%d", sectionIndex+1, paragraphIndex+1)
		para := types.Paragraph{ID: paraID, Text: text}

		for _, eqText := range findEquations(text) {
			equationCount++
			eqID := fmt.Sprintf("eq%d", equationCount)
			equations = append(equations, types.Equation{
				ID:                    eqID,
				EquationText:          eqText,
				AssociatedParagraphID: paraID,
			})
			para.EquationIDs = append(para.EquationIDs, eqID)
		}

		currentParagraphs = append(currentParagraphs, para)
		paragraphIndex++
	}
	flush()

	if len(sections) == 0 {
		return nil, fmt.Errorf("ingesting %q: no paragraphs found", title)
	}

	doc, err := types.NewDocument(title, sections, equations)
	if err != nil {
		return nil, fmt.Errorf("ingesting %q: %w", title, err)
	}

	entities.AnnotateDocument(doc)
	return doc, nil
}

// ParseFile reads a .txt or .md file and parses it into a Document. The
// title defaults to the filename without extension.
func ParseFile(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	return ParseText(title, string(data))
}
