// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
package types

import "fmt"

// Entities holds the terms extracted from one piece of evidence.
// Variables keep their original case but are deduplicated case-insensitively;
// concepts are lowercased and deduplicated.
type Entities struct {
	// Variables are mathematical symbols found in the text (e.g. "Q", "d_k").
	Variables []string `json:"variables" yaml:"variables"`

	// Concepts are domain terms found in the text (e.g. "attention", "softmax").
	Concepts []string `json:"concepts" yaml:"concepts"`
}

// IsEmpty reports whether no entities were extracted.
func (e Entities) IsEmpty() bool {
	return len(e.Variables) == 0 && len(e.Concepts) == 0
}

// Paragraph is one addressable unit of prose evidence.
type Paragraph struct {
	// ID is the stable paragraph identifier (e.g. "s1_p2"). IDs share one
	// namespace with equation IDs within a document.
	ID string `json:"paragraph_id" yaml:"paragraph_id"`

	// Text is the raw paragraph text.
	Text string `json:"text" yaml:"text"`

	// Entities holds pre-computed entities, when ingestion annotated them.
	Entities *Entities `json:"entities,omitempty" yaml:"entities,omitempty"`

	// EquationIDs lists equations this paragraph references, in order.
	EquationIDs []string `json:"equation_ids,omitempty" yaml:"equation_ids,omitempty"`
}

// Section groups consecutive paragraphs under one heading.
type Section struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Paragraphs lists the section's paragraphs in document order.
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`
}

// Equation is a display equation lifted out of the document text.
// EquationText is verbatim source text and must never be normalized or
// reformatted; citation trust downstream assumes it is exactly what was
// sourced.
type Equation struct {
	// ID is the stable equation identifier (e.g. "eq1").
	ID string `json:"equation_id" yaml:"equation_id"`

	// EquationText is the verbatim equation text.
	EquationText string `json:"equation_text" yaml:"equation_text"`

	// AssociatedParagraphID identifies the paragraph the equation came from.
	AssociatedParagraphID string `json:"associated_paragraph_id" yaml:"associated_paragraph_id"`
}

// Document is an ingested document: ordered sections of paragraphs plus a
// flat list of equations. The ID index is built once at construction and the
// document is treated as read-only afterwards, so concurrent requests may
// share it without coordination.
type Document struct {
	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Sections lists the document sections in order.
	Sections []Section `json:"sections" yaml:"sections"`

	// Equations lists all equations extracted from the document.
	Equations []Equation `json:"equations,omitempty" yaml:"equations,omitempty"`

	paragraphsByID map[string]*Paragraph
	equationsByID  map[string]*Equation
}

// NewDocument builds a Document and its ID index. Paragraph and equation IDs
// share one namespace; any duplicate is a fatal ingestion error and no
// partially-valid document is returned.
func NewDocument(title string, sections []Section, equations []Equation) (*Document, error) {
	d := &Document{
		Title:     title,
		Sections:  sections,
		Equations: equations,
	}
	if err := d.Reindex(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reindex rebuilds the ID index, enforcing ID uniqueness across paragraphs
// and equations. Call after unmarshaling a Document from storage.
func (d *Document) Reindex() error {
	paragraphs := make(map[string]*Paragraph)
	equations := make(map[string]*Equation)

	for si := range d.Sections {
		sec := &d.Sections[si]
		for pi := range sec.Paragraphs {
			p := &sec.Paragraphs[pi]
			if p.ID == "" {
				return fmt.Errorf("paragraph %d in section %q has empty ID", pi, sec.Title)
			}
			if _, ok := paragraphs[p.ID]; ok {
				return fmt.Errorf("duplicate paragraph ID %q", p.ID)
			}
			paragraphs[p.ID] = p
		}
	}

	for ei := range d.Equations {
		eq := &d.Equations[ei]
		if eq.ID == "" {
			return fmt.Errorf("equation %d has empty ID", ei)
		}
		if _, ok := paragraphs[eq.ID]; ok {
			return fmt.Errorf("equation ID %q collides with a paragraph ID", eq.ID)
		}
		if _, ok := equations[eq.ID]; ok {
			return fmt.Errorf("duplicate equation ID %q", eq.ID)
		}
		equations[eq.ID] = eq
	}

	d.paragraphsByID = paragraphs
	d.equationsByID = equations
	return nil
}

// Paragraph returns the paragraph with the given ID, if present.
func (d *Document) Paragraph(id string) (*Paragraph, bool) {
	p, ok := d.paragraphsByID[id]
	return p, ok
}

// Paragraphs resolves IDs to paragraphs, preserving the given order and
// silently skipping unknown IDs.
func (d *Document) Paragraphs(ids []string) []*Paragraph {
	var out []*Paragraph
	for _, id := range ids {
		if p, ok := d.paragraphsByID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Equation returns the equation with the given ID, if present.
func (d *Document) Equation(id string) (*Equation, bool) {
	eq, ok := d.equationsByID[id]
	return eq, ok
}

// EquationsForParagraphs gathers equations for the given paragraph IDs from
// two sources: equations whose associated paragraph is in the set, and
// equations listed in a paragraph's reference list. Results are deduplicated
// by equation ID in first-seen order.
func (d *Document) EquationsForParagraphs(ids []string) []*Equation {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	seen := make(map[string]bool)
	var out []*Equation

	for ei := range d.Equations {
		eq := &d.Equations[ei]
		if idSet[eq.AssociatedParagraphID] && !seen[eq.ID] {
			seen[eq.ID] = true
			out = append(out, eq)
		}
	}

	for _, pid := range ids {
		p, ok := d.paragraphsByID[pid]
		if !ok {
			continue
		}
		for _, eqID := range p.EquationIDs {
			eq, ok := d.equationsByID[eqID]
			if !ok || seen[eq.ID] {
				continue
			}
			seen[eq.ID] = true
			out = append(out, eq)
		}
	}

	return out
}

// AllParagraphs returns every paragraph in document order.
func (d *Document) AllParagraphs() []*Paragraph {
	var out []*Paragraph
	for si := range d.Sections {
		sec := &d.Sections[si]
		for pi := range sec.Paragraphs {
			out = append(out, &sec.Paragraphs[pi])
		}
	}
	return out
}

// ParagraphIDs returns every paragraph ID in document order.
func (d *Document) ParagraphIDs() []string {
	var ids []string
	for _, p := range d.AllParagraphs() {
		ids = append(ids, p.ID)
	}
	return ids
}

// ParagraphCount returns the total number of paragraphs.
func (d *Document) ParagraphCount() int {
	n := 0
	for _, sec := range d.Sections {
		n += len(sec.Paragraphs)
	}
	return n
}
