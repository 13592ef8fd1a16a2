// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Status is a document's lifecycle state.
type Status string

const (
	StatusIngesting Status = "ingesting"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
)

var (
	// ErrNotFound indicates no document with the given ID exists.
	ErrNotFound = errors.New("document not found")

	// ErrNotReady indicates the document exists but is not queryable, either
	// because ingestion is still running or because it failed.
	ErrNotReady = errors.New("document not ready")
)

// Entry is one registered document.
type Entry struct {
	ID        string    `json:"doc_id" yaml:"doc_id"`
	Title     string    `json:"title" yaml:"title"`
	Status    Status    `json:"status" yaml:"status"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// ParagraphCount is populated for ready documents.
	ParagraphCount int `json:"paragraph_count,omitempty" yaml:"paragraph_count,omitempty"`

	doc *types.Document
}

// Registry is the in-memory document index, optionally backed by a Store.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	store   *Store
}

// New builds a registry. With a non-nil store, previously persisted
// documents are loaded so the registry survives restarts.
func New(ctx context.Context, store *Store) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*Entry),
		store:   store,
	}
	if store == nil {
		return r, nil
	}

	loaded, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading persisted documents: %w", err)
	}
	for _, e := range loaded {
		if e.doc != nil {
			e.ParagraphCount = e.doc.ParagraphCount()
		}
		r.entries[e.ID] = e
	}
	return r, nil
}

// Begin registers a new document in the ingesting state and returns its
// generated ID.
func (r *Registry) Begin(ctx context.Context, title string) (string, error) {
	e := &Entry{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    StatusIngesting,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveEntry(ctx, *e); err != nil {
			return "", err
		}
	}
	return e.ID, nil
}

// Complete transitions a document to ready and attaches its parsed form.
func (r *Registry) Complete(ctx context.Context, id string, doc *types.Document) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.Status = StatusReady
	e.Error = ""
	e.doc = doc
	e.ParagraphCount = doc.ParagraphCount()
	if e.Title == "" {
		e.Title = doc.Title
	}
	snapshot := *e
	r.mu.Unlock()

	if r.store != nil {
		return r.store.SaveDocument(ctx, snapshot, doc)
	}
	return nil
}

// Fail transitions a document to failed, recording the cause.
func (r *Registry) Fail(ctx context.Context, id string, cause error) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.Status = StatusFailed
	e.Error = cause.Error()
	snapshot := *e
	r.mu.Unlock()

	if r.store != nil {
		return r.store.SaveEntry(ctx, snapshot)
	}
	return nil
}

// Document returns the parsed document for a ready entry. An ingesting or
// failed entry yields ErrNotReady so callers can distinguish "try again
// later" from "no such document".
func (r *Registry) Document(id string) (*types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if e.Status != StatusReady || e.doc == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotReady, id, e.Status)
	}
	return e.doc, nil
}

// Get returns the lifecycle record for a document.
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *e, nil
}

// List returns all entries ordered by creation time, then ID.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// exportedDocument pairs a lifecycle record with its parsed document for
// YAML export.
type exportedDocument struct {
	Info     Entry           `yaml:"info"`
	Document *types.Document `yaml:"document,omitempty"`
}

// ExportYAML writes every registered document as YAML: lifecycle record
// plus, for ready documents, the full parsed structure.
func (r *Registry) ExportYAML(w io.Writer) error {
	var out []exportedDocument
	for _, e := range r.List() {
		d := exportedDocument{Info: e}
		if doc, err := r.Document(e.ID); err == nil {
			d.Document = doc
		}
		out = append(out, d)
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(map[string]any{"documents": out}); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// Delete removes a document from the registry and the store.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.entries, id)
	r.mu.Unlock()

	if r.store != nil {
		return r.store.Delete(ctx, id)
	}
	return nil
}
