// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func readyEntry(id, title string) Entry {
	return Entry{
		ID:        id,
		Title:     title,
		Status:    StatusReady,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	doc := testDocument(t)

	require.NoError(t, s.SaveDocument(ctx, readyEntry("doc-1", "attention"), doc))

	entries, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "doc-1", e.ID)
	assert.Equal(t, StatusReady, e.Status)
	require.NotNil(t, e.doc)
	assert.Equal(t, 2, e.doc.ParagraphCount())
}

func TestStoreSaveDocumentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	doc := testDocument(t)
	entry := readyEntry("doc-1", "attention")

	require.NoError(t, s.SaveDocument(ctx, entry, doc))
	require.NoError(t, s.SaveDocument(ctx, entry, doc))

	entries, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	hits, err := s.SearchParagraphs(ctx, "attention", 10)
	require.NoError(t, err)
	// Re-saving replaces paragraphs instead of duplicating them.
	assert.Len(t, hits, 2)
}

func TestStoreSearchParagraphs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveDocument(ctx, readyEntry("doc-1", "attention"), testDocument(t)))

	hits, err := s.SearchParagraphs(ctx, "transformer", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].DocID)
	assert.Equal(t, "s1_p2", hits[0].ParagraphID)
	assert.Contains(t, hits[0].Snippet, "[transformer]")

	hits, err = s.SearchParagraphs(ctx, "quantum entanglement", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStoreSearchQuotesUserInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveDocument(ctx, readyEntry("doc-1", "attention"), testDocument(t)))

	// FTS5 operators in the query must not cause a syntax error.
	_, err := s.SearchParagraphs(ctx, `attention AND NOT ("self*`, 10)
	assert.NoError(t, err)

	hits, err := s.SearchParagraphs(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveDocument(ctx, readyEntry("doc-1", "attention"), testDocument(t)))

	require.NoError(t, s.Delete(ctx, "doc-1"))

	entries, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	hits, err := s.SearchParagraphs(ctx, "attention", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
