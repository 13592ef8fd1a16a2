// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry tracks ingested documents, their lifecycle status, and
// their SQLite persistence. Questions are only ever answered against
// documents in the ready state.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const dbFile = "answers.db"

// Store persists documents and their paragraphs in SQLite, with an FTS5
// index over paragraph text.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at dataDir/answers.db, creating the
// schema if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			status TEXT NOT NULL,
			error TEXT,
			created_at TEXT NOT NULL,
			payload TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS paragraphs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			paragraph_id TEXT NOT NULL,
			section TEXT,
			text TEXT NOT NULL,
			UNIQUE(doc_id, paragraph_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_paragraphs_doc_id ON paragraphs(doc_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='paragraphs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE paragraphs_fts USING fts5(text, content=paragraphs, content_rowid=rowid)`,
			`CREATE TRIGGER paragraphs_ai AFTER INSERT ON paragraphs BEGIN
				INSERT INTO paragraphs_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER paragraphs_ad AFTER DELETE ON paragraphs BEGIN
				INSERT INTO paragraphs_fts(paragraphs_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER paragraphs_au AFTER UPDATE ON paragraphs BEGIN
				INSERT INTO paragraphs_fts(paragraphs_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO paragraphs_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveEntry upserts a document's lifecycle record without touching its
// payload or paragraphs.
func (s *Store) SaveEntry(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, status=excluded.status, error=excluded.error`,
		e.ID, e.Title, string(e.Status), e.Error, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving document record: %w", err)
	}
	return nil
}

// SaveDocument persists a ready document: its record, its serialized
// payload, and its paragraphs for full-text search.
func (s *Store) SaveDocument(ctx context.Context, e Entry, doc *types.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, status, error, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, status=excluded.status, error=excluded.error,
			payload=excluded.payload`,
		e.ID, e.Title, string(e.Status), e.Error,
		e.CreatedAt.UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraphs WHERE doc_id = ?`, e.ID); err != nil {
		return fmt.Errorf("deleting old paragraphs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO paragraphs (doc_id, paragraph_id, section, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range doc.Sections {
		for _, p := range sec.Paragraphs {
			if _, err := stmt.ExecContext(ctx, e.ID, p.ID, sec.Title, p.Text); err != nil {
				return fmt.Errorf("inserting paragraph %s: %w", p.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a document and its paragraphs. Paragraphs are deleted
// directly rather than via the foreign key cascade so the FTS sync triggers
// fire.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraphs WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("deleting paragraphs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return tx.Commit()
}

// LoadAll reads every persisted document record, rebuilding ready documents
// from their payloads. Records whose payload no longer parses are surfaced
// as failed rather than dropped.
func (s *Store) LoadAll(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, COALESCE(error, ''), created_at, COALESCE(payload, '')
		 FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var status, createdAt, payload string
		if err := rows.Scan(&e.ID, &e.Title, &status, &e.Error, &createdAt, &payload); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		e.Status = Status(status)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}

		if e.Status == StatusReady && payload != "" {
			var doc types.Document
			if err := json.Unmarshal([]byte(payload), &doc); err != nil {
				e.Status = StatusFailed
				e.Error = fmt.Sprintf("stored payload unreadable: %v", err)
			} else if err := doc.Reindex(); err != nil {
				e.Status = StatusFailed
				e.Error = fmt.Sprintf("stored payload invalid: %v", err)
			} else {
				e.doc = &doc
			}
		}

		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ParagraphHit is one full-text search result.
type ParagraphHit struct {
	DocID       string `json:"doc_id"`
	ParagraphID string `json:"paragraph_id"`
	Section     string `json:"section"`
	Snippet     string `json:"snippet"`
}

// SearchParagraphs runs a full-text query over all stored paragraphs,
// ranked by bm25.
func (s *Store) SearchParagraphs(ctx context.Context, query string, limit int) ([]ParagraphHit, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.doc_id, p.paragraph_id, COALESCE(p.section, ''),
			snippet(paragraphs_fts, 0, '[', ']', '...', 12)
		 FROM paragraphs_fts
		 JOIN paragraphs p ON p.rowid = paragraphs_fts.rowid
		 WHERE paragraphs_fts MATCH ?
		 ORDER BY bm25(paragraphs_fts)
		 LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching paragraphs: %w", err)
	}
	defer rows.Close()

	var hits []ParagraphHit
	for rows.Next() {
		var h ParagraphHit
		if err := rows.Scan(&h.DocID, &h.ParagraphID, &h.Section, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// buildFTSQuery quotes each alphanumeric token so user input cannot inject
// FTS5 query syntax.
func buildFTSQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}
