// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index keeps extracted tiddlers in a SQLite database with a
// full-text index over titles and bodies.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

const (
	dbFile         = "tiddlers.db"
	defaultResults = 20
)

// idNamespace scopes tiddler IDs so the same source and title always map
// to the same ID.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://tiddlywiki.com/tiddly-engine"))

// TiddlerID returns the stable ID of the tiddler titled title in source.
func TiddlerID(source, title string) string {
	return uuid.NewSHA1(idNamespace, []byte(source+"\x00"+title)).String()
}

// Store manages the tiddler index database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the index at cfg.IndexDir/tiddlers.db and
// creates the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultResults
	}

	s := &Store{db: db, dir: cfg.IndexDir, maxResults: maxResults}
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

// Dir returns the index directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tiddlers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL,
			created TEXT NOT NULL,
			modified TEXT,
			fields TEXT,
			content_hash TEXT NOT NULL,
			UNIQUE(source, title)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tiddlers_created ON tiddlers(created)`,
		`CREATE INDEX IF NOT EXISTS idx_tiddlers_type ON tiddlers(type)`,
		`CREATE TABLE IF NOT EXISTS tiddler_tags (
			tiddler_id TEXT NOT NULL REFERENCES tiddlers(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (tiddler_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tiddler_tags_tag ON tiddler_tags(tag)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			wiki_title TEXT,
			started_at TEXT NOT NULL,
			added INTEGER NOT NULL,
			updated INTEGER NOT NULL,
			unchanged INTEGER NOT NULL,
			removed INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='tiddlers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE tiddlers_fts USING fts5(title, content, content=tiddlers, content_rowid=rowid)`,
			`CREATE TRIGGER tiddlers_ai AFTER INSERT ON tiddlers BEGIN
				INSERT INTO tiddlers_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
			`CREATE TRIGGER tiddlers_ad AFTER DELETE ON tiddlers BEGIN
				INSERT INTO tiddlers_fts(tiddlers_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			END`,
			`CREATE TRIGGER tiddlers_au AFTER UPDATE ON tiddlers BEGIN
				INSERT INTO tiddlers_fts(tiddlers_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
				INSERT INTO tiddlers_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
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
