// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/tiddly-engine/internal/tiddler"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// IngestSummary holds counts from one ingest run.
type IngestSummary struct {
	RunID     string
	Added     int
	Updated   int
	Unchanged int
	Removed   int
}

// Total returns the number of tiddlers seen in the source.
func (s IngestSummary) Total() int {
	return s.Added + s.Updated + s.Unchanged
}

// Changed reports whether the run modified the index.
func (s IngestSummary) Changed() bool {
	return s.Added > 0 || s.Updated > 0 || s.Removed > 0
}

// contentHash fingerprints every stored attribute of t.
func contentHash(t types.Tiddler) string {
	data, _ := json.Marshal(struct {
		Title, Content, Type, Created, Modified string
		Tags                                    []string
		Fields                                  map[string]string
	}{
		t.Title, t.Content, t.Type,
		tiddler.FormatTimestamp(t.Created), formatOptional(t.Modified),
		t.Tags, t.Fields,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func formatOptional(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return tiddler.FormatTimestamp(ts)
}

// Ingest makes the index hold exactly the tiddlers of seq for source. It
// adds new titles, rewrites changed ones, and removes titles no longer
// present. Per-tiddler progress goes to w. The run is one transaction.
func (s *Store) Ingest(ctx context.Context, source, wikiTitle string, seq iter.Seq[types.Tiddler], w io.Writer) (IngestSummary, error) {
	summary := IngestSummary{RunID: uuid.NewString()}
	started := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool)
	for t := range seq {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		id := TiddlerID(source, t.Title)
		if seen[id] {
			continue
		}
		seen[id] = true

		hash := contentHash(t)
		var stored string
		err := tx.QueryRowContext(ctx, `SELECT content_hash FROM tiddlers WHERE id = ?`, id).Scan(&stored)
		switch {
		case err == nil && stored == hash:
			summary.Unchanged++
			continue
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return summary, fmt.Errorf("looking up %q: %w", t.Title, err)
		}
		exists := err == nil

		if err := upsert(ctx, tx, id, source, hash, t); err != nil {
			return summary, err
		}
		if exists {
			fmt.Fprintf(w, "updated %s\n", t.Title)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "added   %s\n", t.Title)
			summary.Added++
		}
	}

	removed, err := removeMissing(ctx, tx, source, seen, w)
	if err != nil {
		return summary, err
	}
	summary.Removed = removed

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, wiki_title, started_at, added, updated, unchanged, removed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, source, wikiTitle, started.Format(time.RFC3339Nano),
		summary.Added, summary.Updated, summary.Unchanged, summary.Removed,
	)
	if err != nil {
		return summary, fmt.Errorf("recording ingest run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing ingest: %w", err)
	}

	fmt.Fprintf(w, "\nadded: %d, updated: %d, unchanged: %d, removed: %d\n",
		summary.Added, summary.Updated, summary.Unchanged, summary.Removed)
	return summary, nil
}

func upsert(ctx context.Context, tx *sql.Tx, id, source, hash string, t types.Tiddler) error {
	fieldsJSON, _ := json.Marshal(t.Fields)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tiddlers (id, source, title, content, type, created, modified, fields, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, type=excluded.type, created=excluded.created,
			modified=excluded.modified, fields=excluded.fields, content_hash=excluded.content_hash`,
		id, source, t.Title, t.Content, t.Type,
		tiddler.FormatTimestamp(t.Created), formatOptional(t.Modified),
		string(fieldsJSON), hash,
	)
	if err != nil {
		return fmt.Errorf("upserting %q: %w", t.Title, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tiddler_tags WHERE tiddler_id = ?`, id); err != nil {
		return fmt.Errorf("clearing tags of %q: %w", t.Title, err)
	}
	for i, tag := range t.Tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tiddler_tags (tiddler_id, tag, position) VALUES (?, ?, ?)`,
			id, tag, i)
		if err != nil {
			return fmt.Errorf("tagging %q: %w", t.Title, err)
		}
	}
	return nil
}

func removeMissing(ctx context.Context, tx *sql.Tx, source string, seen map[string]bool, w io.Writer) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, title FROM tiddlers WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("listing indexed tiddlers: %w", err)
	}
	type stale struct{ id, title string }
	var gone []stale
	for rows.Next() {
		var st stale
		if err := rows.Scan(&st.id, &st.title); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning row: %w", err)
		}
		if !seen[st.id] {
			gone = append(gone, st)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, st := range gone {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tiddlers WHERE id = ?`, st.id); err != nil {
			return 0, fmt.Errorf("removing %q: %w", st.title, err)
		}
		fmt.Fprintf(w, "removed %s\n", st.title)
	}
	return len(gone), nil
}
