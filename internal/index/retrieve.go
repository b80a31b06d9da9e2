// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/tiddly-engine/internal/tiddler"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// ErrNotFound is returned by Get when no tiddler matches.
var ErrNotFound = errors.New("tiddler not found")

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over title and content.
	Query string

	// Tags filters by one or more tags with AND semantics.
	Tags []string

	// Type filters by tiddler MIME type.
	Type string

	// Source restricts results to one ingested wiki.
	Source string

	// CreatedFrom and CreatedTo bound the creation time as [from, to).
	// Zero values leave that side open.
	CreatedFrom time.Time
	CreatedTo   time.Time

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && len(q.Tags) == 0 && q.Type == "" && q.Source == "" &&
		q.CreatedFrom.IsZero() && q.CreatedTo.IsZero()
}

// QueryResult is an indexed tiddler with its origin and, for full-text
// queries, a highlighted snippet of the body.
type QueryResult struct {
	ID            string `json:"id" yaml:"id"`
	Source        string `json:"source" yaml:"source"`
	types.Tiddler `yaml:",inline"`
	Snippet       string  `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Rank          float64 `json:"-" yaml:"-"`
}

const selectColumns = `t.id, t.source, t.title, t.content, t.type, t.created, t.modified, t.fields,
	(SELECT json_group_array(tag) FROM
		(SELECT tag FROM tiddler_tags WHERE tiddler_id = t.id ORDER BY position)) AS tags`

// Retrieve queries the index with optional full-text search and structured
// filters. Full-text results are ranked by relevance; otherwise results are
// in creation order.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(`SELECT ` + selectColumns + `,
				snippet(tiddlers_fts, 1, '[', ']', '…', 12), tiddlers_fts.rank
			FROM tiddlers_fts
			JOIN tiddlers t ON t.rowid = tiddlers_fts.rowid
			WHERE tiddlers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + selectColumns + `, '' AS snippet, 0 AS rank
			FROM tiddlers t
			WHERE 1=1`)
	}

	if opts.Type != "" {
		qb.WriteString(` AND t.type = ?`)
		args = append(args, opts.Type)
	}
	if opts.Source != "" {
		qb.WriteString(` AND t.source = ?`)
		args = append(args, opts.Source)
	}
	if !opts.CreatedFrom.IsZero() {
		qb.WriteString(` AND t.created >= ?`)
		args = append(args, tiddler.FormatTimestamp(opts.CreatedFrom))
	}
	if !opts.CreatedTo.IsZero() {
		qb.WriteString(` AND t.created < ?`)
		args = append(args, tiddler.FormatTimestamp(opts.CreatedTo))
	}
	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM tiddler_tags tt WHERE tt.tiddler_id = t.id AND tt.tag = ?)`)
		args = append(args, tag)
	}

	if useFTS {
		qb.WriteString(` ORDER BY tiddlers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY t.created, t.title`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		qr, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// Get returns the tiddler titled title. When source is empty the most
// recently created match across all sources is returned.
func (s *Store) Get(ctx context.Context, source, title string) (QueryResult, error) {
	query := `SELECT ` + selectColumns + `, '' AS snippet, 0 AS rank
		FROM tiddlers t WHERE t.title = ?`
	args := []any{title}
	if source != "" {
		query += ` AND t.source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY t.created DESC LIMIT 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return QueryResult{}, fmt.Errorf("looking up %q: %w", title, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return QueryResult{}, err
		}
		return QueryResult{}, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	return scanResult(rows)
}

func scanResult(rows *sql.Rows) (QueryResult, error) {
	var (
		qr         QueryResult
		created    string
		modified   sql.NullString
		fieldsJSON sql.NullString
		tagsJSON   sql.NullString
	)
	if err := rows.Scan(
		&qr.ID, &qr.Source, &qr.Title, &qr.Content, &qr.Type, &created, &modified,
		&fieldsJSON, &tagsJSON, &qr.Snippet, &qr.Rank,
	); err != nil {
		return qr, fmt.Errorf("scanning row: %w", err)
	}

	var err error
	if qr.Created, err = tiddler.ParseTimestamp(created); err != nil {
		return qr, fmt.Errorf("tiddler %q: stored created: %w", qr.Title, err)
	}
	if modified.Valid && modified.String != "" {
		if qr.Modified, err = tiddler.ParseTimestamp(modified.String); err != nil {
			return qr, fmt.Errorf("tiddler %q: stored modified: %w", qr.Title, err)
		}
	}

	qr.Tags = []string{}
	if tagsJSON.Valid {
		if err := json.Unmarshal([]byte(tagsJSON.String), &qr.Tags); err != nil {
			return qr, fmt.Errorf("tiddler %q: stored tags: %w", qr.Title, err)
		}
	}
	qr.Fields = map[string]string{}
	if fieldsJSON.Valid && fieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &qr.Fields); err != nil {
			return qr, fmt.Errorf("tiddler %q: stored fields: %w", qr.Title, err)
		}
	}
	if qr.Fields == nil {
		qr.Fields = map[string]string{}
	}
	return qr, nil
}
