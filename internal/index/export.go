// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tiddly-engine/internal/tiddler"
)

// ExportEntry is the flat record written to export files. Timestamps keep
// the 17-digit wiki format.
type ExportEntry struct {
	ID       string            `json:"id" yaml:"id"`
	Source   string            `json:"source" yaml:"source"`
	Title    string            `json:"title" yaml:"title"`
	Type     string            `json:"type" yaml:"type"`
	Created  string            `json:"created" yaml:"created"`
	Modified string            `json:"modified,omitempty" yaml:"modified,omitempty"`
	Tags     []string          `json:"tags" yaml:"tags"`
	Fields   map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Content  string            `json:"content" yaml:"content"`
}

const exportLimit = 1_000_000

// ExportYAML writes matching tiddlers to <index-dir>/export.yaml and
// returns the path. It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes matching tiddlers to <index-dir>/export.json and
// returns the path. It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ID:      r.ID,
			Source:  r.Source,
			Title:   r.Title,
			Type:    r.Type,
			Created: tiddler.FormatTimestamp(r.Created),
			Tags:    r.Tags,
			Content: r.Content,
		}
		if r.HasModified() {
			entries[i].Modified = tiddler.FormatTimestamp(r.Modified)
		}
		if len(r.Fields) > 0 {
			entries[i].Fields = r.Fields
		}
	}
	return entries, nil
}
