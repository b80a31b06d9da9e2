// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/pdiddy/tiddly-engine/internal/httputil"
	"github.com/pdiddy/tiddly-engine/internal/tiddler"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// ErrNotHTML is returned when a source does not look like an HTML or
// plain-text document.
var ErrNotHTML = errors.New("source is not an HTML document")

// IsURL reports whether source names an http or https resource.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Read returns the raw bytes of a wiki export from a file path or URL and
// checks that the content is textual.
func Read(ctx context.Context, source string, cfg types.FetchConfig) ([]byte, error) {
	var data []byte
	var err error
	if IsURL(source) {
		data, err = httputil.Fetch(ctx, source, cfg)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("reading %s: %w", source, err)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := checkContent(data); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return data, nil
}

func checkContent(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	m := mimetype.Detect(data)
	for ; m != nil; m = m.Parent() {
		if m.Is("text/html") || m.Is("text/plain") {
			return nil
		}
	}
	return fmt.Errorf("%w: detected %s", ErrNotHTML, mimetype.Detect(data).String())
}

// Load reads and parses the wiki at source. The scanner's hooks observe the
// blocks that were skipped.
func Load(ctx context.Context, source string, cfg types.FetchConfig, s tiddler.Scanner) (*Wiki, error) {
	data, err := Read(ctx, source, cfg)
	if err != nil {
		return nil, err
	}
	return ParseWith(s, string(data)), nil
}

// ExpandSources resolves each argument to a list of sources. URLs pass
// through; file patterns may use doublestar globs such as "wikis/**/*.html".
// A pattern that names an existing file is used as is. The result keeps
// argument order and drops duplicates.
func ExpandSources(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, p := range patterns {
		if IsURL(p) {
			add(p)
			continue
		}
		if _, err := os.Stat(p); err == nil {
			add(filepath.Clean(p))
			continue
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}
		slices.Sort(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
