// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/tiddly-engine/internal/convert"
	"github.com/pdiddy/tiddly-engine/internal/wiki"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// tiddlerSeparator goes between tiddlers in a compiled document.
const tiddlerSeparator = "\n\n---\n\n---\n\n"

// BatchResult holds the outcome of a per-tiddler export run.
type BatchResult struct {
	Exported int
	Skipped  int
	Failed   int
}

// Total returns the number of tiddlers processed.
func (r BatchResult) Total() int {
	return r.Exported + r.Skipped + r.Failed
}

// HasFailures reports whether any tiddler failed to export.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// CompileResult describes a compiled document.
type CompileResult struct {
	Path     string
	Included []string
	Excluded []string
}

// Exporter writes tiddlers through a converter.
type Exporter struct {
	Converter convert.Converter
	Config    types.ExportConfig
	Log       logrus.FieldLogger

	// OnConvert, if set, observes the outcome of every conversion.
	OnConvert func(error)

	// Now stamps compiled documents; defaults to time.Now.
	Now func() time.Time
}

func (e *Exporter) format() string {
	if e.Config.Format == "" {
		return convert.FormatMarkdown
	}
	return e.Config.Format
}

func (e *Exporter) workers(n int) int {
	w := e.Config.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return max(1, min(w, n))
}

func (e *Exporter) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

func (e *Exporter) observe(err error) {
	if e.OnConvert != nil {
		e.OnConvert(err)
	}
}

type outcome struct {
	index int
	doc   string
	err   error
}

// convertAll renders every tiddler to format on a bounded worker pool and
// returns the outcomes in input order.
func (e *Exporter) convertAll(ctx context.Context, ts []types.Tiddler, format string, skip []bool) []outcome {
	p := pool.NewWithResults[outcome]().WithMaxGoroutines(e.workers(len(ts)))
	for i, t := range ts {
		if skip != nil && skip[i] {
			continue
		}
		p.Go(func() outcome {
			doc, err := Document(ctx, e.Converter, t, format)
			e.observe(err)
			return outcome{index: i, doc: doc, err: err}
		})
	}
	results := p.Wait()
	slices.SortFunc(results, func(a, b outcome) int { return cmp.Compare(a.index, b.index) })
	return results
}

// Tiddlers writes one file per tiddler into the output directory, named
// after the title slug. Existing files are skipped. Per-file status goes to
// w and a summary is returned.
func (e *Exporter) Tiddlers(ctx context.Context, ts []types.Tiddler, w io.Writer) (BatchResult, error) {
	var result BatchResult
	format := e.format()
	if err := os.MkdirAll(e.Config.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory: %w", err)
	}

	names := uniqueSlugs(ts)
	paths := make([]string, len(ts))
	skip := make([]bool, len(ts))
	for i, name := range names {
		paths[i] = filepath.Join(e.Config.OutputDir, name+convert.Extension(format))
		if _, err := os.Stat(paths[i]); err == nil {
			skip[i] = true
		}
	}

	outcomes := e.convertAll(ctx, ts, format, skip)
	byIndex := make(map[int]outcome, len(outcomes))
	for _, o := range outcomes {
		byIndex[o.index] = o
	}

	for i, t := range ts {
		name := filepath.Base(paths[i])
		if skip[i] {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
			result.Skipped++
			continue
		}
		o := byIndex[i]
		if o.err == nil {
			o.err = os.WriteFile(paths[i], []byte(o.doc), 0o644)
		}
		if o.err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, o.err)
			e.log().WithError(o.err).WithField("title", t.Title).Warn("export failed")
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "exported: %s\n", name)
		result.Exported++
	}

	fmt.Fprintf(w, "\nBatch summary: %d exported, %d skipped, %d failed (total: %d)\n",
		result.Exported, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// Sort orders tiddlers in place by key. Modified falls back to created for
// tiddlers never modified. Ties keep their wiki order.
func Sort(ts []types.Tiddler, key types.SortKey) {
	slices.SortStableFunc(ts, func(a, b types.Tiddler) int {
		switch key {
		case types.SortTitle:
			return strings.Compare(a.Title, b.Title)
		case types.SortModified:
			return lastChange(a).Compare(lastChange(b))
		default:
			return a.Created.Compare(b.Created)
		}
	})
}

func lastChange(t types.Tiddler) time.Time {
	if t.HasModified() {
		return t.Modified
	}
	return t.Created
}

// titleBlock renders a pandoc title block.
func titleBlock(title, subtitle string, date time.Time) string {
	return fmt.Sprintf("%% %s\n%% %s\n%% %s\n\n", title, subtitle, date.Format(time.DateOnly))
}

// Compile writes ts as one document at path, preceded by a title block
// from wk. For formats other than Markdown each tiddler is converted on its
// own first; tiddlers that fail are left out and listed in the result.
func (e *Exporter) Compile(ctx context.Context, wk *wiki.Wiki, ts []types.Tiddler, path string, w io.Writer) (CompileResult, error) {
	result := CompileResult{Path: path}
	format := e.format()
	ts = slices.Clone(ts)
	Sort(ts, e.Config.SortBy)

	safe := ts
	if format != convert.FormatMarkdown {
		safe = nil
		for _, o := range e.convertAll(ctx, ts, format, nil) {
			t := ts[o.index]
			if o.err != nil {
				e.log().WithError(o.err).WithField("title", t.Title).Warn("left out of compiled document")
				result.Excluded = append(result.Excluded, t.Title)
				continue
			}
			safe = append(safe, t)
		}
	}

	parts := make([]string, 0, len(safe))
	for _, t := range safe {
		md, err := Markdown(ctx, e.Converter, t)
		if err != nil {
			result.Excluded = append(result.Excluded, t.Title)
			continue
		}
		parts = append(parts, md)
		result.Included = append(result.Included, t.Title)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	doc := titleBlock(wk.Title, wk.Subtitle, now()) + strings.Join(parts, tiddlerSeparator)

	out, err := fromMarkdown(ctx, e.Converter, doc, format)
	if format != convert.FormatMarkdown {
		e.observe(err)
	}
	if err != nil {
		return result, fmt.Errorf("compiling %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return result, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return result, fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(w, "compiled: %s (%d of %d tiddlers)\n", path, len(result.Included), len(ts))
	if len(result.Excluded) > 0 {
		fmt.Fprintln(w, "left out after conversion errors:")
		for _, title := range result.Excluded {
			fmt.Fprintf(w, "\t%s\n", title)
		}
	}
	return result, nil
}

// CompilePath returns the default path of a compiled document for wk.
func CompilePath(dir string, wk *wiki.Wiki, format string) string {
	name := "wiki"
	if wk.Title != "" {
		name = Slug(wk.Title)
	}
	return filepath.Join(dir, name+convert.Extension(format))
}
