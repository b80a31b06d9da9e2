// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pdiddy/tiddly-engine/internal/convert"
	"github.com/pdiddy/tiddly-engine/internal/wiki"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// fakePandoc stands in for the container backend. It fails on any text
// containing FAIL and otherwise tags the output with the target format.
type fakePandoc struct {
	calls atomic.Int32
}

func (f *fakePandoc) Convert(_ context.Context, text, _, to string) (string, error) {
	f.calls.Add(1)
	if strings.Contains(text, "FAIL") {
		return "", errors.New("pandoc: exit status 43")
	}
	return "<" + to + ">" + html.UnescapeString(text), nil
}

func chain() (*convert.Chain, *fakePandoc) {
	p := &fakePandoc{}
	return &convert.Chain{Native: convert.NewNative(), Fallback: p}, p
}

func day(d int) time.Time {
	return time.Date(2018, 1, d, 12, 0, 0, 0, time.UTC)
}

func td(title string, created int, content string) types.Tiddler {
	return types.Tiddler{
		Title:   title,
		Content: content,
		Tags:    []string{},
		Created: day(created),
		Type:    types.DefaultTiddlerType,
		Fields:  map[string]string{},
	}
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

func TestRender(t *testing.T) {
	full := types.Tiddler{
		Title:    "a",
		Tags:     []string{"x", "multi word"},
		Created:  time.Date(2018, 1, 8, 22, 25, 50, 0, time.UTC),
		Modified: time.Date(2018, 1, 11, 17, 49, 22, 0, time.UTC),
	}
	assert.Equal(t,
		"# a\n**created**: 2018-01-08 22:25:50,  **last modified**: 2018-01-11 17:49:22\n\n**keywords**: x, multi word\n\n---\n\nhello\n",
		Render(full, "hello"))

	bare := types.Tiddler{Title: "b", Created: time.Date(2018, 1, 8, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "# b\n**created**: 2018-01-08 00:00:00\n\n---\n\nbody\n", Render(bare, "body"))
}

func TestMarkdown_ConvertsBodyByType(t *testing.T) {
	c, _ := chain()

	md, err := Markdown(context.Background(), c, td("w", 1, "''bold''"))
	require.NoError(t, err)
	assert.Contains(t, md, "__bold__")

	h := td("h", 1, "&lt;em&gt;hi&lt;/em&gt;")
	h.Type = "text/html"
	md, err = Markdown(context.Background(), c, h)
	require.NoError(t, err)
	assert.Contains(t, md, "_hi_")
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "café  ok", latin1("café ☕ ok"))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Journal 2018-02-15": "journal-2018-02-15",
		"  What? Why!  ":     "what-why",
		"Café Notes":         "café-notes",
		"$$$":                "tiddler",
		"":                   "tiddler",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestUniqueSlugs(t *testing.T) {
	got := uniqueSlugs([]types.Tiddler{{Title: "A b"}, {Title: "a-b"}, {Title: "a b!"}, {Title: "c"}})
	assert.Equal(t, []string{"a-b", "a-b-2", "a-b-3", "c"}, got)
}

func TestSort(t *testing.T) {
	a := td("b-title", 3, "")
	b := td("a-title", 1, "")
	b.Modified = day(5)
	c := td("c-title", 2, "")

	ts := []types.Tiddler{a, b, c}
	Sort(ts, types.SortCreated)
	assert.Equal(t, []string{"a-title", "c-title", "b-title"}, titles(ts))

	Sort(ts, types.SortTitle)
	assert.Equal(t, []string{"a-title", "b-title", "c-title"}, titles(ts))

	Sort(ts, types.SortModified)
	assert.Equal(t, []string{"c-title", "b-title", "a-title"}, titles(ts))

	Sort(ts, "")
	assert.Equal(t, []string{"a-title", "c-title", "b-title"}, titles(ts))
}

func titles(ts []types.Tiddler) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestTiddlers_Markdown(t *testing.T) {
	dir := t.TempDir()
	c, p := chain()
	log, _ := quietLogger()
	e := &Exporter{Converter: c, Config: types.ExportConfig{OutputDir: dir}, Log: log}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.md"), []byte("keep"), 0o644))

	var out bytes.Buffer
	result, err := e.Tiddlers(context.Background(), []types.Tiddler{
		td("First note", 1, "!Heading"),
		td("Existing", 2, "x"),
		td("Third", 3, "plain"),
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Exported: 2, Skipped: 1}, result)
	assert.False(t, result.HasFailures())
	assert.Equal(t, 3, result.Total())
	assert.Zero(t, p.calls.Load(), "markdown export stays native")

	data, err := os.ReadFile(filepath.Join(dir, "first-note.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# First note\n"))
	assert.Contains(t, string(data), "# Heading")

	kept, err := os.ReadFile(filepath.Join(dir, "existing.md"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(kept))

	assert.Contains(t, out.String(), "exported: first-note.md")
	assert.Contains(t, out.String(), "skipped: existing.md (already exists)")
	assert.Contains(t, out.String(), "Batch summary: 2 exported, 1 skipped, 0 failed (total: 3)")
}

func TestTiddlers_FailuresAreCounted(t *testing.T) {
	dir := t.TempDir()
	c, _ := chain()
	log, hook := quietLogger()

	var conversions, failures atomic.Int32
	e := &Exporter{
		Converter: c,
		Config:    types.ExportConfig{OutputDir: dir, Format: "html", Workers: 2},
		Log:       log,
		OnConvert: func(err error) {
			conversions.Add(1)
			if err != nil {
				failures.Add(1)
			}
		},
	}

	var out bytes.Buffer
	result, err := e.Tiddlers(context.Background(), []types.Tiddler{
		td("good", 1, "ok"),
		td("bad", 2, "FAIL"),
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Exported: 1, Failed: 1}, result)
	assert.True(t, result.HasFailures())
	assert.Equal(t, int32(2), conversions.Load())
	assert.Equal(t, int32(1), failures.Load())

	data, err := os.ReadFile(filepath.Join(dir, "good.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<html># good"))

	assert.NoFileExists(t, filepath.Join(dir, "bad.html"))
	assert.Contains(t, out.String(), "failed:  bad.html")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "bad", hook.LastEntry().Data["title"])
}

func TestCompile_Markdown(t *testing.T) {
	dir := t.TempDir()
	c, _ := chain()
	e := &Exporter{
		Converter: c,
		Config:    types.ExportConfig{OutputDir: dir},
		Now:       func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	wk := wiki.New("My Notebook", "a place for notes")
	path := CompilePath(dir, wk, convert.FormatMarkdown)
	assert.Equal(t, filepath.Join(dir, "my-notebook.md"), path)

	var out bytes.Buffer
	result, err := e.Compile(context.Background(), wk, []types.Tiddler{
		td("later", 5, "second"),
		td("earlier", 1, "first"),
	}, path, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"earlier", "later"}, result.Included)
	assert.Empty(t, result.Excluded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, "% My Notebook\n% a place for notes\n% 2026-03-01\n\n# earlier\n"))
	assert.Contains(t, doc, "first\n"+tiddlerSeparator+"# later\n")
	assert.Contains(t, out.String(), "compiled: "+path+" (2 of 2 tiddlers)")
}

func TestCompile_LeavesOutFailingTiddlers(t *testing.T) {
	dir := t.TempDir()
	c, _ := chain()
	log, _ := quietLogger()
	e := &Exporter{Converter: c, Config: types.ExportConfig{Format: "html", SortBy: types.SortTitle}, Log: log}
	wk := wiki.New("W", "")
	path := filepath.Join(dir, "out", "w.html")

	var out bytes.Buffer
	result, err := e.Compile(context.Background(), wk, []types.Tiddler{
		td("b", 1, "fine"),
		td("a", 2, "also fine"),
		td("c", 3, "FAIL here"),
	}, path, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Included)
	assert.Equal(t, []string{"c"}, result.Excluded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<html>% W\n"))
	assert.NotContains(t, string(data), "FAIL")
	assert.Contains(t, out.String(), "left out after conversion errors:\n\tc\n")
}

func TestCompile_WholeDocumentFailure(t *testing.T) {
	c, _ := chain()
	log, _ := quietLogger()
	e := &Exporter{Converter: c, Config: types.ExportConfig{Format: "html"}, Log: log}
	// The wiki title only appears in the compiled document.
	wk := wiki.New("FAIL", "")

	_, err := e.Compile(context.Background(), wk, []types.Tiddler{td("a", 1, "x")}, filepath.Join(t.TempDir(), "w.html"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "exit status 43")
}
