// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tiddly-engine/internal/wiki"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

func td(title string, created time.Time, tags ...string) types.Tiddler {
	if tags == nil {
		tags = []string{}
	}
	return types.Tiddler{
		Title:   title,
		Tags:    tags,
		Created: created,
		Type:    types.DefaultTiddlerType,
		Fields:  map[string]string{},
	}
}

func filterCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	addFilterFlags(cmd)
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestPredicatesFromFlags(t *testing.T) {
	feb := func(d int) time.Time { return time.Date(2018, 2, d, 9, 0, 0, 0, time.UTC) }
	wk := wiki.New("Notebook", "",
		td("Journal 2018-02-01", feb(1), "journal"),
		td("Journal 2018-02-15", feb(15), "journal", "private"),
		td("Reading", feb(20), "books"),
	)

	tests := []struct {
		name  string
		flags map[string]string
		want  []string
	}{
		{name: "none", flags: nil, want: []string{"Journal 2018-02-01", "Journal 2018-02-15", "Reading"}},
		{name: "tag", flags: map[string]string{"tag": "journal"}, want: []string{"Journal 2018-02-01", "Journal 2018-02-15"}},
		{name: "exclude tag", flags: map[string]string{"tag": "journal", "exclude-tag": "private"}, want: []string{"Journal 2018-02-01"}},
		{name: "title glob", flags: map[string]string{"title": "R*"}, want: []string{"Reading"}},
		{name: "date range", flags: map[string]string{"created-from": "2018-02-10", "created-to": "2018-02-20"}, want: []string{"Journal 2018-02-15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := predicatesFromFlags(filterCmd(t, tt.flags))
			require.NoError(t, err)

			var got []string
			for _, tdl := range selectTiddlers(wk, preds) {
				got = append(got, tdl.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicatesFromFlags_BadDate(t *testing.T) {
	_, err := predicatesFromFlags(filterCmd(t, map[string]string{"created-from": "15/02/2018"}))
	assert.ErrorContains(t, err, "--created-from")
}

func TestFormatListTable(t *testing.T) {
	entry := listEntry{Source: "notebook.html", Tiddler: td("just a test", time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC), "tag2", "tag3")}

	var buf bytes.Buffer
	formatListTable(&buf, []listEntry{entry}, false)
	out := buf.String()
	assert.Contains(t, out, "2018-02-01")
	assert.Contains(t, out, "tag2, tag3")
	assert.Contains(t, out, "just a test")
	assert.NotContains(t, out, "notebook.html")
	assert.Contains(t, out, "1 tiddlers")

	buf.Reset()
	formatListTable(&buf, []listEntry{entry}, true)
	assert.Contains(t, buf.String(), "notebook.html")

	buf.Reset()
	formatListTable(&buf, nil, false)
	assert.Equal(t, "No tiddlers found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}
