// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantOptions []string
		wantContent []string
	}{
		{
			name: "no markers",
			text: "<html><body>nothing here</body></html>",
		},
		{
			name:        "single block",
			text:        "<div title=\"a\">\n<pre>body</pre>\n</div>",
			wantOptions: []string{` title="a"`},
			wantContent: []string{"body"},
		},
		{
			name:        "empty body",
			text:        "<div title=\"a\">\n<pre></pre>\n</div>",
			wantOptions: []string{` title="a"`},
			wantContent: []string{""},
		},
		{
			name:        "multi-line body",
			text:        "<div title=\"a\">\n<pre>line 1\nline 2\n</pre>\n</div>",
			wantOptions: []string{` title="a"`},
			wantContent: []string{"line 1\nline 2\n"},
		},
		{
			name: "adjacent blocks stay separate",
			text: "<div title=\"a\">\n<pre>first</pre>\n</div>\n" +
				"<div title=\"b\">\n<pre>second</pre>\n</div>",
			wantOptions: []string{` title="a"`, ` title="b"`},
			wantContent: []string{"first", "second"},
		},
		{
			name: "closing marker text inside a body",
			text: "<div title=\"a\">\n<pre>mentions </pre> inline</pre>\n</div>\n" +
				"<div title=\"b\">\n<pre>second</pre>\n</div>",
			wantOptions: []string{` title="a"`, ` title="b"`},
			wantContent: []string{"mentions </pre> inline", "second"},
		},
		{
			name:        "container div is not a block",
			text:        "<div id=\"storeArea\" style=\"display:none;\">\n<div title=\"a\">\n<pre>x</pre>\n</div>\n</div>",
			wantOptions: []string{` title="a"`},
			wantContent: []string{"x"},
		},
		{
			name:        "crlf line endings",
			text:        "<div title=\"a\">\r\n<pre>x</pre>\r\n</div>",
			wantOptions: []string{` title="a"`},
			wantContent: []string{"x"},
		},
		{
			name: "missing newline before pre is not a block",
			text: "<div title=\"a\"><pre>x</pre>\n</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var options, content []string
			for m := range Matches(tt.text) {
				options = append(options, m.Options)
				content = append(content, m.Content)
			}
			assert.Equal(t, tt.wantOptions, options)
			assert.Equal(t, tt.wantContent, content)
		})
	}
}

func TestMatches_Offsets(t *testing.T) {
	text := "xx<div title=\"a\">\n<pre>1</pre>\n</div>yy<div title=\"b\">\n<pre>2</pre>\n</div>"
	got := slices.Collect(Matches(text))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Offset)
	assert.Equal(t, "<div", text[got[1].Offset:got[1].Offset+4])
	assert.Greater(t, got[1].Offset, got[0].Offset)
}

func TestMatches_EarlyStopAndRestart(t *testing.T) {
	text := "<div title=\"a\">\n<pre>1</pre>\n</div>\n<div title=\"b\">\n<pre>2</pre>\n</div>"
	seq := Matches(text)

	for m := range seq {
		assert.Equal(t, "1", m.Content)
		break
	}

	// A second range over the same sequence starts from the beginning.
	var contents []string
	for m := range seq {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"1", "2"}, contents)
}
