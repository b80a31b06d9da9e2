// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    map[string]string
	}{
		{
			name:    "typical export",
			options: ` created="20180108222550419" tags="[[multi word tag]] tag2" title="just a test"`,
			want: map[string]string{
				"created": "20180108222550419",
				"tags":    "[[multi word tag]] tag2",
				"title":   "just a test",
			},
		},
		{
			name:    "empty region",
			options: "",
			want:    map[string]string{},
		},
		{
			name:    "last occurrence wins",
			options: ` title="first" title="second"`,
			want:    map[string]string{"title": "second"},
		},
		{
			name:    "dotted key is dropped",
			options: ` title="a" tmap.id="8b72e085" color="red"`,
			want:    map[string]string{"title": "a", "color": "red"},
		},
		{
			name:    "unquoted value is dropped",
			options: ` hidden=yes title="a"`,
			want:    map[string]string{"title": "a"},
		},
		{
			name:    "key without leading whitespace is dropped",
			options: `title="a"`,
			want:    map[string]string{},
		},
		{
			name:    "trailing backslash does not swallow the next attribute",
			options: ` title="C:\Users\" created="20180108222550419" path="x"`,
			want:    map[string]string{"title": `C:\Users\`, "created": "20180108222550419", "path": "x"},
		},
		{
			name:    "value ends at the first quote",
			options: ` caption="say \"hi\"" title="a"`,
			want:    map[string]string{"caption": `say \`, "title": "a"},
		},
		{
			name:    "non-ASCII key is kept",
			options: ` größe="12" title="a"`,
			want:    map[string]string{"größe": "12", "title": "a"},
		},
		{
			name:    "entities preserved verbatim",
			options: ` title="Tom &amp; Jerry &quot;live&quot;"`,
			want:    map[string]string{"title": "Tom &amp; Jerry &quot;live&quot;"},
		},
		{
			name:    "empty value",
			options: ` title=""`,
			want:    map[string]string{"title": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAttributes(tt.options))
		})
	}
}

func TestFormatOptions(t *testing.T) {
	got := FormatOptions(map[string]string{"title": "a", "created": "20180108222550419"})
	assert.Equal(t, ` created="20180108222550419" title="a"`, got)
}
