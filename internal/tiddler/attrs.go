// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// attrPattern matches ` key="value"`. Keys are letters, digits and
// underscores in any script. The value ends at the first quote; exports
// store quotes inside values as &quot; and backslash is an ordinary
// character.
var attrPattern = regexp.MustCompile(`\s+([\p{L}\p{N}_]+)="([^"]*)"`)

// ParseAttributes extracts key/value pairs from the attribute region of a
// block. Fragments that do not match the pattern (dotted keys, unquoted
// values) are dropped. When a key repeats, the last value wins.
func ParseAttributes(options string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(options, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// Attributes is the inverse of the field routing done by New: it returns the
// raw attribute map a block would need to reproduce t.
func Attributes(t types.Tiddler) map[string]string {
	attrs := make(map[string]string, len(t.Fields)+5)
	maps.Copy(attrs, t.Fields)
	attrs[fieldTitle] = t.Title
	if !t.Created.IsZero() {
		attrs[fieldCreated] = FormatTimestamp(t.Created)
	}
	if t.HasModified() {
		attrs[fieldModified] = FormatTimestamp(t.Modified)
	}
	if len(t.Tags) > 0 {
		attrs[fieldTags] = FormatTags(t.Tags)
	}
	if t.Type != "" && t.Type != types.DefaultTiddlerType {
		attrs[fieldType] = t.Type
	}
	return attrs
}

// FormatOptions renders attrs as an attribute region in key order, ready to
// follow "<div".
func FormatOptions(attrs map[string]string) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(attrs[k])
		b.WriteByte('"')
	}
	return b.String()
}

// Render writes t back out as a store-area block.
func Render(t types.Tiddler) string {
	return "<div" + FormatOptions(Attributes(t)) + ">\n<pre>" + t.Content + "</pre>\n</div>"
}
