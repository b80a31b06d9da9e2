// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"iter"
	"regexp"
)

// blockPattern matches one tiddler block of a store area:
//
//	<div created="..." title="...">
//	<pre>body</pre>
//	</div>
//
// The attribute region stops at the first '>' (exports encode '>' inside
// attribute values), and the body capture is non-greedy so adjacent blocks
// never merge.
var blockPattern = regexp.MustCompile(`(?s)<div([^>]*)>\r?\n<pre>(.*?)</pre>\r?\n</div>`)

// RawMatch is one matched block before its attributes are interpreted.
type RawMatch struct {
	// Options is the attribute region between "<div" and ">".
	Options string

	// Content is the text between <pre> and </pre>.
	Content string

	// Offset is the byte offset of "<div" in the scanned text.
	Offset int
}

// Matches returns the blocks found in text, left to right. The text is
// scanned lazily: each step resumes after the end of the previous match.
// Every call starts a fresh scan.
func Matches(text string) iter.Seq[RawMatch] {
	return func(yield func(RawMatch) bool) {
		pos := 0
		for pos < len(text) {
			loc := blockPattern.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				return
			}
			m := RawMatch{
				Options: text[pos+loc[2] : pos+loc[3]],
				Content: text[pos+loc[4] : pos+loc[5]],
				Offset:  pos + loc[0],
			}
			if !yield(m) {
				return
			}
			pos += loc[1]
		}
	}
}
