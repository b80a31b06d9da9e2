// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wiki holds the tiddlers of one exported TiddlyWiki together with
// the wiki's title and subtitle, and answers queries over them.
package wiki

import (
	"iter"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/tiddly-engine/internal/tiddler"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// titleSeparator joins site title and subtitle in the <title> element of
// an export.
const titleSeparator = " — "

// Wiki is an ordered set of tiddlers, unique by title.
type Wiki struct {
	Title    string
	Subtitle string

	tiddlers []types.Tiddler
	byTitle  map[string]int
}

// New creates a wiki holding ts. Later tiddlers with a title already
// present are ignored.
func New(title, subtitle string, ts ...types.Tiddler) *Wiki {
	w := &Wiki{Title: title, Subtitle: subtitle, byTitle: make(map[string]int)}
	for _, t := range ts {
		w.Add(t)
	}
	return w
}

// Parse reads the title and every user tiddler from an exported document.
func Parse(text string) *Wiki {
	return ParseWith(tiddler.Scanner{}, text)
}

// ParseWith is Parse with a caller-configured scanner.
func ParseWith(s tiddler.Scanner, text string) *Wiki {
	title, subtitle := ParseTitle(text)
	w := New(title, subtitle)
	w.AddAll(s.All(text))
	return w
}

// ParseTitle returns the site title and subtitle from the document's
// <title> element. Both are empty when the element is missing; the
// subtitle is empty when the title carries no separator.
func ParseTitle(text string) (title, subtitle string) {
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", ""
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				if z.Next() != html.TextToken {
					return "", ""
				}
				full := strings.TrimSpace(string(z.Text()))
				if t, s, ok := strings.Cut(full, titleSeparator); ok {
					return strings.TrimSpace(t), strings.TrimSpace(s)
				}
				return full, ""
			case "body":
				return "", ""
			}
		}
	}
}

// Add appends t unless a tiddler with the same title is present.
func (w *Wiki) Add(t types.Tiddler) bool {
	if _, ok := w.byTitle[t.Title]; ok {
		return false
	}
	w.byTitle[t.Title] = len(w.tiddlers)
	w.tiddlers = append(w.tiddlers, t)
	return true
}

// AddAll adds every tiddler of seq and returns how many were new.
func (w *Wiki) AddAll(seq iter.Seq[types.Tiddler]) int {
	n := 0
	for t := range seq {
		if w.Add(t) {
			n++
		}
	}
	return n
}

// Remove deletes the tiddler with the given title.
func (w *Wiki) Remove(title string) bool {
	i, ok := w.byTitle[title]
	if !ok {
		return false
	}
	w.tiddlers = slices.Delete(w.tiddlers, i, i+1)
	delete(w.byTitle, title)
	for j := i; j < len(w.tiddlers); j++ {
		w.byTitle[w.tiddlers[j].Title] = j
	}
	return true
}

// Contains reports whether a tiddler with the given title is present.
func (w *Wiki) Contains(title string) bool {
	_, ok := w.byTitle[title]
	return ok
}

// Get returns the tiddler with the given title.
func (w *Wiki) Get(title string) (types.Tiddler, bool) {
	i, ok := w.byTitle[title]
	if !ok {
		return types.Tiddler{}, false
	}
	return w.tiddlers[i], true
}

// Len returns the number of tiddlers.
func (w *Wiki) Len() int { return len(w.tiddlers) }

// All iterates the tiddlers in insertion order.
func (w *Wiki) All() iter.Seq[types.Tiddler] {
	return slices.Values(w.tiddlers)
}

// Tiddlers returns a copy of the tiddler list.
func (w *Wiki) Tiddlers() []types.Tiddler {
	return slices.Clone(w.tiddlers)
}
