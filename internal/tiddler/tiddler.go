// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tiddler extracts tiddlers from the store area of an exported
// TiddlyWiki document.
//
// A scan matches each <div ...><pre>...</pre></div> block, tokenizes its
// attributes, normalizes the tags and timestamps, drops blocks that are not
// user content (no created stamp, no title, or a $:/ system title) and
// yields the rest as types.Tiddler values. Scans are lazy, synchronous and
// side-effect free; blocks that fail are skipped, never returned as errors.
package tiddler

import (
	"iter"
	"slices"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// Scanner extracts tiddlers from text. The zero value is ready to use; the
// hooks let callers observe what a scan skipped.
type Scanner struct {
	// OnReject, if set, is called for every block left out of the output.
	OnReject func(*Rejection)

	// OnFieldError, if set, is called for every field that failed to
	// normalize, including ones that did not lead to a rejection.
	OnFieldError func(*FieldError)
}

// All returns the tiddlers in text in source order. Each call scans text
// from the start; iteration stops as soon as the caller stops ranging.
func (s Scanner) All(text string) iter.Seq[types.Tiddler] {
	return func(yield func(types.Tiddler) bool) {
		for m := range Matches(text) {
			t, ok := s.build(m)
			if !ok {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// First returns the first tiddler in text. The boolean is false when the
// text holds no qualifying tiddler.
func (s Scanner) First(text string) (types.Tiddler, bool) {
	for t := range s.All(text) {
		return t, true
	}
	return types.Tiddler{}, false
}

func (s Scanner) build(m RawMatch) (types.Tiddler, bool) {
	f := normalize(ParseAttributes(m.Options))
	if s.OnFieldError != nil {
		for _, fe := range f.errs {
			s.OnFieldError(fe)
		}
	}

	if r := check(f, m.Offset); r != nil {
		if s.OnReject != nil {
			s.OnReject(r)
		}
		return types.Tiddler{}, false
	}
	return assemble(m.Content, f), true
}

// All returns the tiddlers in text using a Scanner without hooks.
func All(text string) iter.Seq[types.Tiddler] {
	return Scanner{}.All(text)
}

// First returns the first tiddler in text using a Scanner without hooks.
func First(text string) (types.Tiddler, bool) {
	return Scanner{}.First(text)
}

// Collect returns every tiddler in text as a slice.
func Collect(text string) []types.Tiddler {
	return slices.Collect(All(text))
}

// New builds a tiddler from a block body and its raw attributes. It returns
// a *Rejection when the attributes fail the inclusion rules.
func New(content string, attrs map[string]string) (types.Tiddler, error) {
	f := normalize(attrs)
	if r := check(f, 0); r != nil {
		return types.Tiddler{}, r
	}
	return assemble(content, f), nil
}

// assemble routes the recognized fields to the struct and every other
// attribute to Fields.
func assemble(content string, f fields) types.Tiddler {
	t := types.Tiddler{
		Title:    f.attrs[fieldTitle],
		Content:  content,
		Tags:     f.tags,
		Created:  f.created,
		Modified: f.modified,
		Type:     types.DefaultTiddlerType,
		Fields:   make(map[string]string),
	}
	if typ := f.attrs[fieldType]; typ != "" {
		t.Type = typ
	}

	for k, v := range f.attrs {
		switch k {
		case fieldTitle, fieldTags, fieldCreated, fieldModified, fieldType:
		default:
			t.Fields[k] = v
		}
	}
	return t
}
