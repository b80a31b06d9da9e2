// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data structures shared across tiddly-engine stages.
package types

import "time"

// DefaultTiddlerType is the content type assumed when a tiddler does not
// declare one.
const DefaultTiddlerType = "text/vnd.tiddlywiki"

// SystemPrefix marks system tiddlers that are not authored by the user.
const SystemPrefix = "$:/"

// Tiddler is a single content record extracted from an exported wiki.
type Tiddler struct {
	// Title identifies the tiddler within its wiki.
	Title string `json:"title" yaml:"title"`

	// Content is the raw body text as it appears in the export.
	Content string `json:"content" yaml:"content"`

	// Tags lists the tiddler tags in source order. Never nil.
	Tags []string `json:"tags" yaml:"tags"`

	// Created is the creation time (UTC).
	Created time.Time `json:"created" yaml:"created"`

	// Modified is the last modification time (UTC). Zero when the export
	// carries no modified field.
	Modified time.Time `json:"modified,omitzero" yaml:"modified,omitempty"`

	// Type is the content type, e.g. "text/vnd.tiddlywiki" or "text/html".
	Type string `json:"type" yaml:"type"`

	// Fields holds every attribute that is not one of the fields above,
	// keyed by attribute name with the value preserved verbatim. Never nil.
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// HasModified reports whether the export carried a modified time.
func (t Tiddler) HasModified() bool {
	return !t.Modified.IsZero()
}

// HasTag reports whether tag is one of the tiddler's tags.
func (t Tiddler) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// Field returns an extra attribute by name.
func (t Tiddler) Field(name string) (string, bool) {
	v, ok := t.Fields[name]
	return v, ok
}
