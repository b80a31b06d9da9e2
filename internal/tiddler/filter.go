// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"strings"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// check applies the inclusion rules in order and returns the first one the
// block fails, or nil when it qualifies as user content:
//
//  1. created is present and parses
//  2. title is present
//  3. title is outside the $:/ system namespace
//
// A malformed created rejects the block, unlike a malformed modified or tags
// which only fall back to their defaults.
func check(f fields, offset int) *Rejection {
	title, hasTitle := f.attrs[fieldTitle]

	switch {
	case !f.hasCreated:
		return &Rejection{Reason: RejectMissingCreated, Title: title, Offset: offset}
	case f.createdErr != nil:
		return &Rejection{Reason: RejectInvalidCreated, Title: title, Offset: offset, Err: f.createdErr}
	case !hasTitle:
		return &Rejection{Reason: RejectMissingTitle, Offset: offset}
	case IsSystemTitle(title):
		return &Rejection{Reason: RejectSystemTitle, Title: title, Offset: offset}
	}
	return nil
}

// IsSystemTitle reports whether title names a system tiddler.
func IsSystemTitle(title string) bool {
	return strings.HasPrefix(title, types.SystemPrefix)
}
