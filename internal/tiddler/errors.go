// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldParse is matched by every *FieldError.
	ErrFieldParse = errors.New("field parse error")

	// ErrMalformedTimestamp reports a created/modified value that is not a
	// compact YYYYMMDDhhmmssSSS stamp.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrMalformedTags reports a tag list with an unterminated [[ phrase.
	ErrMalformedTags = errors.New("malformed tag list")
)

// FieldError reports a recognized attribute whose raw value could not be
// normalized. It matches both ErrFieldParse and its cause under errors.Is.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("parsing %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrFieldParse, e.Err}
}

// RejectReason names the inclusion check a candidate failed.
type RejectReason string

const (
	RejectMissingCreated RejectReason = "missing-created"
	RejectInvalidCreated RejectReason = "invalid-created"
	RejectMissingTitle   RejectReason = "missing-title"
	RejectSystemTitle    RejectReason = "system-title"
)

// Rejection describes a structurally valid block that was left out of the
// output. Scans report rejections to Scanner.OnReject and never yield them.
type Rejection struct {
	Reason RejectReason

	// Title is the raw title attribute, empty when absent.
	Title string

	// Offset is the byte offset of the block in the scanned text.
	Offset int

	// Err is the field error behind RejectInvalidCreated.
	Err error
}

func (r *Rejection) Error() string {
	msg := fmt.Sprintf("tiddler at offset %d rejected: %s", r.Offset, r.Reason)
	if r.Title != "" {
		msg += fmt.Sprintf(" (title %q)", r.Title)
	}
	if r.Err != nil {
		msg += ": " + r.Err.Error()
	}
	return msg
}

func (r *Rejection) Unwrap() error { return r.Err }
