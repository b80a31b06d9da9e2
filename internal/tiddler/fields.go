// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tiddler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	fieldTitle    = "title"
	fieldTags     = "tags"
	fieldCreated  = "created"
	fieldModified = "modified"
	fieldType     = "type"
)

// stampLayouts maps the accepted stamp lengths to the layout of their
// second-resolution prefix. 17 digits carry milliseconds; 12 digits is the
// minute-resolution form written by classic exports.
var stampLayouts = map[int]string{
	17: "20060102150405",
	14: "20060102150405",
	12: "200601021504",
}

// ParseTimestamp parses a compact UTC stamp such as "20180108222550419"
// (year, month, day, hour, minute, second, millisecond).
func ParseTimestamp(s string) (time.Time, error) {
	layout, ok := stampLayouts[len(s)]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %d digits", ErrMalformedTimestamp, len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, fmt.Errorf("%w: non-digit at position %d", ErrMalformedTimestamp, i)
		}
	}

	t, err := time.ParseInLocation(layout, s[:len(layout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedTimestamp, err)
	}

	if len(s) == 17 {
		ms, _ := strconv.Atoi(s[14:])
		t = t.Add(time.Duration(ms) * time.Millisecond)
	}
	return t, nil
}

// FormatTimestamp renders t as a 17-digit UTC stamp.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}

// ParseTags splits a tag list into tags in source order. Tags are separated
// by whitespace; a tag containing spaces is written as [[multi word tag]].
// Duplicates are kept.
func ParseTags(s string) ([]string, error) {
	tags := []string{}
	for i := 0; i < len(s); {
		if isSpace(s[i]) {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], "[[") {
			end := strings.Index(s[i+2:], "]]")
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated [[ at offset %d", ErrMalformedTags, i)
			}
			if tag := s[i+2 : i+2+end]; tag != "" {
				tags = append(tags, tag)
			}
			i += end + 4
			continue
		}
		j := i
		for j < len(s) && !isSpace(s[j]) {
			j++
		}
		tags = append(tags, s[i:j])
		i = j
	}
	return tags, nil
}

// FormatTags renders tags as a tag list that ParseTags reads back unchanged.
func FormatTags(tags []string) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		if strings.ContainsAny(tag, " \t\r\n") || strings.HasPrefix(tag, "[[") {
			parts[i] = "[[" + tag + "]]"
		} else {
			parts[i] = tag
		}
	}
	return strings.Join(parts, " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// fields is the typed view of one block's attributes.
type fields struct {
	attrs map[string]string

	tags     []string
	created  time.Time
	modified time.Time

	hasCreated bool
	createdErr error

	// errs lists every field that failed to normalize, in field order.
	errs []*FieldError
}

// normalize converts the recognized attributes of a block into typed values.
// Each field is independent: a bad tags or modified value leaves that field
// at its default and is recorded in errs.
func normalize(attrs map[string]string) fields {
	f := fields{attrs: attrs, tags: []string{}}

	if raw, ok := attrs[fieldTags]; ok {
		tags, err := ParseTags(raw)
		if err != nil {
			f.errs = append(f.errs, &FieldError{Field: fieldTags, Value: raw, Err: err})
		} else {
			f.tags = tags
		}
	}

	if raw, ok := attrs[fieldModified]; ok {
		t, err := ParseTimestamp(raw)
		if err != nil {
			f.errs = append(f.errs, &FieldError{Field: fieldModified, Value: raw, Err: err})
		} else {
			f.modified = t
		}
	}

	if raw, ok := attrs[fieldCreated]; ok {
		f.hasCreated = true
		t, err := ParseTimestamp(raw)
		if err != nil {
			fe := &FieldError{Field: fieldCreated, Value: raw, Err: err}
			f.errs = append(f.errs, fe)
			f.createdErr = fe
		} else {
			f.created = t
		}
	}

	return f
}
