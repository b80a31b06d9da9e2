// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns tiddler bodies from their source markup into other
// document formats, natively for Markdown and through a pandoc container for
// everything else.
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/tiddly-engine/internal/container"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// Format names accepted by converters. Any pandoc writer name (docx, latex,
// epub, ...) is also a valid target for the pandoc backend.
const (
	FormatTW5      = "tw5"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatPlain    = "plain"
)

// ErrUnsupportedFormat is returned when a converter cannot handle a
// format pair.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Converter transforms tiddler text from one format to another. Text is
// given as it appears in the export, with HTML entities encoded.
type Converter interface {
	Convert(ctx context.Context, text, from, to string) (string, error)
}

// ConversionError records which format pair failed.
type ConversionError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// FormatForType maps a tiddler MIME type to the converter input format.
// Unknown types are treated as plain text.
func FormatForType(typ string) string {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", types.DefaultTiddlerType:
		return FormatTW5
	case "text/x-markdown", "text/markdown":
		return FormatMarkdown
	case "text/html":
		return FormatHTML
	default:
		return FormatPlain
	}
}

// Extension returns the file extension for output in format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown, "gfm", "commonmark":
		return ".md"
	case FormatPlain:
		return ".txt"
	case FormatTW5:
		return ".tid"
	case "latex":
		return ".tex"
	case "asciidoc":
		return ".adoc"
	case "mediawiki":
		return ".wiki"
	default:
		return "." + format
	}
}

// Chain tries the native converter first and hands pairs it cannot do to
// Fallback. The source is converted to Markdown natively on the way when
// Fallback cannot read it.
type Chain struct {
	Native   *Native
	Fallback Converter
}

// Convert implements Converter.
func (c *Chain) Convert(ctx context.Context, text, from, to string) (string, error) {
	if c.Native.Supports(from, to) {
		return c.Native.Convert(ctx, text, from, to)
	}
	if c.Fallback == nil {
		return "", &ConversionError{From: from, To: to, Err: ErrUnsupportedFormat}
	}
	if from == FormatHTML {
		return c.Fallback.Convert(ctx, text, from, to)
	}
	md, err := c.Native.Convert(ctx, text, from, FormatMarkdown)
	if err != nil {
		return "", err
	}
	return c.Fallback.Convert(ctx, Encode(md), FormatMarkdown, to)
}

// New builds the converter for a backend. The pandoc backend needs a
// container runtime with the configured image; the native backend does not.
func New(ctx context.Context, cfg types.ConversionConfig, rt container.Runtime) (Converter, error) {
	native := NewNative()
	switch cfg.Backend {
	case "", types.BackendNative:
		return &Chain{Native: native}, nil
	case types.BackendPandoc:
		p, err := NewPandoc(ctx, rt, cfg.PandocImage, cfg.PandocArgs...)
		if err != nil {
			return nil, err
		}
		return &Chain{Native: native, Fallback: p}, nil
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}
