// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/tiddly-engine/internal/container"
)

// binaryFormats are pandoc writers that need an explicit output target.
var binaryFormats = map[string]bool{
	"docx": true,
	"odt":  true,
	"epub": true,
	"pdf":  true,
	"pptx": true,
}

// Pandoc converts by piping text through the pandoc container image.
type Pandoc struct {
	runtime container.Runtime
	image   string
	args    []string
}

// NewPandoc creates a converter that runs image through rt. It verifies
// that the image exists locally before returning.
func NewPandoc(ctx context.Context, rt container.Runtime, image string, args ...string) (*Pandoc, error) {
	if rt == nil {
		return nil, errors.New("pandoc backend needs a container runtime")
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("pandoc image not available in %s: %w", rt.Name(), err)
	}
	return &Pandoc{runtime: rt, image: image, args: args}, nil
}

// readerName maps a source format to the pandoc reader.
func readerName(from string) (string, bool) {
	switch from {
	case FormatMarkdown, FormatPlain:
		return "markdown", true
	case FormatHTML:
		return "html", true
	default:
		return "", false
	}
}

// writerName maps a target format to the pandoc writer.
func writerName(to string) string {
	if to == FormatMarkdown {
		return "gfm"
	}
	return to
}

// Convert implements Converter.
func (p *Pandoc) Convert(ctx context.Context, text, from, to string) (string, error) {
	reader, ok := readerName(from)
	if !ok {
		return "", &ConversionError{From: from, To: to, Err: ErrUnsupportedFormat}
	}

	args := []string{"-f", reader, "-t", writerName(to)}
	if binaryFormats[to] {
		args = append(args, "-o", "-")
	}
	args = append(args, p.args...)

	var out bytes.Buffer
	if err := p.runtime.Run(ctx, p.image, args, strings.NewReader(html.UnescapeString(text)), &out); err != nil {
		return "", &ConversionError{From: from, To: to, Err: err}
	}
	if out.Len() == 0 {
		return "", &ConversionError{From: from, To: to, Err: errors.New("pandoc produced empty output")}
	}
	return out.String(), nil
}
