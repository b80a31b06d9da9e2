// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"

	"github.com/pdiddy/tiddly-engine/internal/wikitext"
)

// Native converts in process. It produces Markdown from wikitext, HTML,
// Markdown and plain text, and passes text through when source and target
// formats match.
type Native struct {
	html *md.Converter
}

// NewNative creates a native converter.
func NewNative() *Native {
	c := md.NewConverter("", true, nil)
	c.Use(plugin.GitHubFlavored())
	return &Native{html: c}
}

// Supports reports whether the pair can be converted natively.
func (n *Native) Supports(from, to string) bool {
	if from == to {
		return true
	}
	if to != FormatMarkdown {
		return false
	}
	switch from {
	case FormatTW5, FormatHTML, FormatPlain:
		return true
	}
	return false
}

// Convert implements Converter.
func (n *Native) Convert(_ context.Context, text, from, to string) (string, error) {
	if !n.Supports(from, to) {
		return "", &ConversionError{From: from, To: to, Err: ErrUnsupportedFormat}
	}

	switch {
	case from == FormatTW5 && to == FormatMarkdown:
		return wikitext.ToMarkdown(text), nil
	case from == FormatHTML && to == FormatMarkdown:
		out, err := n.html.ConvertString(html.UnescapeString(text))
		if err != nil {
			return "", &ConversionError{From: from, To: to, Err: err}
		}
		return strings.TrimSpace(out), nil
	default:
		// Same format, or plain text read as Markdown.
		return html.UnescapeString(text), nil
	}
}

// Encode entity-encodes text the way an export stores tiddler bodies, so
// converted output can be handed to another Converter.
func Encode(text string) string {
	return html.EscapeString(text)
}
