// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes tiddlers out as documents: one file per tiddler, or
// a single compiled document for the whole wiki.
package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/pdiddy/tiddly-engine/internal/convert"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

const dateLayout = "2006-01-02 15:04:05"

// Render returns the Markdown document for t: a title heading, the
// timestamps, the tags as keywords, a rule and the body. body must already
// be Markdown.
func Render(t types.Tiddler, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", t.Title)
	fmt.Fprintf(&b, "**created**: %s", t.Created.Format(dateLayout))
	if t.HasModified() {
		fmt.Fprintf(&b, ",  **last modified**: %s", t.Modified.Format(dateLayout))
	}
	b.WriteString("\n\n")
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "**keywords**: %s\n\n", strings.Join(t.Tags, ", "))
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

// Markdown converts the body of t to Markdown and renders the document.
func Markdown(ctx context.Context, c convert.Converter, t types.Tiddler) (string, error) {
	body, err := c.Convert(ctx, t.Content, convert.FormatForType(t.Type), convert.FormatMarkdown)
	if err != nil {
		return "", fmt.Errorf("tiddler %q: %w", t.Title, err)
	}
	return Render(t, body), nil
}

// Document renders t and converts it to format.
func Document(ctx context.Context, c convert.Converter, t types.Tiddler, format string) (string, error) {
	md, err := Markdown(ctx, c, t)
	if err != nil {
		return "", err
	}
	out, err := fromMarkdown(ctx, c, md, format)
	if err != nil {
		return "", fmt.Errorf("tiddler %q: %w", t.Title, err)
	}
	return out, nil
}

func fromMarkdown(ctx context.Context, c convert.Converter, md, format string) (string, error) {
	if format == convert.FormatMarkdown {
		return md, nil
	}
	if format == "pdf" {
		md = latin1(md)
	}
	return c.Convert(ctx, convert.Encode(md), convert.FormatMarkdown, format)
}

// latin1 drops characters outside Latin-1, which the default LaTeX input
// encoding used for PDF output rejects.
func latin1(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool {
		return r > 0xFF
	})), s)
	if err != nil {
		return s
	}
	return out
}

var slugRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slug returns a filesystem-safe name for a tiddler title.
func Slug(title string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "tiddler"
	}
	return s
}

// uniqueSlugs returns one slug per title, suffixing repeats with -2, -3...
func uniqueSlugs(ts []types.Tiddler) []string {
	out := make([]string, len(ts))
	used := make(map[string]bool, len(ts))
	for i, t := range ts {
		base := Slug(t.Title)
		s := base
		for n := 2; used[s]; n++ {
			s = fmt.Sprintf("%s-%d", base, n)
		}
		used[s] = true
		out[i] = s
	}
	return out
}
