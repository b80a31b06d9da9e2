// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wikitext converts TiddlyWiki 5 markup to GitHub-flavoured
// Markdown. It rewrites the common block and inline constructs with
// regular expressions; it is not a full wikitext parser, and macros,
// widgets, tables and transclusions pass through unchanged.
package wikitext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```.*?```")
	codeSpanRe   = regexp.MustCompile("`[^`\n]+`")
	mathRe       = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)
	namedLinkRe  = regexp.MustCompile(`(?s)\[\[([^\]|]+?)\|(.+?)\]\]`)
	plainLinkRe  = regexp.MustCompile(`\[\[([^\]|]+?)\]\]`)
	imageRe      = regexp.MustCompile(`\[\s*img([^\[\]]*)\[([^\]]+)\]\]`)
	urlRe        = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.\-]*://[^\s<>()\[\]]+`)
	multilineRe  = regexp.MustCompile(`(?ms)^"""\n?(.*?)\n?"""`)
	ruleRe       = regexp.MustCompile(`(?m)^-{3,}[ \t]*$`)
	listRe       = regexp.MustCompile(`(?m)^[\t ]*[*#]+[*#\t ]*`)
	headingRe    = regexp.MustCompile(`(?m)^[\t ]*!+[!\t ]*`)
	boldRe       = regexp.MustCompile(`(?s)''(.+?)''`)
	italicRe     = regexp.MustCompile(`(?s)//(.+?)//`)
	tildeRe      = regexp.MustCompile(`~+`)
	blockQuoteRe = regexp.MustCompile(`(?ms)^<<<[\t ]*(.*?)<<<([^\n]*)`)
	placeholder  = regexp.MustCompile(`\x00(\d+)\x00`)
)

// stash holds spans lifted out of the text while the inline rewrites run.
// Each span is stored already rendered and put back by restore.
type stash []string

func (s *stash) put(rendered string) string {
	*s = append(*s, rendered)
	return fmt.Sprintf("\x00%d\x00", len(*s)-1)
}

func (s stash) restore(text string) string {
	// Spans may be nested one inside another (an image inside a named link).
	for range 4 {
		if !strings.Contains(text, "\x00") {
			break
		}
		text = placeholder.ReplaceAllStringFunc(text, func(m string) string {
			i, err := strconv.Atoi(m[1 : len(m)-1])
			if err != nil || i >= len(s) {
				return m
			}
			return s[i]
		})
	}
	return text
}

// replaceSubmatch is ReplaceAllStringFunc with access to the match offsets
// and submatches.
func replaceSubmatch(re *regexp.Regexp, text string, fn func(text string, loc []int) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:loc[0]])
		b.WriteString(fn(text, loc))
		last = loc[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func group(text string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

// ToMarkdown converts TiddlyWiki 5 markup to Markdown.
func ToMarkdown(text string) string {
	text = html.UnescapeString(text)

	var spans stash
	text = protect(text, &spans)

	text = replaceSubmatch(multilineRe, text, func(s string, loc []int) string {
		return strings.ReplaceAll(group(s, loc, 1), "\n", "\\\n")
	})
	text = ruleRe.ReplaceAllString(text, "\n---\n")
	text = listRe.ReplaceAllStringFunc(text, listItem)
	text = headingRe.ReplaceAllStringFunc(text, heading)
	text = boldRe.ReplaceAllString(text, "__${1}__")
	text = italicRe.ReplaceAllString(text, "_${1}_")
	text = tildeRe.ReplaceAllStringFunc(text, func(m string) string {
		if len(m) == 1 {
			return ""
		}
		return m
	})
	text = replaceSubmatch(blockQuoteRe, text, blockQuote)

	return spans.restore(text)
}

// protect lifts code, math, links, images and bare URLs out of text so the
// inline rewrites cannot touch them.
func protect(text string, spans *stash) string {
	text = codeFenceRe.ReplaceAllStringFunc(text, spans.put)
	text = codeSpanRe.ReplaceAllStringFunc(text, spans.put)
	text = replaceSubmatch(mathRe, text, func(s string, loc []int) string {
		return spans.put(math(s, loc))
	})
	text = replaceSubmatch(namedLinkRe, text, func(s string, loc []int) string {
		return spans.put(link(group(s, loc, 1), group(s, loc, 2)))
	})
	text = replaceSubmatch(plainLinkRe, text, func(s string, loc []int) string {
		target := group(s, loc, 1)
		return spans.put(link(target, target))
	})
	text = replaceSubmatch(imageRe, text, func(s string, loc []int) string {
		alt := strings.TrimSpace(group(s, loc, 1))
		src := group(s, loc, 2)
		// [img[tooltip|source]]
		if tip, target, ok := strings.Cut(src, "|"); ok {
			alt, src = tip, target
		}
		return spans.put("![" + alt + "](" + destination(src) + ")")
	})
	return urlRe.ReplaceAllStringFunc(text, spans.put)
}

// math renders a $$...$$ span. A span that occupies whole lines stays
// display math; anything else becomes inline $...$.
func math(text string, loc []int) string {
	body := group(text, loc, 1)
	lineStart := loc[0] == 0 || text[loc[0]-1] == '\n'
	lineEnd := loc[1] == len(text) || text[loc[1]] == '\n'
	if lineStart && lineEnd {
		return "$$" + body + "$$"
	}
	return "$" + strings.TrimSpace(body) + "$"
}

func link(name, target string) string {
	return "[" + name + "](" + destination(target) + ")"
}

// destination wraps link targets that contain spaces in angle brackets.
func destination(target string) string {
	target = strings.TrimSpace(target)
	if strings.ContainsAny(target, " \t") {
		return "<" + target + ">"
	}
	return target
}

// listItem turns a run of * and # markers into an indented Markdown item.
// The last marker picks bullet or number; the run length sets the depth.
func listItem(m string) string {
	markers := strings.Join(strings.Fields(m), "")
	indent := strings.Repeat("  ", len(markers)-1)
	if markers[len(markers)-1] == '#' {
		return indent + "1. "
	}
	return indent + "* "
}

func heading(m string) string {
	level := strings.Count(m, "!")
	return strings.Repeat("#", level) + " "
}

// blockQuote renders <<< ... <<< cite as quoted lines with the citation
// in parentheses on the last line.
func blockQuote(text string, loc []int) string {
	body := strings.Trim(group(text, loc, 1), "\n")
	var lines []string
	for line := range strings.SplitSeq(body, "\n") {
		lines = append(lines, strings.TrimRight("> "+line, " "))
	}
	if cite := strings.TrimSpace(group(text, loc, 2)); cite != "" {
		lines = append(lines, "> ("+cite+")")
	}
	return strings.Join(lines, "\n")
}
