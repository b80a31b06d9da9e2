// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tiddly-engine/internal/container"
	"github.com/pdiddy/tiddly-engine/internal/convert"
	"github.com/pdiddy/tiddly-engine/internal/tiddler"
	"github.com/pdiddy/tiddly-engine/internal/wiki"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// loadedWiki pairs a parsed wiki with the source it was read from.
type loadedWiki struct {
	Source string
	Wiki   *wiki.Wiki
}

// scanner returns the metrics-counting scanner. With showRejected every
// skipped block is also reported on stderr.
func scanner(showRejected bool) tiddler.Scanner {
	s := recorder.Scanner(log)
	if showRejected {
		count := s.OnReject
		s.OnReject = func(r *tiddler.Rejection) {
			count(r)
			fmt.Fprintf(os.Stderr, "rejected: %v\n", r)
		}
	}
	return s
}

func loadWiki(ctx context.Context, source string, cfg types.FetchConfig, s tiddler.Scanner) (*wiki.Wiki, error) {
	wk, err := wiki.Load(ctx, source, cfg, s)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	recorder.Extracted(wk.Len())
	log.WithField("source", source).WithField("tiddlers", wk.Len()).Debug("wiki loaded")
	return wk, nil
}

// loadWikis expands the source arguments and loads every wiki.
func loadWikis(ctx context.Context, args []string, cfg types.FetchConfig, s tiddler.Scanner) ([]loadedWiki, error) {
	sources, err := wiki.ExpandSources(args)
	if err != nil {
		return nil, err
	}
	out := make([]loadedWiki, 0, len(sources))
	for _, src := range sources {
		wk, err := loadWiki(ctx, src, cfg, s)
		if err != nil {
			return nil, err
		}
		out = append(out, loadedWiki{Source: src, Wiki: wk})
	}
	return out, nil
}

// addFilterFlags registers the tiddler filter flags shared by list and export.
func addFilterFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSlice("tag", nil, "keep tiddlers carrying every given tag (repeatable)")
	fs.StringSlice("exclude-tag", nil, "drop tiddlers carrying any given tag (repeatable)")
	fs.String("title", "", "keep tiddlers whose title matches a glob, e.g. \"Journal *\"")
	fs.StringSlice("type", nil, "keep tiddlers of the given content types")
	fs.String("created-from", "", "keep tiddlers created on or after this date (YYYY-MM-DD)")
	fs.String("created-to", "", "keep tiddlers created before this date (YYYY-MM-DD)")
}

// predicatesFromFlags builds the wiki predicates selected by the filter flags.
func predicatesFromFlags(cmd *cobra.Command) ([]wiki.Predicate, error) {
	var preds []wiki.Predicate

	tags, _ := cmd.Flags().GetStringSlice("tag")
	for _, tag := range tags {
		preds = append(preds, wiki.HasTag(tag))
	}
	if excluded, _ := cmd.Flags().GetStringSlice("exclude-tag"); len(excluded) > 0 {
		preds = append(preds, wiki.LacksTags(excluded...))
	}
	if pattern, _ := cmd.Flags().GetString("title"); pattern != "" {
		p, err := wiki.TitleMatches(pattern)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if typs, _ := cmd.Flags().GetStringSlice("type"); len(typs) > 0 {
		preds = append(preds, wiki.TypeIs(typs...))
	}

	from, to, err := dateRange(cmd)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() || !to.IsZero() {
		preds = append(preds, wiki.CreatedBetween(from, to))
	}
	return preds, nil
}

// dateRange parses --created-from and --created-to as UTC dates.
func dateRange(cmd *cobra.Command) (from, to time.Time, err error) {
	parse := func(flag string) (time.Time, error) {
		v, _ := cmd.Flags().GetString(flag)
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD: %w", flag, err)
		}
		return t, nil
	}
	if from, err = parse("created-from"); err != nil {
		return
	}
	to, err = parse("created-to")
	return
}

// selectTiddlers returns the tiddlers of wk that pass every predicate.
func selectTiddlers(wk *wiki.Wiki, preds []wiki.Predicate) []types.Tiddler {
	return slices.Collect(wk.FindAll(preds...))
}

// newConverter builds the configured converter. The pandoc backend looks
// for docker or podman first.
func newConverter(ctx context.Context, cfg types.ConversionConfig) (convert.Converter, error) {
	var rt container.Runtime
	if cfg.Backend == types.BackendPandoc {
		var err error
		if rt, err = container.DetectRuntime(); err != nil {
			return nil, err
		}
		log.WithField("runtime", rt.Name()).WithField("image", cfg.PandocImage).Debug("using pandoc")
	}
	return convert.New(ctx, cfg, rt)
}
