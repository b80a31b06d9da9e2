// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tiddly-engine/internal/index"
	"github.com/pdiddy/tiddly-engine/internal/watch"
	"github.com/pdiddy/tiddly-engine/internal/wiki"
	"github.com/pdiddy/tiddly-engine/pkg/types"
)

var indexFlagKeys = map[string]string{
	"index-dir":   "index.index_dir",
	"max-results": "index.max_results",
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the tiddler search index (store, retrieve, export)",
	Long: `Index manages a local SQLite database of tiddlers with FTS5 full-text
search. Use subcommands to ingest wikis, query them, or export.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store <wiki>...",
	Short: "Ingest wikis into the index",
	Long: `Store extracts every tiddler of each wiki and upserts it into the index.
Unchanged tiddlers are left alone and tiddlers no longer in the wiki are
removed. With --watch a single local wiki is re-ingested every time it is
saved, until interrupted.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindFlags(indexFlagKeys),
	RunE:    runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := index.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, err := wiki.ExpandSources(args)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := ingestSource(ctx, store, src, cfg.Fetch, os.Stdout); err != nil {
			return err
		}
	}

	watching, _ := cmd.Flags().GetBool("watch")
	if !watching {
		return nil
	}
	if len(sources) != 1 || wiki.IsURL(sources[0]) {
		return errors.New("--watch needs exactly one local wiki file")
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	w, err := watch.New(sources[0], debounce, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "watching %s (Ctrl-C to stop)\n", w.Path())
	return w.Run(ctx, func(ctx context.Context) error {
		if err := ingestSource(ctx, store, sources[0], cfg.Fetch, os.Stdout); err != nil {
			return err
		}
		return writeMetrics()
	})
}

func ingestSource(ctx context.Context, store *index.Store, src string, cfg types.FetchConfig, w io.Writer) error {
	wk, err := loadWiki(ctx, src, cfg, scanner(false))
	if err != nil {
		return err
	}
	_, err = store.Ingest(ctx, src, wk.Title, wk.All(), w)
	return err
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the index with full-text search and filters",
	Long: `Retrieve searches the index using FTS5 full-text search over titles and
bodies, structured filters (tag, type, source, creation dates), or both.
With no query or filter every tiddler is listed in creation order.

Use --get with a title to print one stored tiddler.`,
	PreRunE: bindFlags(indexFlagKeys),
	RunE:    runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := index.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if title, _ := cmd.Flags().GetString("get"); title != "" {
		source, _ := cmd.Flags().GetString("source")
		r, err := store.Get(ctx, source, title)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, r)
		}
		fmt.Fprintf(os.Stdout, "%s\n%s\n", r.Title, r.Content)
		return nil
	}

	opts, err := indexQueryFromFlags(cmd, args)
	if err != nil {
		return err
	}
	results, err := store.Retrieve(ctx, opts)
	if err != nil {
		return err
	}
	if jsonOutput {
		if results == nil {
			results = []index.QueryResult{}
		}
		return writeJSON(os.Stdout, results)
	}
	formatRetrieveOutput(os.Stdout, results)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRetrieveOutput(w io.Writer, results []index.QueryResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-30s  %-20s  %s\n", "Rank", "Created", "Title", "Source", "Match")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		match := r.Snippet
		if match == "" {
			match = strings.Join(r.Tags, ", ")
		}
		fmt.Fprintf(w, "%-4d  %-10s  %-30s  %-20s  %s\n",
			i+1, r.Created.Format(time.DateOnly), truncate(r.Title, 30),
			truncate(r.Source, 20), truncate(strings.ReplaceAll(match, "\n", " "), 50))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index to YAML or JSON",
	Long: `Export writes the whole index (or a filtered subset) to export.yaml or
export.json in the index directory. Supports the same filter flags as
retrieve for partial exports.`,
	PreRunE: bindFlags(indexFlagKeys),
	RunE:    runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := index.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := indexQueryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func indexQueryFromFlags(cmd *cobra.Command, args []string) (index.QueryOptions, error) {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	tags, _ := cmd.Flags().GetStringSlice("tag")
	typ, _ := cmd.Flags().GetString("type")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	from, to, err := dateRange(cmd)
	if err != nil {
		return index.QueryOptions{}, err
	}
	return index.QueryOptions{
		Query:       queryText,
		Tags:        tags,
		Type:        typ,
		Source:      source,
		CreatedFrom: from,
		CreatedTo:   to,
		MaxResults:  limit,
	}, nil
}

func addIndexQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "full-text search query")
	cmd.Flags().StringSlice("tag", nil, "filter by tag; repeat to require several")
	cmd.Flags().String("type", "", "filter by content type")
	cmd.Flags().String("source", "", "filter by ingested wiki")
	cmd.Flags().String("created-from", "", "created on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("created-to", "", "created before this date (YYYY-MM-DD)")
}

func init() {
	indexCmd.PersistentFlags().String("index-dir", "index", "directory holding tiddlers.db and exports")
	indexCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")

	indexStoreCmd.Flags().Bool("watch", false, "re-ingest the wiki whenever it is saved")
	indexStoreCmd.Flags().Duration("debounce", watch.DefaultDelay, "quiet period before re-ingesting")

	addIndexQueryFlags(indexRetrieveCmd)
	indexRetrieveCmd.Flags().Int("limit", 0, "maximum results (default from --max-results)")
	indexRetrieveCmd.Flags().Bool("json", false, "output results as JSON")
	indexRetrieveCmd.Flags().String("get", "", "print the tiddler with this title")

	addIndexQueryFlags(indexExportCmd)
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	indexCmd.AddCommand(indexStoreCmd, indexRetrieveCmd, indexExportCmd)
	rootCmd.AddCommand(indexCmd)
}
