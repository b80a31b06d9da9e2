// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tiddly-engine/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <wiki>...",
	Short: "Export tiddlers to files or compile them into one document",
	Long: `Export writes each selected tiddler to its own file in --out, named after
its title. Existing files are skipped. With --single the tiddlers of each
wiki are compiled into one document instead, ordered by --sort.

Markdown is produced natively. Other formats (html, docx, pdf, latex, ...)
need --backend pandoc and a docker or podman runtime.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: bindFlags(map[string]string{
		"out":          "export.output_dir",
		"format":       "export.format",
		"sort":         "export.sort_by",
		"workers":      "export.workers",
		"backend":      "conversion.backend",
		"pandoc-image": "conversion.pandoc_image",
	}),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "export", "output directory")
	exportCmd.Flags().String("format", "markdown", "output format")
	exportCmd.Flags().Bool("single", false, "compile each wiki into one document")
	exportCmd.Flags().String("sort", "created", "compiled order: created, modified, or title")
	exportCmd.Flags().Int("workers", 0, "parallel conversions (default GOMAXPROCS)")
	exportCmd.Flags().String("backend", "native", "conversion backend: native or pandoc")
	exportCmd.Flags().String("pandoc-image", "pandoc/latex:latest", "container image for the pandoc backend")
	addFilterFlags(exportCmd)

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	preds, err := predicatesFromFlags(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	wikis, err := loadWikis(ctx, args, cfg.Fetch, scanner(false))
	if err != nil {
		return err
	}
	conv, err := newConverter(ctx, cfg.Conversion)
	if err != nil {
		return err
	}
	single, _ := cmd.Flags().GetBool("single")

	var failed int
	for _, lw := range wikis {
		ec := cfg.Export
		if len(wikis) > 1 && !single {
			ec.OutputDir = filepath.Join(ec.OutputDir, export.Slug(wikiName(lw)))
		}
		exp := &export.Exporter{
			Converter: conv,
			Config:    ec,
			Log:       log.WithField("source", lw.Source),
			OnConvert: recorder.Conversion,
		}
		ts := selectTiddlers(lw.Wiki, preds)

		if single {
			path := export.CompilePath(ec.OutputDir, lw.Wiki, ec.Format)
			res, err := exp.Compile(ctx, lw.Wiki, ts, path, os.Stdout)
			if err != nil {
				return err
			}
			failed += len(res.Excluded)
			continue
		}

		res, err := exp.Tiddlers(ctx, ts, os.Stdout)
		if err != nil {
			return err
		}
		failed += res.Failed
	}

	if failed > 0 {
		return fmt.Errorf("%d tiddler(s) failed conversion", failed)
	}
	return nil
}

// wikiName names a wiki's output directory: its title, else its file name.
func wikiName(lw loadedWiki) string {
	if lw.Wiki.Title != "" {
		return lw.Wiki.Title
	}
	return filepath.Base(lw.Source)
}
