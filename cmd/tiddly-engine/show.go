// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/pdiddy/tiddly-engine/internal/export"
)

var showCmd = &cobra.Command{
	Use:   "show <wiki> <title>",
	Short: "Print one tiddler",
	Long: `Show prints a single tiddler as a document: a heading, its dates and tags,
then the body converted to the --to format. --raw prints the stored body
with entities decoded and nothing else.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: bindFlags(map[string]string{"backend": "conversion.backend"}),
	RunE:    runShow,
}

func init() {
	showCmd.Flags().String("to", "markdown", "output format (non-markdown formats need --backend pandoc)")
	showCmd.Flags().String("backend", "native", "conversion backend: native or pandoc")
	showCmd.Flags().Bool("raw", false, "print the body only, without conversion")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	wk, err := loadWiki(ctx, args[0], cfg.Fetch, scanner(false))
	if err != nil {
		return err
	}
	t, ok := wk.Get(args[1])
	if !ok {
		return fmt.Errorf("no tiddler titled %q in %s", args[1], args[0])
	}

	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		fmt.Fprintln(os.Stdout, html.UnescapeString(t.Content))
		return nil
	}

	conv, err := newConverter(ctx, cfg.Conversion)
	if err != nil {
		return err
	}
	to, _ := cmd.Flags().GetString("to")
	doc, err := export.Document(ctx, conv, t, to)
	recorder.Conversion(err)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, doc)
	return nil
}
