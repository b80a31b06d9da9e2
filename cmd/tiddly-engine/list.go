// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list <wiki>...",
	Short: "List the tiddlers of one or more wikis",
	Long: `List extracts the tiddlers of each wiki and prints them as a table, JSON or
YAML. System tiddlers ($:/...) and blocks without a created stamp are never
listed; --show-rejected reports them on stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
	listCmd.Flags().Bool("yaml", false, "output as YAML")
	listCmd.Flags().Bool("show-rejected", false, "report skipped blocks on stderr")
	addFilterFlags(listCmd)

	rootCmd.AddCommand(listCmd)
}

// listEntry is one listed tiddler with the wiki it came from.
type listEntry struct {
	Source        string `json:"source" yaml:"source"`
	types.Tiddler `yaml:",inline"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	preds, err := predicatesFromFlags(cmd)
	if err != nil {
		return err
	}
	showRejected, _ := cmd.Flags().GetBool("show-rejected")

	wikis, err := loadWikis(context.Background(), args, cfg.Fetch, scanner(showRejected))
	if err != nil {
		return err
	}

	entries := []listEntry{}
	for _, lw := range wikis {
		for _, t := range selectTiddlers(lw.Wiki, preds) {
			entries = append(entries, listEntry{Source: lw.Source, Tiddler: t})
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	switch {
	case jsonOutput:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case yamlOutput:
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(entries)
	default:
		formatListTable(os.Stdout, entries, len(wikis) > 1)
		return nil
	}
}

// formatListTable prints entries as a fixed-width table. The source column
// is shown only when several wikis were listed.
func formatListTable(w io.Writer, entries []listEntry, withSource bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No tiddlers found.")
		return
	}

	header := fmt.Sprintf("%-10s  %-10s  %-20s  %-30s  %s", "Created", "Modified", "Type", "Tags", "Title")
	if withSource {
		header = fmt.Sprintf("%-20s  ", "Source") + header
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)+10))

	for _, e := range entries {
		modified := ""
		if e.HasModified() {
			modified = e.Modified.Format(time.DateOnly)
		}
		if withSource {
			fmt.Fprintf(w, "%-20s  ", truncate(e.Source, 20))
		}
		fmt.Fprintf(w, "%-10s  %-10s  %-20s  %-30s  %s\n",
			e.Created.Format(time.DateOnly), modified, truncate(e.Type, 20),
			truncate(strings.Join(e.Tags, ", "), 30), e.Title)
	}

	fmt.Fprintf(w, "\n%d tiddlers\n", len(entries))
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
