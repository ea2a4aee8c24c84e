// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refharvest/internal/crawl"
	"github.com/pdiddy/refharvest/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <batch-dir>",
	Short: "List the download history of a batch directory",
	Long: `History prints the contents of a batch's history database: one line
per downloaded DOI with its source, timestamp, and file path. Use --json
for machine-readable output.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := crawl.Layout{Root: args[0]}.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no history database at %s", path)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries := store.Entries()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("History is empty.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%s  %-12s  %s  %s\n",
			e.DownloadedAt.Format("2006-01-02 15:04:05"), e.SourceKind, e.DOI, e.FilePath)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}
