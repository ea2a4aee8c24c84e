// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refharvest/internal/crawl"
	"github.com/pdiddy/refharvest/internal/download"
	"github.com/pdiddy/refharvest/internal/history"
	"github.com/pdiddy/refharvest/internal/httputil"
	"github.com/pdiddy/refharvest/internal/metadata"
	"github.com/pdiddy/refharvest/internal/resolve"
	"github.com/pdiddy/refharvest/pkg/types"
)

const (
	defaultTimeout = 15 * time.Second
	defaultRetries = 3
	defaultBackoff = 500 * time.Millisecond

	// Publisher sites refuse obvious bot agents; present a browser.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [DOIs...]",
	Short: "Download papers and their reference graphs",
	Long: `Fetch downloads the PDF for each seed DOI and then walks the reference
graph breadth-first: depth 0 lands in main/, depth N in refN/. DOIs may be
given as separate arguments or as one comma- or whitespace-separated list.

Already-downloaded DOIs (recorded in the batch history database) are
skipped without any network traffic. Individual failures are reported in
the run summary and never abort the batch.

Every flag can also be set in the config file under the same name; an
explicit flag wins over the file.`,
	RunE: runFetch,
}

func init() {
	registerFetchFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func registerFetchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("depth", 1, "deepest reference layer to traverse (0 = seeds only)")
	cmd.Flags().Int("workers", 4, "concurrent download pipelines per frontier")
	cmd.Flags().Float64("rps", 0, "global request rate limit in requests per second (0 = unlimited)")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 15s)")
	cmd.Flags().Int("retries", defaultRetries, "retries after a transient HTTP failure")
	cmd.Flags().Duration("backoff", 0, "base delay for exponential retry backoff (default 500ms)")
	cmd.Flags().String("unpaywall-email", "", "contact email for the Unpaywall API (enables the open-access source)")
	cmd.Flags().StringSlice("scihub-domains", nil, "comma-separated mirror base URLs, tried in order after the other sources (no default)")
	cmd.Flags().Bool("young", false, "keep only papers with a young-author affiliation before expanding --young-depth")
	cmd.Flags().Int("young-depth", 2, "depth at which the young-author filter applies")
	cmd.Flags().StringSlice("young-keywords", nil, "override the built-in affiliation keyword set")
	cmd.Flags().Bool("cited", false, "also download papers citing each seed DOI into cited/")
	cmd.Flags().Int("cited-rows", 10, "maximum citing papers per seed")
	cmd.Flags().String("out-dir", "downloads", "root output directory")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more DOIs")
	}
	seeds, err := resolve.ParseList(strings.Join(args, " "))
	if err != nil {
		return err
	}

	// Merge the config file and environment under the flags: an explicit
	// flag wins, otherwise the viper value applies, otherwise the flag
	// default.
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg := crawlConfig(viper.GetViper())

	fetcher := httputil.NewFetcher(cfg.HTTPConfig)
	meta := &metadata.Client{
		Fetcher: fetcher,
		APIKey:  secretDefault("semantic-scholar-api-key", ""),
	}

	layout := crawl.NewLayout(cfg.OutDir, seeds)
	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return fmt.Errorf("creating batch directory: %w", err)
	}

	store, err := history.Open(layout.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	crawler := &crawl.Crawler{
		Meta:       meta,
		Sources:    resolve.NewChain(fetcher, cfg, os.Stdout),
		Downloader: &download.Downloader{Fetcher: fetcher},
		History:    store,
		Layout:     layout,
		Cfg:        cfg,
		Out:        os.Stdout,
	}

	ctx := context.Background()
	crawler.Run(ctx, seeds)

	if cfg.Cited {
		for _, seed := range seeds {
			crawler.RunCited(ctx, seed)
		}
	}
	return nil
}

// crawlConfig reads the effective settings from v, which must already have
// the fetch flags bound.
func crawlConfig(v *viper.Viper) types.CrawlConfig {
	timeout := v.GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	backoff := v.GetDuration("backoff")
	if backoff == 0 {
		backoff = defaultBackoff
	}

	return types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
			Retries:   v.GetInt("retries"),
			Backoff:   backoff,
			RPS:       v.GetFloat64("rps"),
		},
		MaxDepth:       v.GetInt("depth"),
		Workers:        v.GetInt("workers"),
		OutDir:         v.GetString("out-dir"),
		UnpaywallEmail: secretDefault("unpaywall-email", v.GetString("unpaywall-email")),
		Mirrors:        v.GetStringSlice("scihub-domains"),
		Young: types.FilterConfig{
			Enabled:  v.GetBool("young"),
			Depth:    v.GetInt("young-depth"),
			Keywords: v.GetStringSlice("young-keywords"),
		},
		Cited:     v.GetBool("cited"),
		CitedRows: v.GetInt("cited-rows"),
	}
}
