// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl drives the breadth-first traversal of a reference graph:
// per-depth frontiers, a bounded worker pool, history-backed dedup, and
// the optional cited-by pipeline.
package crawl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refharvest/internal/download"
	"github.com/pdiddy/refharvest/internal/history"
	"github.com/pdiddy/refharvest/internal/metadata"
	"github.com/pdiddy/refharvest/internal/resolve"
	"github.com/pdiddy/refharvest/pkg/types"
)

const defaultWorkers = 4

// Summary holds the outcome counts of a run.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of records processed.
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// HasFailures reports whether any record failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s *Summary) count(rec *types.PaperRecord) {
	switch rec.Status {
	case types.StatusDownloaded:
		s.Downloaded++
	case types.StatusSkippedDuplicate:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Metadata is the subset of the metadata client the coordinator uses.
type Metadata interface {
	Fetch(ctx context.Context, doi string) (*metadata.Work, error)
	FetchCiting(ctx context.Context, doi string, maxRows int) ([]string, error)
}

// Crawler owns one batch: the shared clients, the history store, and the
// output layout. All of its state is safe for the worker pool to share.
type Crawler struct {
	Meta       Metadata
	Sources    *resolve.Chain
	Downloader *download.Downloader
	History    *history.Store
	Layout     Layout
	Cfg        types.CrawlConfig
	Out        io.Writer

	logMu sync.Mutex
}

func (c *Crawler) logf(format string, args ...any) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Crawler) workers() int {
	if c.Cfg.Workers > 0 {
		return c.Cfg.Workers
	}
	return defaultWorkers
}

// Run seeds frontier 0 with the input DOIs and walks references
// breadth-first to Cfg.MaxDepth. Each frontier drains completely before
// the next one forms; a failure in one record never cancels its siblings.
func (c *Crawler) Run(ctx context.Context, seeds []string) Summary {
	visited := newVisitedSet()
	filter := NewAuthorFilter(c.Cfg.Young.Keywords)

	var frontier []*types.PaperRecord
	for _, doi := range seeds {
		if visited.markIfNew(doi) {
			frontier = append(frontier, &types.PaperRecord{DOI: doi, Status: types.StatusPending})
		}
	}

	var sum Summary
	for depth := 0; len(frontier) > 0; depth++ {
		dir := c.Layout.DepthDir(depth)
		c.logf("depth %d: scheduling %d download(s) -> %s (%d workers)\n",
			depth, len(frontier), filepath.Base(dir), c.workers())

		c.processFrontier(ctx, frontier, dir)
		for _, rec := range frontier {
			sum.count(rec)
		}

		if depth >= c.Cfg.MaxDepth {
			break
		}

		survivors := frontier
		if c.Cfg.Young.Enabled && depth == c.Cfg.Young.Depth {
			survivors = nil
			for _, rec := range frontier {
				if filter.Keep(rec.Affiliations) {
					survivors = append(survivors, rec)
					continue
				}
				c.logf("filtered: %s (no matching author affiliation)\n", rec.DOI)
			}
		}

		var next []*types.PaperRecord
		for _, rec := range survivors {
			for _, ref := range rec.References {
				doi := resolve.Normalize(ref)
				if !resolve.Valid(doi) || !visited.markIfNew(doi) {
					continue
				}
				next = append(next, &types.PaperRecord{
					DOI:    doi,
					Depth:  depth + 1,
					Status: types.StatusPending,
				})
			}
		}
		frontier = next
	}

	c.logf("\nRun summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		sum.Downloaded, sum.Skipped, sum.Failed, sum.Total())
	return sum
}

// RunCited fetches up to Cfg.CitedRows papers citing seed and feeds them
// through the download pipeline into cited/. One shot, no recursion, and
// a visited-set independent of the depth traversal; the shared history
// store still prevents duplicate fetches across the two pipelines.
func (c *Crawler) RunCited(ctx context.Context, seed string) Summary {
	rows := c.Cfg.CitedRows
	if rows <= 0 {
		rows = 10
	}

	citing, err := c.Meta.FetchCiting(ctx, seed, rows)
	if err != nil {
		c.logf("  warning: citing lookup failed for %s: %v\n", seed, err)
		return Summary{}
	}
	if len(citing) == 0 {
		c.logf("no citing DOIs found for %s\n", seed)
		return Summary{}
	}

	visited := newVisitedSet()
	var frontier []*types.PaperRecord
	for _, raw := range citing {
		doi := resolve.Normalize(raw)
		if !resolve.Valid(doi) || !visited.markIfNew(doi) {
			continue
		}
		frontier = append(frontier, &types.PaperRecord{
			DOI:        doi,
			SourceKind: types.SourceCited,
			Status:     types.StatusPending,
		})
	}

	c.logf("cited-by %s: scheduling %d download(s) -> cited (%d workers)\n",
		seed, len(frontier), c.workers())
	c.processFrontier(ctx, frontier, c.Layout.CitedDir())

	var sum Summary
	for _, rec := range frontier {
		sum.count(rec)
	}
	c.logf("Cited summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		sum.Downloaded, sum.Skipped, sum.Failed, sum.Total())
	return sum
}

// processFrontier fans the frontier out over the worker pool and waits for
// every record to reach a terminal status.
func (c *Crawler) processFrontier(ctx context.Context, frontier []*types.PaperRecord, dir string) {
	jobs := make(chan *types.PaperRecord)
	var wg sync.WaitGroup

	for i := 0; i < c.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				c.process(ctx, rec, dir)
			}
		}()
	}

	for _, rec := range frontier {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
}

// process runs one record through the pipeline: history check, metadata,
// source resolution, download, history append.
func (c *Crawler) process(ctx context.Context, rec *types.PaperRecord, dir string) {
	if hist, ok := c.History.Get(rec.DOI); ok {
		rec.Status = types.StatusSkippedDuplicate
		rec.FilePath = hist.FilePath
		if rec.SourceKind == "" {
			rec.SourceKind = hist.SourceKind
		}
		c.logf("skipped: %s (already downloaded)\n", rec.DOI)
		return
	}

	work, err := c.Meta.Fetch(ctx, rec.DOI)
	if err != nil {
		rec.Status = types.StatusFailedNotFound
		rec.Err = err.Error()
		c.logf("failed:  %s (%v)\n", rec.DOI, err)
		return
	}
	rec.Title = work.Title
	rec.References = work.References
	rec.Affiliations = work.Affiliations

	res := c.Sources.Resolve(ctx, rec.DOI)

	// Landing pages often embed the reference DOIs the metadata service
	// lacks; use them as a fallback, never counting the paper itself.
	if len(rec.References) == 0 && len(res.PageDOIs) > 0 {
		for _, doi := range res.PageDOIs {
			if doi != rec.DOI {
				rec.References = append(rec.References, doi)
			}
		}
	}

	if len(res.Candidates) == 0 {
		rec.Status = types.StatusFailedNotFound
		rec.Err = "no download candidates"
		c.logf("failed:  %s (no download candidates)\n", rec.DOI)
		return
	}

	dest := c.Layout.PDFPath(dir, rec.DOI, rec.Title)
	att, ok := c.Downloader.Download(ctx, rec.DOI, rec.Title, res.Candidates, dest)
	if !ok {
		switch att.Outcome {
		case download.OutcomeWrongContentType, download.OutcomeTitleMismatch:
			rec.Status = types.StatusFailedValidation
		default:
			rec.Status = types.StatusFailedNotFound
		}
		rec.Err = string(att.Outcome)
		c.logf("failed:  %s (%s)\n", rec.DOI, att.Outcome)
		return
	}

	rec.Status = types.StatusDownloaded
	rec.FilePath = att.Path
	if rec.SourceKind != types.SourceCited {
		rec.SourceKind = att.Strategy
	}

	entry := types.HistoryEntry{
		DOI:          rec.DOI,
		FilePath:     att.Path,
		DownloadedAt: time.Now().UTC(),
		SourceKind:   rec.SourceKind,
	}
	if err := c.History.Record(entry); err != nil {
		c.logf("  warning: history append failed for %s: %v\n", rec.DOI, err)
	}
	if err := c.writeSidecar(rec); err != nil {
		c.logf("  warning: metadata write failed for %s: %v\n", rec.DOI, err)
	}

	c.logf("downloaded: %s (%s) -> %s\n", rec.DOI, rec.SourceKind, att.Path)
}

// writeSidecar records the paper's metadata next to the downloads.
func (c *Crawler) writeSidecar(rec *types.PaperRecord) error {
	dir := c.Layout.MetadataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	path := filepath.Join(dir, resolve.Slug(rec.DOI)+".yaml")
	return os.WriteFile(path, data, 0o644)
}
