// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns a DOI into ranked candidate download URLs across
// three source strategies: direct publisher page, open-access lookup, and
// mirror fallback.
package resolve

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/refharvest/internal/httputil"
	"github.com/pdiddy/refharvest/pkg/types"
)

// Candidate is one download attempt target.
type Candidate struct {
	// URL is the location to fetch.
	URL string

	// Strategy identifies the source that produced this candidate.
	Strategy types.SourceKind

	// PageTitle is the title of the page the candidate was extracted from,
	// used for the title-similarity check. Empty when the source gives a
	// direct PDF location.
	PageTitle string
}

// Resolution is the outcome of resolving one DOI.
type Resolution struct {
	// Candidates are the download targets in strategy priority order.
	Candidates []Candidate

	// PageDOIs are DOIs harvested from fetched pages during resolution,
	// used as a reference fallback when the metadata service has none.
	PageDOIs []string
}

// Source produces candidates for one strategy.
type Source interface {
	Name() string
	Resolve(ctx context.Context, doi string) (Resolution, error)
}

// Chain tries each source in fixed priority order. It never fails: a
// source error is logged and skipped, and an empty candidate list means
// no source could produce a target.
type Chain struct {
	Sources []Source
	Log     io.Writer
}

// NewChain assembles the standard strategy order from cfg: publisher
// first, then Unpaywall when an email is configured, then any
// caller-supplied mirrors.
func NewChain(f *httputil.Fetcher, cfg types.CrawlConfig, log io.Writer) *Chain {
	sources := []Source{&PublisherSource{Fetcher: f}}
	if cfg.UnpaywallEmail != "" {
		sources = append(sources, &UnpaywallSource{Fetcher: f, Email: cfg.UnpaywallEmail})
	}
	if len(cfg.Mirrors) > 0 {
		sources = append(sources, &MirrorSource{Bases: cfg.Mirrors})
	}
	return &Chain{Sources: sources, Log: log}
}

// Resolve collects candidates from every source in order.
func (c *Chain) Resolve(ctx context.Context, doi string) Resolution {
	var out Resolution
	for _, s := range c.Sources {
		res, err := s.Resolve(ctx, doi)
		if err != nil {
			if c.Log != nil {
				fmt.Fprintf(c.Log, "  warning: %s resolution failed for %s: %v\n", s.Name(), doi, err)
			}
			continue
		}
		out.Candidates = append(out.Candidates, res.Candidates...)
		out.PageDOIs = append(out.PageDOIs, res.PageDOIs...)
	}
	return out
}
