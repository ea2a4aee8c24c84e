// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/refharvest/internal/httputil"
	"github.com/pdiddy/refharvest/pkg/types"
)

// doiResolverBase is the DOI redirect resolver. Declared as a var so tests
// can substitute an httptest server.
var doiResolverBase = "https://doi.org/"

// maxPageBytes caps how much of a landing page is read for link extraction.
const maxPageBytes = 4 << 20

// PublisherSource scrapes the DOI's publisher landing page for PDF links.
// Most effective from an academic network; off campus the links usually
// lead to a paywall and the later strategies take over.
type PublisherSource struct {
	Fetcher *httputil.Fetcher
}

func (s *PublisherSource) Name() string { return "publisher" }

// Resolve fetches the redirect target of https://doi.org/<doi> and applies
// heuristic link extraction. Candidates carry the landing page title so
// the downloader can verify it against the canonical title. DOIs embedded
// in the page are harvested for the reference fallback.
func (s *PublisherSource) Resolve(ctx context.Context, doi string) (Resolution, error) {
	resp, err := s.Fetcher.Get(ctx, doiResolverBase+doi)
	if err != nil {
		return Resolution{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Resolution{}, fmt.Errorf("publisher page returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Resolution{}, fmt.Errorf("reading publisher page: %w", err)
	}

	// resp.Request.URL is the post-redirect location; relative links on
	// the publisher page resolve against it, not against doi.org.
	finalURL := doiResolverBase + doi
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page, err := ParsePage(finalURL, body)
	if err != nil {
		return Resolution{}, fmt.Errorf("parsing publisher page: %w", err)
	}

	res := Resolution{PageDOIs: page.DOIs}
	for _, link := range page.PDFLinks {
		res.Candidates = append(res.Candidates, Candidate{
			URL:       link,
			Strategy:  types.SourceDirect,
			PageTitle: page.Title,
		})
	}
	return res, nil
}
