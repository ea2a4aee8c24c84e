// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata fetches canonical titles, reference lists, and citing
// papers from bibliographic APIs.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/refharvest/internal/httputil"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// Client queries bibliographic metadata services through the shared Fetcher.
type Client struct {
	Fetcher *httputil.Fetcher

	// APIKey is an optional Semantic Scholar key for higher rate limits.
	APIKey string
}

// Work holds the metadata needed by the pipeline for one DOI.
type Work struct {
	// Title is the canonical title, the ground truth for similarity checks.
	Title string

	// References lists the DOIs of cited works. Empty when the service has
	// no linked reference list; that is a leaf, not an error.
	References []string

	// Affiliations holds author-affiliation strings for the young-author
	// filter. Authors without affiliation data contribute nothing.
	Affiliations []string
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title     []string            `json:"title"`
	Author    []crossrefAuthor    `json:"author"`
	Reference []crossrefReference `json:"reference"`
}

type crossrefAuthor struct {
	Given       string                `json:"given"`
	Family      string                `json:"family"`
	Affiliation []crossrefAffiliation `json:"affiliation"`
}

type crossrefAffiliation struct {
	Name string `json:"name"`
}

type crossrefReference struct {
	DOI string `json:"DOI"`
}

// Fetch retrieves the canonical title, reference DOIs, and author
// affiliations for a DOI. HTTP 404/410 surfaces as httputil.ErrNotFound
// and is fatal for the record; transient failures are retried by the
// shared policy before surfacing.
func (c *Client) Fetch(ctx context.Context, doi string) (*Work, error) {
	resp, err := c.Fetcher.Get(ctx, crossrefAPIBase+url.PathEscape(doi))
	if err != nil {
		return nil, fmt.Errorf("CrossRef lookup for %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CrossRef API returned HTTP %d for %s", resp.StatusCode, doi)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response for %s: %w", doi, err)
	}

	w := &Work{}
	if len(cr.Message.Title) > 0 {
		w.Title = cr.Message.Title[0]
	}
	for _, ref := range cr.Message.Reference {
		if ref.DOI != "" {
			w.References = append(w.References, ref.DOI)
		}
	}
	for _, a := range cr.Message.Author {
		for _, aff := range a.Affiliation {
			if aff.Name != "" {
				w.Affiliations = append(w.Affiliations, aff.Name)
			}
		}
	}
	return w, nil
}
