// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// semanticAPIBase is the Semantic Scholar Graph API paper endpoint.
// Declared as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/"

const maxCitingRows = 200

// Semantic Scholar citations JSON structures.
type citationsResponse struct {
	Data []citationItem `json:"data"`
}

type citationItem struct {
	CitingPaper citingPaper `json:"citingPaper"`
}

type citingPaper struct {
	ExternalIDs externalIDs `json:"externalIds"`
}

type externalIDs struct {
	DOI string `json:"DOI"`
}

// FetchCiting returns up to maxRows DOIs of papers that cite doi, via the
// Semantic Scholar Graph API. Results feed the one-shot cited-by pipeline;
// no recursion is applied to them. Citing papers without a DOI are dropped.
func (c *Client) FetchCiting(ctx context.Context, doi string, maxRows int) ([]string, error) {
	if maxRows < 1 {
		maxRows = 1
	}
	if maxRows > maxCitingRows {
		maxRows = maxCitingRows
	}

	params := url.Values{
		"fields": {"externalIds"},
		"limit":  {fmt.Sprintf("%d", maxRows)},
	}
	reqURL := semanticAPIBase + "DOI:" + url.PathEscape(doi) + "/citations?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := c.Fetcher.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar citations for %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d for %s", resp.StatusCode, doi)
	}

	var cr citationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing citations response for %s: %w", doi, err)
	}

	var dois []string
	for _, item := range cr.Data {
		if d := item.CitingPaper.ExternalIDs.DOI; d != "" {
			dois = append(dois, d)
		}
	}
	return dois, nil
}
