// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/refharvest/internal/httputil"
	"github.com/pdiddy/refharvest/pkg/types"
)

// unpaywallAPIBase is the Unpaywall v2 endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// UnpaywallSource looks up an open-access copy via the Unpaywall API.
// The API requires a contact email; without one the source is inert.
type UnpaywallSource struct {
	Fetcher *httputil.Fetcher
	Email   string
}

func (s *UnpaywallSource) Name() string { return "unpaywall" }

// Unpaywall API JSON structures.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation  `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

func (l unpaywallLocation) pick() string {
	if l.URLForPDF != "" {
		return l.URLForPDF
	}
	return l.URL
}

// Resolve returns zero or one candidate: the best open-access PDF location
// Unpaywall reports, falling back through the remaining OA locations.
func (s *UnpaywallSource) Resolve(ctx context.Context, doi string) (Resolution, error) {
	if s.Email == "" {
		return Resolution{}, nil
	}

	apiURL := unpaywallAPIBase + url.PathEscape(doi) + "?email=" + url.QueryEscape(s.Email)
	resp, err := s.Fetcher.Get(ctx, apiURL)
	if err != nil {
		return Resolution{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Resolution{}, fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var ur unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return Resolution{}, fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	var pdfURL string
	if ur.BestOALocation != nil {
		pdfURL = ur.BestOALocation.pick()
	}
	if pdfURL == "" {
		for _, loc := range ur.OALocations {
			if u := loc.pick(); u != "" {
				pdfURL = u
				break
			}
		}
	}
	if pdfURL == "" {
		return Resolution{}, nil
	}
	return Resolution{Candidates: []Candidate{{URL: pdfURL, Strategy: types.SourceOpenAccess}}}, nil
}
