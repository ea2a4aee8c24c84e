// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refharvest/internal/httputil"
	"github.com/pdiddy/refharvest/pkg/types"
)

func testCitingClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	old := semanticAPIBase
	semanticAPIBase = baseURL + "/"
	t.Cleanup(func() { semanticAPIBase = old })

	return &Client{
		Fetcher: httputil.NewFetcher(types.HTTPConfig{Timeout: 5 * time.Second}),
		APIKey:  apiKey,
	}
}

func TestFetchCiting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/citations"))
		assert.Equal(t, "externalIds", r.URL.Query().Get("fields"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get("x-api-key"))
		w.Write([]byte(`{
			"data": [
				{"citingPaper": {"externalIds": {"DOI": "10.1000/citing1"}}},
				{"citingPaper": {"externalIds": {}}},
				{"citingPaper": {"externalIds": {"DOI": "10.1000/citing2"}}}
			]
		}`))
	}))
	defer srv.Close()

	c := testCitingClient(t, srv.URL, "")
	dois, err := c.FetchCiting(context.Background(), "10.1000/seed", 10)
	require.NoError(t, err)

	// Citing papers without a DOI are dropped.
	assert.Equal(t, []string{"10.1000/citing1", "10.1000/citing2"}, dois)
}

func TestFetchCitingSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk_test", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := testCitingClient(t, srv.URL, "sk_test")
	dois, err := c.FetchCiting(context.Background(), "10.1000/seed", 5)
	require.NoError(t, err)
	assert.Empty(t, dois)
}

func TestFetchCitingClampsRows(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := testCitingClient(t, srv.URL, "")
	_, err := c.FetchCiting(context.Background(), "10.1000/seed", 5000)
	require.NoError(t, err)
	assert.Equal(t, "200", gotLimit)

	_, err = c.FetchCiting(context.Background(), "10.1000/seed", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", gotLimit)
}
