// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the refharvest pipeline.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound request.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Retries is the number of retries after a transient failure
	// (timeout, connection error, HTTP 5xx/429).
	Retries int `json:"retries" yaml:"retries"`

	// Backoff is the base delay for exponential retry backoff:
	// delay = Backoff * 2^attempt.
	Backoff time.Duration `json:"backoff" yaml:"backoff"`

	// RPS is the global request rate limit shared by all workers.
	// Zero disables the limiter.
	RPS float64 `json:"rps" yaml:"rps"`
}

// FilterConfig holds young-author filter settings.
type FilterConfig struct {
	// Enabled turns the affiliation filter on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Depth is the BFS depth whose records are filtered before their
	// references expand (default 2).
	Depth int `json:"depth" yaml:"depth"`

	// Keywords override the default affiliation keyword set.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// CrawlConfig holds settings for a reference-graph crawl.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxDepth is the deepest reference layer to traverse (0 = seeds only).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Workers caps concurrent download pipelines within one frontier
	// (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// OutDir is the root output directory; each batch gets a subdirectory.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// UnpaywallEmail is the contact address for the Unpaywall API.
	// Empty disables the open-access strategy.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`

	// Mirrors lists caller-supplied mirror base URLs, tried in order.
	// There are no built-in defaults; empty disables the mirror strategy.
	Mirrors []string `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`

	// Young configures the young-author affiliation filter.
	Young FilterConfig `json:"young" yaml:"young"`

	// Cited enables the one-shot cited-by pipeline.
	Cited bool `json:"cited" yaml:"cited"`

	// CitedRows caps citing papers fetched per seed DOI (default 10).
	CitedRows int `json:"cited_rows" yaml:"cited_rows"`
}
