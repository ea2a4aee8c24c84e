// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundViper(t *testing.T, cmd *cobra.Command, configYAML string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(configYAML)))
	require.NoError(t, v.BindPFlags(cmd.Flags()))
	return v
}

func TestCrawlConfigReadsConfigFile(t *testing.T) {
	cmd := &cobra.Command{}
	registerFetchFlags(cmd)

	v := boundViper(t, cmd, `
workers: 8
rps: 2.5
timeout: 30s
unpaywall-email: me@example.com
scihub-domains:
  - https://m1.example.org
  - https://m2.example.org
young: true
young-keywords:
  - phd
  - "博士"
`)

	cfg := crawlConfig(v)

	// File values apply when the flag was not given.
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2.5, cfg.RPS)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "me@example.com", cfg.UnpaywallEmail)
	assert.Equal(t, []string{"https://m1.example.org", "https://m2.example.org"}, cfg.Mirrors)
	assert.True(t, cfg.Young.Enabled)
	assert.Equal(t, []string{"phd", "博士"}, cfg.Young.Keywords)

	// Untouched settings keep their flag defaults.
	assert.Equal(t, 1, cfg.MaxDepth)
	assert.Equal(t, defaultRetries, cfg.Retries)
	assert.Equal(t, "downloads", cfg.OutDir)
}

func TestCrawlConfigFlagBeatsConfigFile(t *testing.T) {
	cmd := &cobra.Command{}
	registerFetchFlags(cmd)
	require.NoError(t, cmd.Flags().Set("depth", "3"))
	require.NoError(t, cmd.Flags().Set("workers", "2"))

	v := boundViper(t, cmd, "depth: 1\nworkers: 8\nrps: 2\n")

	cfg := crawlConfig(v)

	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, 2, cfg.Workers)
	// Settings only in the file still come through.
	assert.Equal(t, 2.0, cfg.RPS)
}

func TestCrawlConfigDefaults(t *testing.T) {
	cmd := &cobra.Command{}
	registerFetchFlags(cmd)

	v := viper.New()
	require.NoError(t, v.BindPFlags(cmd.Flags()))

	cfg := crawlConfig(v)

	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultBackoff, cfg.Backoff)
	assert.Equal(t, defaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 4, cfg.Workers)
	assert.Zero(t, cfg.RPS)
	assert.False(t, cfg.Cited)
	assert.Equal(t, 10, cfg.CitedRows)
}
