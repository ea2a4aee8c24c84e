// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download executes candidate download attempts: rate-limited
// fetch, content validation, title-similarity checking, and atomic file
// placement.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/refharvest/internal/httputil"
	"github.com/pdiddy/refharvest/internal/resolve"
	"github.com/pdiddy/refharvest/pkg/types"
)

// Outcome classifies one download attempt.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeHTTPError        Outcome = "http-error"
	OutcomeWrongContentType Outcome = "wrong-content-type"
	OutcomeTitleMismatch    Outcome = "title-mismatch"
	OutcomeExhaustedRetries Outcome = "exhausted-retries"
)

// Attempt is the transient result of trying one candidate. Only the final
// record status survives it.
type Attempt struct {
	DOI      string
	URL      string
	Strategy types.SourceKind
	Outcome  Outcome
	Path     string
	Err      error
}

// pdfMagic is the signature PDF files start with.
var pdfMagic = []byte("%PDF")

// Downloader runs attempts through the shared Fetcher, which applies the
// global rate limiter and the retry/backoff policy to every request.
type Downloader struct {
	Fetcher *httputil.Fetcher

	// Threshold is the minimum title-similarity ratio; zero means
	// AcceptThreshold.
	Threshold float64
}

func (d *Downloader) threshold() float64 {
	if d.Threshold > 0 {
		return d.Threshold
	}
	return AcceptThreshold
}

// Download walks the candidate sequence in order and returns the first
// successful attempt, or the last failed one with ok=false.
func (d *Downloader) Download(ctx context.Context, doi, canonicalTitle string, cands []resolve.Candidate, destPath string) (Attempt, bool) {
	var last Attempt
	for _, cand := range cands {
		att := d.AttemptOne(ctx, doi, cand, canonicalTitle, destPath)
		if att.Outcome == OutcomeSuccess {
			return att, true
		}
		last = att
	}
	return last, false
}

// AttemptOne executes a single candidate attempt. When the candidate URL
// answers with an HTML wrapper page (typical of mirrors), the embedded
// PDF link is extracted and followed one hop before giving up.
func (d *Downloader) AttemptOne(ctx context.Context, doi string, cand resolve.Candidate, canonicalTitle, destPath string) Attempt {
	return d.attempt(ctx, doi, cand, canonicalTitle, destPath, true)
}

func (d *Downloader) attempt(ctx context.Context, doi string, cand resolve.Candidate, canonicalTitle, destPath string, allowHop bool) Attempt {
	att := Attempt{DOI: doi, URL: cand.URL, Strategy: cand.Strategy}

	resp, err := d.Fetcher.Get(ctx, cand.URL)
	if err != nil {
		att.Err = err
		if errors.Is(err, httputil.ErrExhaustedRetries) {
			att.Outcome = OutcomeExhaustedRetries
		} else {
			att.Outcome = OutcomeHTTPError
		}
		return att
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		att.Outcome = OutcomeHTTPError
		att.Err = fmt.Errorf("HTTP %d from %s", resp.StatusCode, cand.URL)
		return att
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		att.Outcome = OutcomeHTTPError
		att.Err = fmt.Errorf("reading download: %w", err)
		return att
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "pdf") || !bytes.HasPrefix(body, pdfMagic) {
		if allowHop && looksHTML(contentType, body) {
			if hop := d.followWrapper(ctx, doi, cand, canonicalTitle, destPath, body); hop != nil {
				return *hop
			}
		}
		att.Outcome = OutcomeWrongContentType
		att.Err = fmt.Errorf("not a PDF (Content-Type %q)", resp.Header.Get("Content-Type"))
		return att
	}

	// The page the candidate came from names the work it serves; reject
	// the download when that name disagrees with the canonical title.
	if cand.PageTitle != "" && canonicalTitle != "" {
		if sim := Similarity(canonicalTitle, cand.PageTitle); sim < d.threshold() {
			att.Outcome = OutcomeTitleMismatch
			att.Err = fmt.Errorf("title similarity %.2f below %.2f (page title %q)", sim, d.threshold(), cand.PageTitle)
			return att
		}
	}

	if err := writeFile(destPath, body); err != nil {
		att.Outcome = OutcomeHTTPError
		att.Err = err
		return att
	}
	att.Outcome = OutcomeSuccess
	att.Path = destPath
	return att
}

// followWrapper parses an HTML wrapper page and follows its embedded PDF
// links, a single hop deep. Returns nil when the wrapper yields nothing.
func (d *Downloader) followWrapper(ctx context.Context, doi string, cand resolve.Candidate, canonicalTitle, destPath string, body []byte) *Attempt {
	page, err := resolve.ParsePage(cand.URL, body)
	if err != nil {
		return nil
	}

	// A wrapper page titled after some other work means the mirror serves
	// the wrong document; don't chase its links.
	if page.Title != "" && canonicalTitle != "" {
		if sim := Similarity(canonicalTitle, page.Title); sim < d.threshold() {
			return &Attempt{
				DOI:      doi,
				URL:      cand.URL,
				Strategy: cand.Strategy,
				Outcome:  OutcomeTitleMismatch,
				Err:      fmt.Errorf("wrapper title similarity %.2f below %.2f (%q)", sim, d.threshold(), page.Title),
			}
		}
	}

	for _, link := range page.PDFLinks {
		hop := cand
		hop.URL = link
		hop.PageTitle = page.Title
		att := d.attempt(ctx, doi, hop, canonicalTitle, destPath, false)
		if att.Outcome == OutcomeSuccess {
			return &att
		}
	}
	return nil
}

func looksHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// writeFile lands body at destPath via a temp file and rename, so a
// partial download never appears under the final name.
func writeFile(destPath string, body []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(body)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
