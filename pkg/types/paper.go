// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Status is the lifecycle state of a PaperRecord. A record starts as
// StatusPending and is never mutated again once it reaches a terminal value.
type Status string

const (
	StatusPending          Status = "pending"
	StatusDownloaded       Status = "downloaded"
	StatusSkippedDuplicate Status = "skipped-duplicate"
	StatusFailedNotFound   Status = "failed-not-found"
	StatusFailedValidation Status = "failed-validation"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// SourceKind identifies which acquisition strategy produced a PDF.
type SourceKind string

const (
	SourceDirect     SourceKind = "direct"
	SourceOpenAccess SourceKind = "open-access"
	SourceMirror     SourceKind = "mirror"
	SourceCited      SourceKind = "cited"
)

// PaperRecord tracks one DOI through the acquisition pipeline.
type PaperRecord struct {
	// DOI is the normalized identifier, unique across the whole traversal.
	DOI string `json:"doi" yaml:"doi"`

	// Title is the canonical title from the metadata service. Empty until
	// metadata has been fetched.
	Title string `json:"title" yaml:"title"`

	// References lists the DOIs of works this paper cites, in source order.
	// May be empty when the metadata service has no linked reference list.
	References []string `json:"references,omitempty" yaml:"references,omitempty"`

	// Affiliations holds the author-affiliation strings from metadata,
	// consumed by the young-author filter.
	Affiliations []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`

	// Depth is the BFS distance from a seed DOI.
	Depth int `json:"depth" yaml:"depth"`

	// SourceKind records the strategy that delivered the PDF.
	SourceKind SourceKind `json:"source_kind,omitempty" yaml:"source_kind,omitempty"`

	// Status is the record's lifecycle state.
	Status Status `json:"status" yaml:"status"`

	// FilePath is the local path of the downloaded PDF, set on success.
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`

	// Err describes the last error kind encountered for failed records.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HistoryEntry is one row of the persistent download history, keyed by
// normalized DOI. Owned exclusively by the history store.
type HistoryEntry struct {
	DOI          string     `json:"doi" yaml:"doi"`
	FilePath     string     `json:"file_path" yaml:"file_path"`
	DownloadedAt time.Time  `json:"downloaded_at" yaml:"downloaded_at"`
	SourceKind   SourceKind `json:"source_kind" yaml:"source_kind"`
}
