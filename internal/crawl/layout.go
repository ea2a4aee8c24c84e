// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pdiddy/refharvest/internal/resolve"
)

const (
	mainDir     = "main"
	citedDir    = "cited"
	metadataDir = "metadata"
	historyFile = "history.db"
)

// Layout maps pipeline artifacts onto the batch directory: main/ for
// depth-0 downloads, ref<N>/ per reference depth, cited/ for citing
// papers, metadata/ for YAML sidecars, and the history database at the
// batch root.
type Layout struct {
	Root string

	names *nameRegistry
}

// NewLayout places a batch directory named after the first seed DOI under
// outDir.
func NewLayout(outDir string, seeds []string) Layout {
	batch := "batch"
	if len(seeds) > 0 {
		batch = resolve.Slug(seeds[0])
	}
	return Layout{
		Root:  filepath.Join(outDir, batch),
		names: &nameRegistry{owners: make(map[string]string)},
	}
}

// DepthDir returns the download directory for one BFS depth.
func (l Layout) DepthDir(depth int) string {
	if depth == 0 {
		return filepath.Join(l.Root, mainDir)
	}
	return filepath.Join(l.Root, fmt.Sprintf("ref%d", depth))
}

// CitedDir returns the flat directory for citing-paper downloads.
func (l Layout) CitedDir() string {
	return filepath.Join(l.Root, citedDir)
}

// MetadataDir returns the directory for per-paper metadata sidecars.
func (l Layout) MetadataDir() string {
	return filepath.Join(l.Root, metadataDir)
}

// HistoryPath returns the history database location.
func (l Layout) HistoryPath() string {
	return filepath.Join(l.Root, historyFile)
}

// PDFPath names the PDF after the canonical title when one is known,
// falling back to the DOI slug. When a second DOI resolves to a path an
// earlier DOI already claimed, the DOI slug is suffixed so neither file
// overwrites the other.
func (l Layout) PDFPath(dir, doi, title string) string {
	stem := sanitizeFileName(title)
	if stem == "" {
		stem = resolve.Slug(doi)
	}
	path := filepath.Join(dir, stem+".pdf")
	if l.names == nil {
		return path
	}
	return l.names.claim(doi, path, filepath.Join(dir, stem+"-"+resolve.Slug(doi)+".pdf"))
}

// nameRegistry tracks which DOI owns each file path within a run.
type nameRegistry struct {
	mu     sync.Mutex
	owners map[string]string
}

func (r *nameRegistry) claim(doi, path, alt string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.owners[path]; taken && owner != doi {
		return alt
	}
	r.owners[path] = doi
	return path
}

var illegalFileChars = regexp.MustCompile(`[\\/:*?"<>|#&]`)

const maxFileStem = 150

// sanitizeFileName makes a title safe to use as a file name stem.
// Truncation counts runes, not bytes, so multi-byte titles stay valid
// UTF-8.
func sanitizeFileName(title string) string {
	stem := illegalFileChars.ReplaceAllString(title, "_")
	if runes := []rune(stem); len(runes) > maxFileStem {
		stem = string(runes[:maxFileStem]) + ".."
	}
	return stem
}
