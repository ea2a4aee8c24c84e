// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestLayout(t *testing.T) {
	l := NewLayout("downloads", []string{"10.1000/xyz123", "10.1000/other"})

	assert.Equal(t, filepath.Join("downloads", "10.1000-xyz123"), l.Root)
	assert.Equal(t, filepath.Join(l.Root, "main"), l.DepthDir(0))
	assert.Equal(t, filepath.Join(l.Root, "ref1"), l.DepthDir(1))
	assert.Equal(t, filepath.Join(l.Root, "ref3"), l.DepthDir(3))
	assert.Equal(t, filepath.Join(l.Root, "cited"), l.CitedDir())
	assert.Equal(t, filepath.Join(l.Root, "metadata"), l.MetadataDir())
	assert.Equal(t, filepath.Join(l.Root, "history.db"), l.HistoryPath())
}

func TestPDFPath(t *testing.T) {
	l := NewLayout("downloads", []string{"10.1000/xyz123"})
	dir := l.DepthDir(0)

	t.Run("title becomes the file stem", func(t *testing.T) {
		got := l.PDFPath(dir, "10.1000/a", "A Title: With/Illegal*Chars?")
		assert.Equal(t, filepath.Join(dir, "A Title_ With_Illegal_Chars_.pdf"), got)
	})

	t.Run("falls back to DOI slug without a title", func(t *testing.T) {
		got := l.PDFPath(dir, "10.1000/a", "")
		assert.Equal(t, filepath.Join(dir, "10.1000-a.pdf"), got)
	})

	t.Run("long titles are truncated", func(t *testing.T) {
		got := l.PDFPath(dir, "10.1000/a", strings.Repeat("x", 400))
		base := filepath.Base(got)
		assert.LessOrEqual(t, len(base), 160)
		assert.True(t, strings.HasSuffix(base, "...pdf"))
	})

	t.Run("multi-byte titles truncate on rune boundaries", func(t *testing.T) {
		got := l.PDFPath(dir, "10.1000/b", strings.Repeat("博", 200))
		base := filepath.Base(got)
		assert.True(t, utf8.ValidString(base))
		assert.Equal(t, 150+2+4, utf8.RuneCountInString(base))
		assert.True(t, strings.HasSuffix(base, "...pdf"))
	})
}

func TestPDFPathTitleCollision(t *testing.T) {
	l := NewLayout("downloads", []string{"10.1000/seed"})
	dir := l.DepthDir(1)

	first := l.PDFPath(dir, "10.1000/a", "Shared Title")
	second := l.PDFPath(dir, "10.1000/b", "Shared Title")

	assert.Equal(t, filepath.Join(dir, "Shared Title.pdf"), first)
	assert.Equal(t, filepath.Join(dir, "Shared Title-10.1000-b.pdf"), second)

	// Asking again for an already-claimed DOI returns the same path.
	assert.Equal(t, first, l.PDFPath(dir, "10.1000/a", "Shared Title"))
	assert.Equal(t, second, l.PDFPath(dir, "10.1000/b", "Shared Title"))
}
