// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// AcceptThreshold is the minimum title-similarity ratio for a download to
// be kept.
const AcceptThreshold = 0.8

// Similarity returns a normalized edit-distance ratio in [0, 1] between
// two titles: 1 - distance/len(longer), case-insensitive with collapsed
// whitespace. Empty input yields 0.
func Similarity(a, b string) float64 {
	a = normalizeTitle(a)
	b = normalizeTitle(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	return 1 - float64(dist)/float64(longer)
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
