// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiPrefixPattern strips resolver-URL and "doi:" prefixes.
var doiPrefixPattern = regexp.MustCompile(`(?i)^(https?://(dx\.)?doi\.org/|doi:)`)

// listSeparator splits comma/whitespace-separated DOI input.
var listSeparator = regexp.MustCompile(`[\s,]+`)

// Normalize canonicalizes a DOI for equality and dedup: percent-decoding,
// prefix stripping, whitespace and trailing punctuation trimming, and
// lowercasing (DOIs are case-insensitive).
func Normalize(doi string) string {
	if unescaped, err := url.QueryUnescape(doi); err == nil {
		doi = unescaped
	}
	doi = strings.TrimSpace(doi)
	doi = doiPrefixPattern.ReplaceAllString(doi, "")
	doi = strings.Trim(doi, " .;")
	return strings.ToLower(doi)
}

// Valid reports whether s looks like a normalized DOI.
func Valid(s string) bool {
	return doiPattern.MatchString(s)
}

// ParseList parses comma/space-separated DOI input into normalized DOIs,
// dropping duplicates while preserving order. A token that does not look
// like a DOI is a configuration error.
func ParseList(input string) ([]string, error) {
	var dois []string
	seen := make(map[string]bool)
	for _, tok := range listSeparator.Split(input, -1) {
		if tok == "" {
			continue
		}
		doi := Normalize(tok)
		if !Valid(doi) {
			return nil, fmt.Errorf("not a DOI: %q", tok)
		}
		if seen[doi] {
			continue
		}
		seen[doi] = true
		dois = append(dois, doi)
	}
	return dois, nil
}

// Slug returns a filesystem-safe filename stem for a DOI.
func Slug(doi string) string {
	return strings.NewReplacer("/", "-", ":", "-").Replace(doi)
}
