// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"strings"

	"github.com/pdiddy/refharvest/pkg/types"
)

// MirrorSource builds last-resort candidates by substituting the DOI into
// caller-supplied mirror base URLs, in the order they were supplied.
// There are no built-in mirrors: an empty list yields zero candidates.
type MirrorSource struct {
	Bases []string
}

func (s *MirrorSource) Name() string { return "mirror" }

// Resolve never touches the network; mirror pages are fetched by the
// downloader, which extracts the embedded PDF link when the mirror
// answers with an HTML wrapper.
func (s *MirrorSource) Resolve(_ context.Context, doi string) (Resolution, error) {
	var res Resolution
	for _, base := range s.Bases {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			URL:      base + "/" + doi,
			Strategy: types.SourceMirror,
		})
	}
	return res, nil
}
