// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import "sync"

// visitedSet guards against a DOI being dispatched twice within or across
// frontiers. Cyclic reference graphs terminate because membership is
// permanent for the traversal.
type visitedSet struct {
	mu   sync.Mutex
	dois map[string]bool
}

func newVisitedSet() *visitedSet {
	return &visitedSet{dois: make(map[string]bool)}
}

// markIfNew records doi and reports whether it was unseen.
func (s *visitedSet) markIfNew(doi string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dois[doi] {
		return false
	}
	s.dois[doi] = true
	return true
}
