// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import "strings"

// defaultYoungKeywords marks student and early-career researcher
// affiliations, in English and Chinese.
var defaultYoungKeywords = []string{
	"student", "phd", "doctoral", "candidate", "undergraduate", "master",
	"硕士", "博士", "博后", "研究生", "学生", "博士生", "博士候选人", "本科生",
}

// AuthorFilter keeps records whose author affiliations mention one of the
// configured keywords. It prunes reference expansion at one configured
// depth; it never un-downloads a file.
type AuthorFilter struct {
	keywords []string
}

// NewAuthorFilter builds a filter over keywords, defaulting to the
// built-in young-researcher set when none are given.
func NewAuthorFilter(keywords []string) *AuthorFilter {
	if len(keywords) == 0 {
		keywords = defaultYoungKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &AuthorFilter{keywords: lowered}
}

// Keep reports whether any affiliation string contains a keyword,
// case-insensitively. No affiliation data means no match.
func (f *AuthorFilter) Keep(affiliations []string) bool {
	for _, aff := range affiliations {
		aff = strings.ToLower(aff)
		for _, kw := range f.keywords {
			if strings.Contains(aff, kw) {
				return true
			}
		}
	}
	return false
}
