// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Page holds what the resolver extracts from a fetched HTML document.
type Page struct {
	// Title is the text of the first <title> element.
	Title string

	// PDFLinks lists absolute URLs that look like PDF downloads, strongest
	// heuristic first: href ending in .pdf or containing a /pdf/ path
	// segment, then iframe/embed sources, then anchors whose text suggests
	// a full-text link.
	PDFLinks []string

	// DOIs lists normalized DOIs found in links, citation meta tags, and
	// raw text. Used as a reference fallback when the metadata service has
	// no linked reference list.
	DOIs []string
}

// embeddedDOIPattern finds DOIs inside href values and page text.
var embeddedDOIPattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:a-z0-9]+`)

// ParsePage walks an HTML document collecting the title, candidate PDF
// links (resolved against baseURL), and embedded DOIs.
func ParsePage(baseURL string, body []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	p := &Page{}
	var strong, weak []string
	doiSeen := make(map[string]bool)
	addDOI := func(raw string) {
		doi := Normalize(raw)
		if Valid(doi) && !doiSeen[doi] {
			doiSeen[doi] = true
			p.DOIs = append(p.DOIs, doi)
		}
	}
	resolveHref := func(href string) (string, bool) {
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return "", false
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return "", false
		}
		return abs.String(), true
	}

	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if p.Title == "" && n.FirstChild != nil {
					p.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				href := attr(n, "href")
				if href == "" {
					break
				}
				if strings.Contains(href, "doi.org/") {
					addDOI(trimFragment(href[strings.Index(href, "doi.org/")+len("doi.org/"):]))
				}
				abs, ok := resolveHref(href)
				if !ok {
					break
				}
				lower := strings.ToLower(href)
				text := strings.ToLower(nodeText(n))
				switch {
				case strings.HasSuffix(lower, ".pdf"), strings.Contains(lower, "/pdf/"), strings.Contains(lower, "/content/pdf/"):
					strong = append(strong, abs)
				case strings.Contains(text, "pdf"), strings.Contains(text, "full text"):
					weak = append(weak, abs)
				}
			case "iframe", "embed":
				src := attr(n, "src")
				if src == "" {
					break
				}
				if abs, ok := resolveHref(src); ok && strings.Contains(strings.ToLower(src), "pdf") {
					strong = append(strong, abs)
				}
			case "meta":
				if strings.EqualFold(attr(n, "name"), "citation_doi") {
					addDOI(attr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
	}
	walker(doc)

	p.PDFLinks = dedupe(append(strong, weak...))

	// Raw-text scan as a last resort for reference DOIs.
	for _, m := range embeddedDOIPattern.FindAllString(string(body), -1) {
		addDOI(m)
	}
	return p, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// trimFragment cuts query and fragment parts off an embedded DOI.
func trimFragment(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
