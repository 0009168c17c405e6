// Package goquery implements listing extraction over HTML snapshots using
// goquery. Pages are copied out of the browser as HTML first, so nothing in
// this package holds live DOM references.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mapscrape"
)

// Ensure LinkDiscoverer implements mapscrape.LinkDiscoverer at compile time.
var _ mapscrape.LinkDiscoverer = (*LinkDiscoverer)(nil)

// LinkDiscoverer finds listing links on a search results page.
type LinkDiscoverer struct {
	table *mapscrape.SelectorTable
}

// NewLinkDiscoverer returns a LinkDiscoverer driven by table.Links.
func NewLinkDiscoverer(table *mapscrape.SelectorTable) *LinkDiscoverer {
	return &LinkDiscoverer{table: table}
}

// DiscoverLinks applies every link strategy and unions the matches. Links
// are resolved against baseURL, filtered to the listing path pattern,
// deduplicated by URL and returned in first-seen order, truncated to max.
// A max of zero or less means no limit.
func (d *LinkDiscoverer) DiscoverLinks(html, baseURL string, max int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, mapscrape.Errorf(mapscrape.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, mapscrape.Errorf(mapscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]struct{})
	links := []string{}

	for _, strategy := range d.table.Links.Strategies {
		if strings.TrimSpace(strategy) == "" {
			continue
		}
		doc.Find(strategy).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if max > 0 && len(links) >= max {
				return false
			}

			href, exists := sel.Attr("href")
			if !exists || href == "" || isNonHTTPLink(href) {
				return true
			}

			resolved := resolveURL(base, href)
			if resolved == "" || !strings.Contains(resolved, d.table.Links.PathPattern) {
				return true
			}

			if _, ok := seen[resolved]; ok {
				return true
			}
			seen[resolved] = struct{}{}
			links = append(links, resolved)
			return true
		})
	}

	return links, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or is not http(s).
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
