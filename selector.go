package mapscrape

import "strings"

// Field names a listing attribute extracted from a detail page.
type Field string

const (
	FieldName     Field = "name"
	FieldAddress  Field = "address"
	FieldPhone    Field = "phone"
	FieldRating   Field = "rating"
	FieldCategory Field = "category"
	FieldHours    Field = "hours"
)

// Fields lists every extracted field in record order.
var Fields = []Field{FieldName, FieldAddress, FieldPhone, FieldRating, FieldCategory, FieldHours}

// SelectorTable holds every CSS selector the scraper relies on. The origin's
// markup drifts, so selectors are data: a table can be swapped without
// touching extraction code.
//
// A selector may end in "@attr" to read that attribute instead of the
// element's text, e.g. `span.ceNzKf@aria-label`.
type SelectorTable struct {
	Version string             `yaml:"version" json:"version"`
	Fields  map[Field][]string `yaml:"fields" json:"fields"`
	Reviews ReviewSelectors    `yaml:"reviews" json:"reviews"`
	Links   LinkSelectors      `yaml:"links" json:"links"`
	Ready   ReadySelectors     `yaml:"ready" json:"ready"`
}

// ReviewSelectors locates review entries and their sub-fields. Sub-field
// selectors are evaluated relative to each container.
type ReviewSelectors struct {
	Container string `yaml:"container" json:"container"`
	Text      string `yaml:"text" json:"text"`
	Author    string `yaml:"author" json:"author"`
	Rating    string `yaml:"rating" json:"rating"`
	Limit     int    `yaml:"limit" json:"limit"`
}

// LinkSelectors locates listing links on the search results page. Every
// strategy is applied; matches are unioned. Only hrefs containing
// PathPattern are kept.
type LinkSelectors struct {
	Strategies  []string `yaml:"strategies" json:"strategies"`
	PathPattern string   `yaml:"pathPattern" json:"pathPattern"`
}

// ReadySelectors are the minimal markers that a page has rendered.
type ReadySelectors struct {
	Search string `yaml:"search" json:"search"`
	Detail string `yaml:"detail" json:"detail"`
}

// Validate returns an error if the table cannot drive extraction.
func (t *SelectorTable) Validate() error {
	for _, f := range Fields {
		if len(nonBlank(t.Fields[f])) == 0 {
			return Errorf(EINVALID, "selector table %q: no selectors for field %q", t.Version, f)
		}
	}
	if len(nonBlank(t.Links.Strategies)) == 0 {
		return Errorf(EINVALID, "selector table %q: no link strategies", t.Version)
	}
	if t.Links.PathPattern == "" {
		return Errorf(EINVALID, "selector table %q: link path pattern required", t.Version)
	}
	if t.Reviews.Limit < 0 {
		return Errorf(EINVALID, "selector table %q: negative review limit", t.Version)
	}
	return nil
}

// SplitSelector splits a table entry into its CSS selector and the optional
// attribute to read.
func SplitSelector(s string) (selector, attr string) {
	i := strings.LastIndex(s, "@")
	if i < 0 || strings.Contains(s[i:], "]") {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
}

// ExtractOptions selects the optional fields a query asked for.
type ExtractOptions struct {
	IncludeHours   bool
	IncludeReviews bool
}

// FieldExtractor builds a listing record from a detail page snapshot.
type FieldExtractor interface {
	// ExtractListing applies the selector table to html. Fields whose
	// selectors all miss are set to NotFound. Hours and reviews are skipped
	// unless requested in opts.
	ExtractListing(html, link string, opts ExtractOptions) (*ListingRecord, error)
}

// LinkDiscoverer finds listing links on a search results page snapshot.
type LinkDiscoverer interface {
	// DiscoverLinks returns at most max unique absolute listing URLs in
	// document order. Finding none is not an error.
	DiscoverLinks(html, baseURL string, max int) ([]string, error)
}

func nonBlank(ss []string) []string {
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
