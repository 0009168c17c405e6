package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mapscrape"
)

// Ensure Extractor implements mapscrape.FieldExtractor at compile time.
var _ mapscrape.FieldExtractor = (*Extractor)(nil)

// Extractor builds listing records from detail page HTML using the field
// selectors of a selector table.
type Extractor struct {
	table *mapscrape.SelectorTable
}

// NewExtractor returns an Extractor driven by table.
func NewExtractor(table *mapscrape.SelectorTable) *Extractor {
	return &Extractor{table: table}
}

// ExtractListing parses html and fills one record. Each field takes the
// first selector whose first match has non-empty text.
func (e *Extractor) ExtractListing(html, link string, opts mapscrape.ExtractOptions) (*mapscrape.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, mapscrape.Errorf(mapscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	rec := &mapscrape.ListingRecord{
		Name:       e.field(doc.Selection, mapscrape.FieldName),
		Address:    e.field(doc.Selection, mapscrape.FieldAddress),
		Phone:      e.field(doc.Selection, mapscrape.FieldPhone),
		Rating:     e.field(doc.Selection, mapscrape.FieldRating),
		Category:   e.field(doc.Selection, mapscrape.FieldCategory),
		SourceLink: link,
	}
	if opts.IncludeHours {
		rec.Hours = e.field(doc.Selection, mapscrape.FieldHours)
	}
	if opts.IncludeReviews {
		rec.Reviews = e.reviews(doc.Selection)
	}
	rec.Normalize()
	return rec, nil
}

func (e *Extractor) field(root *goquery.Selection, f mapscrape.Field) string {
	return FirstMatch(root, e.table.Fields[f])
}

func (e *Extractor) reviews(root *goquery.Selection) []mapscrape.Review {
	rs := e.table.Reviews
	reviews := []mapscrape.Review{}
	if rs.Container == "" {
		return reviews
	}
	limit := rs.Limit
	if limit <= 0 {
		limit = mapscrape.MaxReviews
	}
	root.Find(rs.Container).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		reviews = append(reviews, mapscrape.Review{
			Text:        matchText(sel, rs.Text),
			Author:      matchText(sel, rs.Author),
			RatingLabel: matchText(sel, rs.Rating),
		})
		return len(reviews) < limit
	})
	return reviews
}

// FirstMatch returns the trimmed value of the first selector, in order,
// whose first match yields non-empty text. Returns "" if none does.
func FirstMatch(root *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if v := matchText(root, s); v != "" {
			return v
		}
	}
	return ""
}

// matchText reads the text, or the attribute named by an "@attr" suffix, of
// the first element under root matching entry.
func matchText(root *goquery.Selection, entry string) string {
	sel, attr := mapscrape.SplitSelector(entry)
	if sel == "" {
		return ""
	}
	m := root.Find(sel).First()
	if m.Length() == 0 {
		return ""
	}
	if attr != "" {
		v, _ := m.Attr(attr)
		return collapseSpace(v)
	}
	return collapseSpace(m.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
