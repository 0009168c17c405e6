package mapscrape

import (
	"strconv"
	"strings"
)

// NotFound is the sentinel stored in any listing field the page did not
// provide.
const NotFound = "not found"

// MaxReviews is how many reviews are kept per listing.
const MaxReviews = 3

// Review is one customer review shown on a listing's detail page. Missing
// sub-fields are empty strings.
type Review struct {
	Text        string `json:"text"`
	Author      string `json:"author"`
	RatingLabel string `json:"ratingLabel"`
}

// ListingRecord holds the fields extracted from one detail page. Every text
// field is either a copied value or NotFound; none is ever empty.
type ListingRecord struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone"`
	Rating     string   `json:"rating"`
	Category   string   `json:"category"`
	Hours      string   `json:"hours"`
	Reviews    []Review `json:"reviews"`
	SourceLink string   `json:"sourceLink"`
}

// NewListingRecord returns a record for link with every field set to NotFound.
func NewListingRecord(link string) *ListingRecord {
	r := &ListingRecord{SourceLink: link}
	r.Normalize()
	return r
}

// Normalize replaces blank fields with NotFound and a nil review list with an
// empty one.
func (r *ListingRecord) Normalize() {
	for _, f := range []*string{&r.Name, &r.Address, &r.Phone, &r.Rating, &r.Category, &r.Hours} {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = NotFound
		}
	}
	if r.Reviews == nil {
		r.Reviews = []Review{}
	}
}

// RatingValue parses the leading number of the rating text. A comma is
// accepted as the decimal separator. The second return value is false when
// the rating is not numeric, including when it is NotFound.
func (r *ListingRecord) RatingValue() (float64, bool) {
	return ParseRating(r.Rating)
}

// ParseRating parses the leading decimal number in s, as in "4,6" or
// "4.6 stars".
func ParseRating(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	dot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if (c == '.' || c == ',') && !dot {
			dot = true
			end++
			continue
		}
		break
	}
	num := strings.TrimRight(strings.Replace(s[:end], ",", ".", 1), ".")
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Clone returns a deep copy of r.
func (r ListingRecord) Clone() ListingRecord {
	if r.Reviews != nil {
		reviews := make([]Review, len(r.Reviews))
		copy(reviews, r.Reviews)
		r.Reviews = reviews
	}
	return r
}
