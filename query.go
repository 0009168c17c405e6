package mapscrape

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultMaxResults is used when a query does not ask for a count.
	DefaultMaxResults = 5

	// MaxResultsLimit caps how many listings a single query may request.
	MaxResultsLimit = 50

	// MaxRating is the top of the origin's rating scale.
	MaxRating = 5.0
)

// Query describes one search submitted by a caller. Queries are passed by
// value and never modified once accepted.
type Query struct {
	SearchTerm     string  `json:"searchTerm"`
	Region         string  `json:"region"`
	MaxResults     int     `json:"maxResults"`
	MinRating      float64 `json:"minRating"`
	IncludeHours   bool    `json:"includeHours"`
	IncludeReviews bool    `json:"includeReviews"`
}

// Normalize returns a copy of q with whitespace collapsed, MaxResults
// defaulted and clamped to MaxResultsLimit, and a negative zero MinRating
// made positive.
func (q Query) Normalize() Query {
	q.SearchTerm = collapseSpace(q.SearchTerm)
	q.Region = collapseSpace(q.Region)
	if q.MaxResults == 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MaxResults > MaxResultsLimit {
		q.MaxResults = MaxResultsLimit
	}
	// -0 formats differently from 0.
	if q.MinRating == 0 {
		q.MinRating = 0
	}
	return q
}

// Validate returns an error if the query contains invalid fields.
func (q Query) Validate() error {
	if strings.TrimSpace(q.SearchTerm) == "" {
		return Errorf(EINVALID, "search term required")
	}
	if q.MaxResults < 0 {
		return Errorf(EINVALID, "max results must not be negative")
	}
	if math.IsNaN(q.MinRating) || q.MinRating < 0 || q.MinRating > MaxRating {
		return Errorf(EINVALID, "min rating must be between 0 and %g", MaxRating)
	}
	return nil
}

// SiteQuery returns the text typed into the origin's search box: the search
// term followed by the region, if any.
func (q Query) SiteQuery() string {
	return collapseSpace(q.SearchTerm + " " + q.Region)
}

// Fingerprint returns the cache key for q. Every field that changes the
// records a query produces takes part, so queries differing only in a filter
// never share an entry. Text fields compare case-insensitively.
func (q Query) Fingerprint() string {
	q = q.Normalize()
	canonical := strings.Join([]string{
		"v1",
		strings.ToLower(q.SearchTerm),
		strings.ToLower(q.Region),
		strconv.Itoa(q.MaxResults),
		strconv.FormatFloat(q.MinRating, 'f', -1, 64),
		strconv.FormatBool(q.IncludeHours),
		strconv.FormatBool(q.IncludeReviews),
	}, "\x1f")
	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
