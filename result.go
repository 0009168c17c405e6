package mapscrape

import "time"

// Filters echoes the filtering options a result was produced with.
type Filters struct {
	MinRating      float64 `json:"minRating"`
	IncludeHours   bool    `json:"includeHours"`
	IncludeReviews bool    `json:"includeReviews"`
}

// ScrapeResult is the response to one query. A result is not modified after
// it is returned; cached copies are cloned on the way in and out.
type ScrapeResult struct {
	Records    []ListingRecord `json:"records"`
	Total      int             `json:"total"`
	SearchTerm string          `json:"searchTerm"`
	Region     string          `json:"region"`
	MaxResults int             `json:"maxResults"`
	Filters    Filters         `json:"filters"`
	FromCache  bool            `json:"fromCache"`
	Message    string          `json:"message,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewScrapeResult assembles a result for q. Total always equals the number
// of records.
func NewScrapeResult(q Query, records []ListingRecord, now time.Time) *ScrapeResult {
	if records == nil {
		records = []ListingRecord{}
	}
	return &ScrapeResult{
		Records:    records,
		Total:      len(records),
		SearchTerm: q.SearchTerm,
		Region:     q.Region,
		MaxResults: q.MaxResults,
		Filters: Filters{
			MinRating:      q.MinRating,
			IncludeHours:   q.IncludeHours,
			IncludeReviews: q.IncludeReviews,
		},
		Timestamp: now,
	}
}

// Clone returns a deep copy of r.
func (r *ScrapeResult) Clone() *ScrapeResult {
	if r == nil {
		return nil
	}
	other := *r
	other.Records = make([]ListingRecord, len(r.Records))
	for i, rec := range r.Records {
		other.Records[i] = rec.Clone()
	}
	return &other
}
