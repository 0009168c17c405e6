package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/mapscrape"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	q := mapscrape.Query{
		SearchTerm:     c.Term,
		Region:         c.Region,
		MaxResults:     c.MaxResults,
		MinRating:      c.MinRating,
		IncludeHours:   c.Hours,
		IncludeReviews: c.Reviews,
	}

	result, err := deps.Scraper.Scrape(deps.Ctx, q)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mapscrape.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
