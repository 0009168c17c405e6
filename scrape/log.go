package scrape

import (
	"log/slog"

	"github.com/fwojciec/mapscrape"
)

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// truncateErr bounds an error's text for log lines and caller messages.
func truncateErr(err error) string {
	if err == nil {
		return ""
	}
	return mapscrape.Truncate(err.Error(), mapscrape.MaxErrorMessageLength)
}
