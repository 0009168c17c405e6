package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/fwojciec/mapscrape/inmem"
	"github.com/fwojciec/mapscrape/scrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Scraper mapscrape.Scraper
	Browser mapscrape.Browser
	Cache   *inmem.ResultCache
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Search SearchCmd `cmd:"" help:"Run one query and print the result as JSON"`
	Serve  ServeCmd  `cmd:"" help:"Serve queries over HTTP"`

	LogLevel  string `default:"info" enum:"debug,info,warn,error" env:"MAPSCRAPE_LOG_LEVEL" help:"Log level"`
	LogFormat string `default:"text" enum:"text,json" env:"MAPSCRAPE_LOG_FORMAT" help:"Log format"`

	Selectors   string        `type:"path" env:"MAPSCRAPE_SELECTORS" help:"Selector table YAML file (defaults to the built-in table)"`
	SearchURL   string        `env:"MAPSCRAPE_SEARCH_URL" help:"Base URL of the search page (defaults to Google Maps)"`
	CacheTTL    time.Duration `default:"1h" env:"MAPSCRAPE_CACHE_TTL" help:"How long results stay cached"`
	Concurrency int           `short:"c" default:"1" env:"MAPSCRAPE_CONCURRENCY" help:"Detail pages loaded at once"`
	BatchPause  time.Duration `default:"3s" env:"MAPSCRAPE_BATCH_PAUSE" help:"Pause between batches of detail pages"`
	NavInterval time.Duration `default:"1s" env:"MAPSCRAPE_NAV_INTERVAL" help:"Spacing between navigations to one host once a batch has started"`

	SearchTimeout  time.Duration `default:"30s" env:"MAPSCRAPE_SEARCH_TIMEOUT" help:"Search page navigation timeout"`
	DetailTimeout  time.Duration `default:"25s" env:"MAPSCRAPE_DETAIL_TIMEOUT" help:"Detail page navigation timeout"`
	SearchAttempts int           `default:"3" env:"MAPSCRAPE_SEARCH_ATTEMPTS" help:"Search page navigation attempts"`
	DetailAttempts int           `default:"2" env:"MAPSCRAPE_DETAIL_ATTEMPTS" help:"Detail page navigation attempts"`
	Backoff        time.Duration `default:"2s" env:"MAPSCRAPE_BACKOFF" help:"Pause between navigation attempts"`
	SearchSettle   time.Duration `default:"3s" env:"MAPSCRAPE_SEARCH_SETTLE" help:"Render wait after the search page loads"`
	DetailSettle   time.Duration `default:"2s" env:"MAPSCRAPE_DETAIL_SETTLE" help:"Render wait after a detail page loads"`
	AutoScroll     time.Duration `default:"5s" env:"MAPSCRAPE_AUTO_SCROLL" help:"How long the results feed is scrolled (0 disables)"`

	UserAgent      string `env:"MAPSCRAPE_USER_AGENT" help:"User agent (defaults to desktop Chrome)"`
	AcceptLanguage string `default:"pt-BR,pt;q=0.9,en;q=0.8" env:"MAPSCRAPE_ACCEPT_LANGUAGE" help:"Accept-Language header"`
	ViewportWidth  int    `default:"1920" env:"MAPSCRAPE_VIEWPORT_WIDTH" help:"Viewport width"`
	ViewportHeight int    `default:"1080" env:"MAPSCRAPE_VIEWPORT_HEIGHT" help:"Viewport height"`

	MaxPages    int64  `default:"75" env:"MAPSCRAPE_MAX_PAGES" help:"Pages opened before the browser is recycled"`
	BrowserPath string `env:"MAPSCRAPE_BROWSER_PATH" help:"Chrome binary to use"`
	NoSandbox   bool   `env:"MAPSCRAPE_NO_SANDBOX" help:"Disable the Chrome sandbox (needed as root in containers)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Term       string  `arg:"" help:"What to search for"`
	Region     string  `arg:"" optional:"" help:"Where to search"`
	MaxResults int     `short:"n" default:"5" help:"Maximum listings to return (1-50)"`
	MinRating  float64 `short:"r" help:"Drop listings rated below this (0-5)"`
	Hours      bool    `help:"Include opening hours"`
	Reviews    bool    `help:"Include up to three reviews"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr        string   `default:":3000" env:"MAPSCRAPE_ADDR" help:"Listen address"`
	CORSOrigins []string `name:"cors-origin" env:"MAPSCRAPE_CORS_ORIGINS" help:"Allowed CORS origins (repeatable, * for any)"`
}

// ScrapeConfig returns the scraper settings selected by the flags. Ready
// selectors come from table.
func (c *CLI) ScrapeConfig(table *mapscrape.SelectorTable) scrape.Config {
	cfg := scrape.DefaultConfig()
	if c.SearchURL != "" {
		cfg.SearchURL = c.SearchURL
	}

	cfg.Search.Timeout = c.SearchTimeout
	cfg.Search.Retry.Attempts = c.SearchAttempts
	cfg.Search.Retry.Backoff = c.Backoff
	cfg.Detail.Timeout = c.DetailTimeout
	cfg.Detail.Retry.Attempts = c.DetailAttempts
	cfg.Detail.Retry.Backoff = c.Backoff
	if table != nil {
		if table.Ready.Search != "" {
			cfg.Search.ReadySelector = table.Ready.Search
		}
		if table.Ready.Detail != "" {
			cfg.Detail.ReadySelector = table.Ready.Detail
		}
	}

	cfg.SearchSettle = c.SearchSettle
	cfg.DetailSettle = c.DetailSettle
	cfg.Concurrency = c.Concurrency
	cfg.BatchPause = c.BatchPause
	cfg.AutoScroll = c.AutoScroll

	if c.UserAgent != "" {
		cfg.Page.UserAgent = c.UserAgent
	}
	cfg.Page.AcceptLanguage = c.AcceptLanguage
	cfg.Page.Width = c.ViewportWidth
	cfg.Page.Height = c.ViewportHeight
	return cfg
}
