package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/mapscrape"
	"github.com/fwojciec/mapscrape/goquery"
	"github.com/fwojciec/mapscrape/inmem"
	"github.com/fwojciec/mapscrape/rod"
	"github.com/fwojciec/mapscrape/scrape"
	mslog "github.com/fwojciec/mapscrape/slog"
	"github.com/fwojciec/mapscrape/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Scraper replaces the browser-backed scraper. Set before calling Run()
	// for end-to-end testing.
	Scraper mapscrape.Scraper

	browser *rod.BrowserManager
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.browser != nil {
		return m.browser.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mapscrape"),
		kong.Description("Collect business listings from map search results."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'mapscrape --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.LogLevel, cli.LogFormat)

	if m.Scraper != nil {
		deps.Scraper = m.Scraper
		return kongCtx.Run(deps)
	}

	table, err := yaml.LoadSelectorTable(cli.Selectors)
	if err != nil {
		return fmt.Errorf("failed to load selector table: %w", err)
	}

	browser, err := rod.NewBrowserManager(
		rod.WithMaxPages(cli.MaxPages),
		rod.WithBrowserPath(cli.BrowserPath),
		rod.WithNoSandbox(cli.NoSandbox),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or set MAPSCRAPE_BROWSER_PATH")
		return fmt.Errorf("failed to start browser: %w", err)
	}
	m.browser = browser

	deps.Browser = rod.NewLoggingBrowser(browser, deps.Logger)
	deps.Cache = inmem.NewResultCache(cli.CacheTTL)
	deps.Scraper = mslog.NewLoggingScraper(&scrape.Scraper{
		Browser:   deps.Browser,
		Cache:     mslog.NewLoggingCache(deps.Cache, deps.Logger),
		Extractor: goquery.NewExtractor(table),
		Links:     goquery.NewLinkDiscoverer(table),
		Pacer:     scrape.NewHostPacer(cli.NavInterval, cli.Concurrency),
		Logger:    deps.Logger,
		Config:    cli.ScrapeConfig(table),
		Now:       time.Now,
	}, deps.Logger)

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
