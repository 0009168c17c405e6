// Package http exposes a mapscrape.Scraper as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/google/uuid"
)

// DefaultShutdownTimeout bounds how long in-flight requests may run after
// the serving context is cancelled.
const DefaultShutdownTimeout = 30 * time.Second

// MaxRequestBytes limits the size of a query body.
const MaxRequestBytes = 1 << 20

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// DefaultBrowserCheckTimeout bounds the browser health check.
const DefaultBrowserCheckTimeout = 30 * time.Second

const browserCheckScript = `() => navigator.userAgent`

// Server routes HTTP requests to a Scraper.
type Server struct {
	scraper  mapscrape.Scraper
	browser  mapscrape.Browser
	logger   *slog.Logger
	origins  map[string]struct{}
	anyOrig  bool
	cacheLen func() int
	now      func() time.Time
	started  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins enables CORS for the given origins. "*" allows any
// origin. Without this option no CORS headers are sent.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			o = strings.TrimSpace(o)
			switch o {
			case "":
			case "*":
				s.anyOrig = true
			default:
				s.origins[o] = struct{}{}
			}
		}
	}
}

// WithBrowser enables GET /health/browser, which opens a session on browser
// and runs a script in a blank page.
func WithBrowser(browser mapscrape.Browser) Option {
	return func(s *Server) {
		s.browser = browser
	}
}

// WithCacheLen reports the number of cached results on the health endpoint.
func WithCacheLen(fn func() int) Option {
	return func(s *Server) {
		s.cacheLen = fn
	}
}

// WithClock overrides the clock used for uptime reporting.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server answering queries with scraper.
func NewServer(scraper mapscrape.Scraper, opts ...Option) *Server {
	s := &Server{
		scraper: scraper,
		logger:  slog.New(slog.DiscardHandler),
		origins: make(map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Handler returns the routed handler with request id and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("POST /scrape-advanced", s.handleScrape)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/browser", s.handleBrowserCheck)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return s.withRequestID(s.withCORS(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var q mapscrape.Query
	body := http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(&q); err != nil {
		s.writeError(w, r, mapscrape.Errorf(mapscrape.EINVALID, "invalid request body: %v", err))
		return
	}

	result, err := s.scraper.Scrape(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type healthResponse struct {
	Status       string  `json:"status"`
	Uptime       float64 `json:"uptimeSeconds"`
	CacheEntries int     `json:"cacheEntries"`
	Timestamp    string  `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	resp := healthResponse{
		Status:    "ok",
		Uptime:    now.Sub(s.started).Seconds(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if s.cacheLen != nil {
		resp.CacheEntries = s.cacheLen()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "mapscrape",
		"endpoints": []string{"POST /scrape", "POST /scrape-advanced", "GET /health", "GET /health/browser"},
	})
}

type browserCheckResponse struct {
	Status    string `json:"status"`
	UserAgent string `json:"userAgent"`
	Duration  int64  `json:"durationMs"`
}

// handleBrowserCheck proves a session can be opened and a page can run
// scripts. Failures answer 503.
func (s *Server) handleBrowserCheck(w http.ResponseWriter, r *http.Request) {
	if s.browser == nil {
		s.writeError(w, r, mapscrape.Errorf(mapscrape.ENOTFOUND, "browser check is not enabled"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DefaultBrowserCheckTimeout)
	defer cancel()

	begin := time.Now()
	ua, err := s.checkBrowser(ctx)
	if err != nil {
		code := mapscrape.ErrorCode(err)
		s.logger.Error("browser check failed", "code", code, "err", mapscrape.Truncate(err.Error(), mapscrape.MaxErrorMessageLength))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   code,
			Message: mapscrape.Truncate(mapscrape.ErrorMessage(err), mapscrape.MaxErrorMessageLength),
		})
		return
	}
	writeJSON(w, http.StatusOK, browserCheckResponse{
		Status:    "ok",
		UserAgent: ua,
		Duration:  time.Since(begin).Milliseconds(),
	})
}

func (s *Server) checkBrowser(ctx context.Context) (ua string, err error) {
	session, err := s.browser.OpenSession(ctx)
	if err != nil {
		return "", mapscrape.Errorf(mapscrape.ESESSION, "opening session: %s", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = mapscrape.Errorf(mapscrape.ESESSION, "closing session: %s", cerr)
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		return "", mapscrape.Errorf(mapscrape.ESESSION, "opening page: %s", err)
	}
	defer func() { _ = page.Close() }()

	out, err := page.Evaluate(ctx, browserCheckScript)
	if err != nil {
		return "", mapscrape.Errorf(mapscrape.ESESSION, "running script: %s", err)
	}
	if err := json.Unmarshal(out, &ua); err != nil {
		return "", mapscrape.Errorf(mapscrape.ESESSION, "decoding script result: %s", err)
	}
	return ua, nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps an application error to a status code. Foreign errors
// surface as EINTERNAL with a generic message; the detail is only logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := mapscrape.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case mapscrape.EINVALID:
		status = http.StatusBadRequest
	case mapscrape.ENOTFOUND:
		status = http.StatusNotFound
	}

	s.logger.Error("request failed",
		"request_id", w.Header().Get(RequestIDHeader),
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"err", mapscrape.Truncate(err.Error(), mapscrape.MaxErrorMessageLength),
	)

	writeJSON(w, status, errorResponse{
		Error:   code,
		Message: mapscrape.Truncate(mapscrape.ErrorMessage(err), mapscrape.MaxErrorMessageLength),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withRequestID echoes the caller's request id or assigns a new one.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowed(origin) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if s.anyOrig {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowed(origin string) bool {
	if s.anyOrig {
		return true
	}
	_, ok := s.origins[origin]
	return ok
}
