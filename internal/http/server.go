// Package http serves the expense tracker web UI and its JSON endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/rates"
	"spendlog/internal/spot"
	"spendlog/internal/store"
	"spendlog/internal/view"
	appweb "spendlog/web"
)

// Deps are the components the server renders and mutates.
type Deps struct {
	Store     *store.Store
	Board     *view.Board
	Converter *rates.Converter
	Lookup    *spot.Lookup
	Logger    *applog.Logger

	RateLimitPerMinute int
	// Currencies and Symbols fill the lookup pickers.
	Currencies []string
	Symbols    []string
	// Ready is an optional readiness probe for /readyz.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template

	store     *store.Store
	board     *view.Board
	converter *rates.Converter
	lookup    *spot.Lookup
	ready     func(ctx context.Context) error

	convertPanel view.Panel
	cryptoPanel  view.Panel
	currencies   []string
	symbols      []string

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *applog.Logger
	started  time.Time

	shutdownOnce sync.Once
}

var (
	DefaultCurrencies = []string{"EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "INR"}
	DefaultSymbols    = []string{"BTC", "ETH", "SOL", "LTC", "DOGE"}
)

// NewServer parses the embedded templates and wires routes and middleware.
// It subscribes the board to the store; callers must not subscribe it again.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Converter == nil || deps.Lookup == nil {
		return nil, errors.New("http server needs a store, a converter and a crypto lookup")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	board := deps.Board
	if board == nil {
		board = view.NewBoard()
	}
	deps.Store.Subscribe(board)
	board.Render(deps.Store.Snapshot())

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:  t,
		store:      deps.Store,
		board:      board,
		converter:  deps.Converter,
		lookup:     deps.Lookup,
		ready:      deps.Ready,
		currencies: orDefault(deps.Currencies, DefaultCurrencies),
		symbols:    orDefault(deps.Symbols, DefaultSymbols),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
			Methods:           []string{http.MethodPost, http.MethodDelete},
		}),
		detector: security.NewDetector(),
		logger:   logger.WithComponent(applog.ComponentHTTP),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP, s.detector.Suspicious)

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static files: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /expenses", s.handleAddExpense)
	mux.HandleFunc("POST /expenses/{index}/delete", s.handleDeleteExpense)
	mux.HandleFunc("DELETE /expenses/{index}", s.handleDeleteExpense)
	mux.HandleFunc("GET /ui/board", s.handleBoard)

	mux.HandleFunc("POST /convert", s.handleConvert)
	mux.HandleFunc("POST /crypto", s.handleCrypto)

	mux.HandleFunc("GET /api/expenses", s.handleAPIExpenses)
	mux.HandleFunc("GET /api/chart", s.handleAPIChart)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.Middleware(s.logger, trace.GetRequestID)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Run serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", "addr", s.Addr, applog.FieldOperation, applog.OpStartup)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
