package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"echobo/internal/core"
	"echobo/internal/log"
	"echobo/internal/middleware/ratelimit"
	"echobo/internal/middleware/security"
	"echobo/internal/middleware/trace"
	"echobo/internal/store"
	"echobo/internal/view"
	appweb "echobo/web"
)

// Server serves the single-user ledger UI.
type Server struct {
	http.Server
	templates *template.Template
	sync      *view.Synchronizer
	store     *store.Store
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	started   time.Time
}

type serverOptions struct {
	limit ratelimit.Config
}

// Option configures a Server.
type Option func(*serverOptions)

// WithActionLimit caps the POSTs one client may send per minute.
func WithActionLimit(perMinute int) Option {
	return func(o *serverOptions) { o.limit.RequestsPerMinute = perMinute }
}

// NewServer configures routes and templates, returning a ready-to-run server.
// The store must already be initialized.
func NewServer(addr string, st *store.Store, sy *view.Synchronizer, logger *log.Logger, opts ...Option) (*Server, error) {
	o := serverOptions{limit: ratelimit.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		sync:      sy,
		store:     st,
		logger:    logger,
		started:   time.Now(),
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	s.limiter = ratelimit.NewLimiter(o.limit)
	limited := s.limiter.Middleware(ratelimit.ClientIP, s.writeRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /navigate", limited(http.HandlerFunc(s.handleNavigate)))
	mux.HandleFunc("GET /actions/export-csv", s.handleExport)
	mux.Handle("POST /actions/{action}", limited(http.HandlerFunc(s.handleAction)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Bind the handlers of the initial screen before the first request.
	sy.Sync(context.Background())
	return s, nil
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"yen": core.FormatYen,
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}
