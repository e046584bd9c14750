package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/shxh08/pastebin-clone/internal/paste"
)

// Config captures server configuration.
type Config struct {
	Service    *paste.Service
	MaxBytes   int
	BaseURL    string
	TrustProxy bool
	Logger     zerolog.Logger
}

// Server exposes the paste operations over HTTP. It owns no lifecycle logic:
// it maps service results to status codes and JSON bodies.
type Server struct {
	svc        *paste.Service
	router     chi.Router
	maxBytes   int
	baseURL    *url.URL
	trustProxy bool
	log        zerolog.Logger
}

// New constructs a new Server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("service required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1_048_576
	}

	var parsedBase *url.URL
	if cfg.BaseURL != "" {
		var err error
		parsedBase, err = url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		if parsedBase.Scheme == "" || parsedBase.Host == "" {
			return nil, errors.New("base url must include scheme and host")
		}
		parsedBase.Path = strings.TrimSuffix(parsedBase.Path, "/")
	}

	srv := &Server{
		svc:        cfg.Service,
		router:     chi.NewRouter(),
		maxBytes:   cfg.MaxBytes,
		baseURL:    parsedBase,
		trustProxy: cfg.TrustProxy,
		log:        cfg.Logger,
	}
	srv.routes()
	return srv, nil
}

// Handler returns the underlying router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json", "text/plain"))
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(req).Info().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("http request")
	}))
	r.Use(requestMetrics)

	r.Get("/", s.handleStatus)
	r.Post("/paste", s.handleCreate)
	r.Get("/validate/{id}", s.handleValidate)

	r.Route("/paste/{id}", func(pr chi.Router) {
		pr.Get("/", s.handleRead)
		pr.Delete("/", s.handleDelete)
		pr.Get("/qr", s.handleQR)
	})

	r.Route("/pastes", func(pr chi.Router) {
		pr.Get("/recent", s.handleRecent)
		pr.Get("/count", s.handleCount)
		pr.Get("/search", s.handleSearch)
		pr.Get("/expiring-soon", s.handleExpiringSoon)
		pr.Get("/{id}/meta", s.handleMeta)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (s *Server) isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if s.baseURL != nil && s.baseURL.Scheme == "https" {
		return true
	}
	if s.trustProxy {
		if proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto == "https" {
			return true
		}
	}
	return false
}

func (s *Server) canonicalURL(r *http.Request, pasteID string) string {
	if s.baseURL != nil {
		u := *s.baseURL
		u.Path = strings.TrimSuffix(u.Path, "/") + "/paste/" + pasteID
		return u.String()
	}

	scheme := "http"
	if s.isSecureRequest(r) {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s://%s/paste/%s", scheme, host, pasteID)
}
