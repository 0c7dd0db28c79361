// Package server exposes the briefing pipeline over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/akarpovich/newsbrief/pkg/domain"
	"github.com/akarpovich/newsbrief/pkg/store"
)

// Briefer answers user questions with a briefing and citations
type Briefer interface {
	Answer(ctx context.Context, question string) (string, []domain.SourceCitation)
}

// NewsProvider is the aggregator surface exposed over the API
type NewsProvider interface {
	FetchNews(ctx context.Context, topic string, hours int) []domain.Article
	Topics() []domain.Topic
}

// CacheControl clears the freshness cache
type CacheControl interface {
	Clear()
}

// Historian serves archived articles, optional
type Historian interface {
	History(ctx context.Context, query string, limit int) ([]store.ArchivedArticle, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Server represents the HTTP server instance
type Server struct {
	config    ConfigProvider
	briefer   Briefer
	news      NewsProvider
	cache     CacheControl
	historian Historian // nil when archiving is disabled
	version   string
	debug     bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance; historian may be nil
func New(cfg ConfigProvider, briefer Briefer, news NewsProvider, cache CacheControl, historian Historian, version string, debug bool) *Server {
	s := &Server{
		config:    cfg,
		briefer:   briefer,
		news:      news,
		cache:     cache,
		historian: historian,
		version:   version,
		debug:     debug,
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newsbrief", "akarpovich", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(50))
	s.router.Use(rest.SizeLimit(64 * 1024)) // questions are short
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("POST /ask", s.askHandler)
		r.HandleFunc("GET /news", s.newsHandler)
		r.HandleFunc("GET /topics", s.topicsHandler)
		r.HandleFunc("POST /cache/clear", s.cacheClearHandler)
		r.HandleFunc("GET /history", s.historyHandler)
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// renderJSON sends a JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends an error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
