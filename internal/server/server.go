package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyagen/livecatalog/api"
	"github.com/voyagen/livecatalog/internal/auth"
	"github.com/voyagen/livecatalog/internal/cache"
	"github.com/voyagen/livecatalog/internal/catalog"
	"github.com/voyagen/livecatalog/internal/config"
	"github.com/voyagen/livecatalog/internal/service"
)

// Deps are the collaborators the HTTP API is built on. Queue may be nil,
// in which case async refresh requests run inline.
type Deps struct {
	Catalog *catalog.Catalog
	Live    *service.Live
	Auth    auth.Authorizer
	Queue   *cache.Redis
}

// Server holds dependencies for the HTTP API.
type Server struct {
	Deps
	cfg *config.Config
	mux *http.ServeMux
}

// New creates a Server and registers routes.
func New(d Deps, cfg *config.Config) *Server {
	if d.Auth == nil {
		d.Auth = auth.BearerPresence{}
	}
	srv := &Server{Deps: d, cfg: cfg, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Public read surface
	s.mux.HandleFunc("GET /api/live/sources", s.handleListSources)
	s.mux.HandleFunc("GET /api/live/channels", s.handleChannels)
	s.mux.HandleFunc("GET /api/live/channels/{key}/playlist.m3u", s.handlePlaylist)

	// Admin
	s.mux.Handle("GET /api/admin/live", auth.RequireAdmin(s.Auth, http.HandlerFunc(s.handleAdminList)))
	s.mux.Handle("POST /api/admin/live", auth.RequireAdmin(s.Auth, http.HandlerFunc(s.handleAdminAction)))

	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      withCORS(withLogging(s)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- docs handlers ---

func handleOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.OpenAPISpec)
}

func handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, swaggerUIHTML)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Live Catalog API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/api/docs/openapi.yaml", dom_id: "#swagger-ui"});
  </script>
</body>
</html>`
