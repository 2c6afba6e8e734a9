// Package server exposes the REST API and the MCP endpoint over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/alin/internal/app"
	"github.com/bobmcallan/alin/internal/cache"
	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/models"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app     *app.App
	server  *http.Server
	logger  *common.Logger
	history *cache.TTLCache[[]models.PricePoint]
	now     func() time.Time
}

// NewServer creates a new HTTP REST API server. history caches synthetic
// index series by date range; pass nil to get a fresh cache.
func NewServer(a *app.App, history *cache.TTLCache[[]models.PricePoint]) *Server {
	if history == nil {
		history = cache.New[[]models.PricePoint]()
	}

	s := &Server{
		app:     a,
		logger:  a.Logger,
		history: history,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(a.MCPServer,
		mcpserver.WithStateLess(true),
	))

	handler := applyMiddleware(mux, a.Logger)

	host := a.Config.Server.Host
	port := a.Config.Server.Port

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
