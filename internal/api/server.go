// Package api exposes the node's control surface over HTTP: device
// discovery, capability inspection, stream start/stop/status, settings,
// platform and host info, logs, and Prometheus metrics. Built on Huma v2
// with the Go 1.22+ stdlib router.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/streamnode/streamnode/internal/config"
	"github.com/streamnode/streamnode/internal/control"
	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/sysinfo"
)

// Options carries the server's collaborators.
type Options struct {
	Facade   *control.Facade
	Settings *config.SettingsStore
	System   *sysinfo.Collector

	// MetricsHandler, when set, is mounted at GET /metrics without auth.
	MetricsHandler http.Handler
}

// Server is the HTTP control surface.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	opts       *Options
	logger     *slog.Logger
}

// NewServer builds the server and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	apiConfig := huma.DefaultConfig("StreamNode API", "1.0.0")
	apiConfig.Info.Description = "Capability negotiation and streaming session control for a capture device"
	// An empty servers list makes the OpenAPI document use relative paths.
	apiConfig.Servers = []*huma.Server{}

	humaAPI := humago.New(mux, apiConfig)

	s := &Server{
		api:    humaAPI,
		mux:    mux,
		opts:   opts,
		logger: logging.GetLogger("api"),
	}

	humaAPI.UseMiddleware(NewCORSMiddleware(corsConfig))
	humaAPI.UseMiddleware(HTTPLoggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	s.registerRoutes()
	return s
}

// API returns the Huma instance, used by tests to drive requests.
func (s *Server) API() huma.API {
	return s.api
}

// Start serves on addr until the listener fails or Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop closes the server without waiting for open connections.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerDeviceRoutes()
	s.registerStreamRoutes()
	s.registerSystemRoutes()
	s.registerSettingsRoutes()
	s.registerLogRoutes()
}
