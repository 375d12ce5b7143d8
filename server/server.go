package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/server/endpoint"
	"github.com/kbukum/evtsrc/server/middleware"
)

// Server is an HTTP server backed by Gin with support for additional
// http.Handler mounts (e.g. streaming handlers) on the same port.
type Server struct {
	httpServer  *http.Server
	engine      *gin.Engine
	mux         *http.ServeMux
	middlewares []middleware.Middleware
	config      Config
	log         *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server. No middleware is applied yet; call
// ApplyMiddleware or Use before Start.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()

	// Gin is the fallback handler on the root mux.
	mux.Handle("/", engine)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
// Streaming handlers are mounted here so they see the server-level writer
// directly, with Flush and write-deadline control available.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// Use appends server-level middleware. The first added is the outermost.
func (s *Server) Use(mw ...middleware.Middleware) {
	s.middlewares = append(s.middlewares, mw...)
}

// ApplyMiddleware applies the standard middleware stack:
// recovery, request-ID, CORS, body-size limit, and request logging.
func (s *Server) ApplyMiddleware() {
	s.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
	)
	if s.config.MaxBodySize != "" {
		s.Use(middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	s.Use(middleware.RequestLogger(s.log))
}

// RegisterDefaultEndpoints registers /health, /alive and /info. stream may
// be nil when the server carries no event stream.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker, stream endpoint.StreamReporter) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker, stream))
	s.engine.GET("/alive", endpoint.Alive(serviceName))
	s.engine.GET("/info", endpoint.Info(serviceName))
}

// Handler returns the composed handler: middleware around the mux, wrapped
// for HTTP/2 cleartext.
func (s *Server) Handler() http.Handler {
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(s.config.IdleTimeout) * time.Second,
	}
	return h2c.NewHandler(middleware.Chain(s.middlewares...)(s.mux), h2s)
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})

	tlsConfig, err := s.config.TLS.ServerConfig()
	if err != nil {
		return fmt.Errorf("server tls: %w", err)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer.Handler = s.Handler()
	s.httpServer.TLSConfig = tlsConfig
	s.mu.Unlock()

	serve := s.httpServer.Serve
	if tlsConfig != nil {
		// Certificates come from TLSConfig.
		serve = func(l net.Listener) error { return s.httpServer.ServeTLS(l, "", "") }
	}

	go func() {
		if err := serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
		"tls":  tlsConfig != nil,
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
