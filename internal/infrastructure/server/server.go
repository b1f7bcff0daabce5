package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/eslsoft/flashnet/internal/adapter/connectrpc"
	"github.com/eslsoft/flashnet/internal/adapter/mapping"
	"github.com/eslsoft/flashnet/internal/adapter/rest"
	"github.com/eslsoft/flashnet/internal/infrastructure/auth"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
)

// Server represents the application server
type Server struct {
	config     *config.Config
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer mounts the REST table store and the hosted session service
// behind bearer authentication. /healthz stays open.
func NewServer(cfg *config.Config, logger *logrus.Logger, restHandler *rest.Handler, learning *connectrpc.LearningServiceServer, authn *auth.Authenticator) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	restAuth := authn.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		rest.WriteError(w, err)
	})
	mux.Handle(rest.Prefix, restAuth(restHandler))

	errorWriter := connect.NewErrorWriter()
	connectAuth := authn.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		if writeErr := errorWriter.Write(w, r, mapping.ToConnectError(err)); writeErr != nil {
			logger.WithError(writeErr).Warn("write connect error")
		}
	})
	path, handler := connectrpc.NewLearningServiceHandler(learning, connect.WithInterceptors(ConnectLogger(logger)))
	mux.Handle(path, connectAuth(handler))

	var root http.Handler = mux
	root = AccessLog(logger)(root)
	root = withCORS(cfg.Server.CORSOrigins).Handler(root)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      h2c.NewHandler(root, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		logger:     logger,
	}
}

// Handler exposes the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infof("HTTP server starting on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

func withCORS(origins []string) *cors.Cors {
	allowAll := len(origins) == 0
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			allowAll = true
		}
	}

	opts := cors.Options{
		AllowedMethods: append(connectcors.AllowedMethods(), http.MethodPatch, http.MethodPut, http.MethodDelete),
		AllowedHeaders: append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders: append(connectcors.ExposedHeaders(), mapping.ReasonHeader),
		MaxAge:         7200,
	}
	if allowAll {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.New(opts)
}
