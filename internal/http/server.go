// Package http provides the daemon's http server.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/logr"
)

const (
	// APIPrefixV1 is the URL path prefix for all API routes.
	APIPrefixV1 = "/api/v1"

	// shutdownTimeout is the time given for outstanding requests to finish
	// before shutdown.
	shutdownTimeout = 1 * time.Second
)

type (
	// Handlers registers http handlers with the router.
	Handlers interface {
		AddHandlers(*mux.Router)
	}

	// ServerConfig is the http server config
	ServerConfig struct {
		SSL                  bool
		CertFile, KeyFile    string
		EnableRequestLogging bool

		Handlers   []Handlers
		Middleware []mux.MiddlewareFunc
	}

	// Server is the stitch http server
	Server struct {
		logr.Logger
		ServerConfig

		server *http.Server
	}
)

// NewServer constructs the stitch http server
func NewServer(logger logr.Logger, cfg ServerConfig) (*Server, error) {
	if cfg.SSL {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return nil, fmt.Errorf("must provide both --cert-file and --key-file")
		}
	}

	r := mux.NewRouter()

	// Catch panics and return 500s
	r.Use(gorillaHandlers.RecoveryHandler(gorillaHandlers.PrintRecoveryStack(true)))

	// Redirect paths with a trailing slash to path without, e.g. /tenants/ ->
	// /tenants. Uses an HTTP301.
	r.StrictSlash(true)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	healthzPayload, err := json.Marshal(struct {
		Version string
		Commit  string
		Built   string
	}{
		Version: internal.Version,
		Commit:  internal.Commit,
		Built:   internal.Built,
	})
	if err != nil {
		return nil, err
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-type", "application/json")
		w.Write(healthzPayload)
	})

	// Subrouter for service routes, subject to provided middleware, verifying
	// tokens.
	svcRouter := r.NewRoute().Subrouter()
	svcRouter.Use(cfg.Middleware...)
	for _, h := range cfg.Handlers {
		h.AddHandlers(svcRouter)
	}

	// Optionally log every request
	if cfg.EnableRequestLogging {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				m := httpsnoop.CaptureMetrics(next, w, r)
				logger.Info("request",
					"duration", fmt.Sprintf("%dms", m.Duration.Milliseconds()),
					"status", m.Code,
					"method", r.Method,
					"path", fmt.Sprintf("%s?%s", r.URL.Path, r.URL.RawQuery))
			})
		})
	}

	return &Server{
		Logger:       logger,
		ServerConfig: cfg,
		server:       &http.Server{Handler: r},
	}, nil
}

// Start starts serving http traffic on the given listener and waits until the
// server exits due to error or the context is cancelled.
func (s *Server) Start(ctx context.Context, ln net.Listener) (err error) {
	errch := make(chan error)

	go func() {
		if s.SSL {
			errch <- s.server.ServeTLS(ln, s.CertFile, s.KeyFile)
		} else {
			errch <- s.server.Serve(ln)
		}
	}()

	s.Info("started server", "address", ln.Addr().String(), "ssl", s.SSL)

	// Block until server stops listening or context is cancelled.
	select {
	case err := <-errch:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Info("gracefully shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return s.server.Close()
		}

		return nil
	}
}

// APIRouter wraps the given router with a router suitable for API routes.
func APIRouter(r *mux.Router) *mux.Router {
	return r.PathPrefix(APIPrefixV1).Subrouter()
}
