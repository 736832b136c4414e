package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bobmcallan/purse/internal/app"
	"github.com/bobmcallan/purse/internal/common"
)

// Server serves the ledger REST API for one App.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger
}

// NewServer wires routes and middleware onto an http.Server configured from
// the app's [server] section.
func NewServer(a *app.App) *Server {
	s := &Server{app: a, logger: a.Logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	cfg := a.Config.Server
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:           applyMiddleware(mux, a.Logger),
		ReadHeaderTimeout: cfg.GetReadTimeout(),
		ReadTimeout:       cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       2 * cfg.GetWriteTimeout(),
	}
	return s
}

// Handler returns the wrapped mux, for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Str("backend", s.app.Storage.Backend()).
		Msg("Ledger API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured shutdown
// timeout, or ctx's deadline if that is sooner.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.app.Config.Server.GetShutdownTimeout())
	defer cancel()
	return s.server.Shutdown(ctx)
}
