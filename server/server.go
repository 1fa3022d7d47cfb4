package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Server serves an http.Handler until its context is cancelled or the
// process receives SIGINT or SIGTERM, then runs its shutdown hooks.
type Server struct {
	httpServer *http.Server
	shutdown   *Shutdown
}

func New(addr string, handler http.Handler, shutdownTimeout time.Duration) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdown: NewShutdown(shutdownTimeout),
	}
	s.shutdown.RegisterHook("http-server", PriorityHTTP, s.httpServer.Shutdown)
	return s
}

// RegisterHook adds a hook that runs after the HTTP server stops.
func (s *Server) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	s.shutdown.RegisterHook(name, priority, fn)
}

// Run blocks until the server stops. Shutdown hooks run in every case.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Component(ctx, "server")
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "failed to serve", goerr.V("addr", s.httpServer.Addr))
			return
		}
		errCh <- nil
	}()

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
	}

	s.shutdown.Run(ctx)
	logger.Info("server stopped")
	return err
}
