package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/STTM-NSU/financeel/internal/logger"
)

const (
	_readHeaderTimeout = 10 * time.Second
	_shutdownTimeout   = 10 * time.Second
)

type HTTPServer struct {
	s      *http.Server
	logger logger.Logger
}

func NewHTTPServer(ctx context.Context, port string, handler http.Handler, logger logger.Logger) *HTTPServer {
	return &HTTPServer{
		s: &http.Server{
			Handler:           handler,
			Addr:              ":" + port,
			ReadHeaderTimeout: _readHeaderTimeout,
			BaseContext: func(listener net.Listener) context.Context {
				return ctx
			},
		},
		logger: logger.With("component", "http"),
	}
}

func (s *HTTPServer) Addr() string {
	return s.s.Addr
}

// Run serves until ctx is done, then drains in-flight requests for up to _shutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.s.Addr)
		errCh <- s.s.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
		defer cancel()
		s.logger.Infof("shutting down")
		return s.s.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
