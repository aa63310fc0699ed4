package devhost

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/httputil"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

// Server exposes a Host on a websocket path plus a health endpoint.
type Server struct {
	host   *Host
	logger *logging.ColoredLogger
	router chi.Router
	server *http.Server
}

// NewServer mounts h at path.
func NewServer(h *Host, path string) *Server {
	if path == "" {
		path = "/"
	}
	s := &Server{host: h, logger: h.logger, router: chi.NewRouter()}
	s.router.Use(middleware.Recoverer)
	s.router.Get("/health", s.handleHealth)
	s.router.Handle(path, h)
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.server = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	s.logger.ComponentInfo(logging.ComponentDevHost, "development host listening",
		zap.String("listen_addr", listener.Addr().String()),
		zap.Int("channels", len(s.host.Channels())))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.server.Shutdown(shutdownCtx)
	s.host.Close()
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccessWithData(w, map[string]any{
		"clients":  s.host.Clients(),
		"channels": s.host.Channels(),
	})
}
