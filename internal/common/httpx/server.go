package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

type Server struct {
	*http.Server
	ShutdownTimeout time.Duration
}

type Option func(*Server)

// WithTimeouts sets the read and idle timeouts. There is no write timeout:
// pick requests are held open for the whole pick and websockets indefinitely.
func WithTimeouts(read, idle time.Duration) Option {
	return func(s *Server) {
		s.ReadHeaderTimeout = read
		s.ReadTimeout = read
		s.IdleTimeout = idle
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.ShutdownTimeout = d }
}

func New(addr string, h http.Handler, opts ...Option) *Server {
	s := &Server{
		Server:          &http.Server{Addr: addr, Handler: h},
		ShutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Server.Serve(ln) }()
	select {
	case <-ctx.Done():
		ctx2, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx2)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
