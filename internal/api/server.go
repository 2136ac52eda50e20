package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server wraps http.Server for the introspection surface.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a new Server with conservative timeouts. Introspection
// responses are small and bounded, so the write timeout is tight.
//
// If enableHTTP2 is true, enables HTTP/2 cleartext (h2c) support for non-TLS
// connections.
func NewServer(addr string, handler http.Handler, timeout time.Duration, enableHTTP2 bool) *Server {
	finalHandler := handler
	if enableHTTP2 {
		h2s := &http2.Server{}
		finalHandler = h2c.NewHandler(handler, h2s)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      finalHandler,
			ReadTimeout:  10 * time.Second, // Prevent slow client attacks
			WriteTimeout: timeout,
			IdleTimeout:  120 * time.Second, // Keep-alive connections
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the server (blocks).
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
