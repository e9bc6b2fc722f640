package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// Options tunes the underlying http.Server. Zero values keep the net/http
// defaults.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// TLSConfig is used by ListenAndServeTLS, e.g. with a GetCertificate
	// callback for certificate reloading.
	TLSConfig *tls.Config
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler, opts ...Options) *Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		srv.ReadTimeout = o.ReadTimeout
		srv.WriteTimeout = o.WriteTimeout
		srv.TLSConfig = o.TLSConfig
	}
	return &Server{
		httpServer: srv,
		handler:    handler,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	return ignoreClosed(s.httpServer.ListenAndServe())
}

// ListenAndServeTLS starts the HTTPS server. Both file names may be empty
// when Options.TLSConfig provides the certificate. It returns nil after
// Shutdown.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return ignoreClosed(s.httpServer.ListenAndServeTLS(certFile, keyFile))
}

// Serve accepts connections on l. It returns nil after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	return ignoreClosed(s.httpServer.Serve(l))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
