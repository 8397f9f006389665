// Package server implements the gRPC server for the daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"google.golang.org/grpc"

	"github.com/hatray/hatray/internal/models"
)

// Host is the interface the daemon listens on.
const Host = "127.0.0.1"

// Server is the daemon's gRPC server, with an optional grpc-web endpoint.
type Server struct {
	grpcServer  *grpc.Server
	listener    net.Listener
	webServer   *http.Server
	webListener net.Listener
	info        *models.DaemonInfo
}

// New creates a server listening on port. Pass port 0 for dynamic
// allocation; webPort 0 disables grpc-web.
func New(port, webPort int, facade Facade) (*Server, error) {
	lc := &net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf("%s:%d", Host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	srv := &Server{
		grpcServer: grpc.NewServer(),
		listener:   listener,
	}

	actualWebPort := 0
	if webPort > 0 {
		webListener, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf("%s:%d", Host, webPort))
		if err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("failed to listen for grpc-web: %w", err)
		}
		actualWebPort = webListener.Addr().(*net.TCPAddr).Port
		srv.webListener = webListener
		srv.webServer = &http.Server{
			Handler:           WebHandler(srv.grpcServer),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	srv.info = models.NewDaemonInfo(Host, actualPort, actualWebPort, os.Getpid())
	Register(srv.grpcServer, facade, srv.info, RequestShutdown)

	return srv, nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.info.Port
}

// Info returns the connection record to publish for clients.
func (s *Server) Info() *models.DaemonInfo {
	return s.info
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	if s.webServer != nil {
		go func() {
			log.Printf("[server] grpc-web listening on %s", s.webListener.Addr())
			if err := s.webServer.Serve(s.webListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[server] grpc-web stopped: %v", err)
			}
		}()
	}
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	if s.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = s.webServer.Shutdown(ctx)
		cancel()
	}
	s.grpcServer.GracefulStop()
}

// WebHandler serves grpc-web requests from loopback origins and 404s
// everything else.
func WebHandler(grpcServer *grpc.Server) http.Handler {
	wrapped := grpcweb.WrapServer(grpcServer, grpcweb.WithOriginFunc(IsLoopbackOrigin))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wrapped.IsGrpcWebRequest(r) || wrapped.IsAcceptableGrpcCorsRequest(r) {
			wrapped.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// IsLoopbackOrigin reports whether a browser origin points at this machine.
func IsLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost":
		return true
	case "":
		return false
	}
	ip := net.ParseIP(u.Hostname())
	return ip != nil && ip.IsLoopback()
}

// RequestShutdown sends SIGINT to the current process to trigger a graceful shutdown.
func RequestShutdown() {
	// Give an in-flight reply time to reach the client.
	time.Sleep(100 * time.Millisecond)
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGINT)
}
