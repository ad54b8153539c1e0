package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dragonlost/web/internal/rcon"
	"github.com/dragonlost/web/internal/services/shop/storage/sqlite"
)

const defaultShutdownTimeout = 10 * time.Second

// Config holds shop server configuration.
type Config struct {
	HTTPAddr     string
	DatabasePath string

	RCONHost     string
	RCONPort     int
	RCONPassword string
	SilentGive   bool

	ShutdownTimeout time.Duration
}

// Server owns the shop HTTP surface and its backing resources.
type Server struct {
	httpAddr        string
	httpServer      *http.Server
	store           *sqlite.Store
	transport       *rcon.Transport
	shutdownTimeout time.Duration
}

// NewServer opens the purchase store, builds the RCON bridge, and wires the
// delivery routes. The RCON connection itself is established lazily on the
// first command so a server with no game configuration still starts.
func NewServer(config Config) (*Server, error) {
	if config.HTTPAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}

	store, err := sqlite.Open(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open purchase store: %w", err)
	}

	transport := rcon.NewTransport(rcon.Config{
		Host:     config.RCONHost,
		Port:     config.RCONPort,
		Password: config.RCONPassword,
	})
	game := rcon.NewClient(transport, rcon.WithSilentGive(config.SilentGive))

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	handler := NewHandler(NewCoordinator(store, game), game)
	return &Server{
		httpAddr:        config.HTTPAddr,
		httpServer:      &http.Server{Addr: config.HTTPAddr, Handler: handler},
		store:           store,
		transport:       transport,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Run builds the shop server and serves until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init shop server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve shop: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("shop server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if s.transport.Configured() {
		if err := s.transport.Connect(ctx); err != nil {
			// Reconnection is the transport's job; startup only reports it.
			log.Printf("shop: initial rcon connect: %v", err)
		}
	} else {
		log.Print("shop: rcon is not configured, deliveries are disabled")
	}

	serveErr := make(chan error, 1)
	log.Printf("shop server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if err := s.transport.Close(); err != nil {
		log.Printf("close rcon transport: %v", err)
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close purchase store: %v", err)
	}
}
