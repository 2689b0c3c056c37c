// Package api exposes the sequencer node over HTTP: operation submission,
// durable state inspection and a JSON-RPC endpoint for the same calls.
package api

import (
	"context"
	"fmt"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/node"
)

// Backend is what the API needs from the node.
type Backend interface {
	Submit(ctx context.Context, op []byte) error
	GetState(ctx context.Context, path string) ([]byte, bool, error)
	GetSubkeys(ctx context.Context, path string) ([]string, error)
	StateHash(ctx context.Context, path string) (string, error)
	Status() node.Status
	Journal() *host.Journal
}

var _ Backend = (*node.Node)(nil)

// Server is the HTTP front of a sequencer node.
type Server struct {
	config  Config
	backend Backend
	logger  *zap.Logger
	app     *fiber.App
}

// New creates a Server with every route registered.
func New(config Config, backend Backend, logger *zap.Logger) (*Server, error) {
	rpcHandler, err := newRPCHandler(backend, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON-RPC handler: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		backend: backend,
		logger:  logger,
		app:     app,
	}

	app.Post("/operations", s.handlePostOperation)
	app.Get("/state", s.handleGetState)
	app.Get("/state/hash", s.handleGetStateHash)
	app.Get("/subkeys", s.handleGetSubkeys)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Get("/status", s.handleStatus)
	app.Get("/debug", s.handleDebug)
	app.Get("/outbox", s.handleOutbox)

	app.Post("/rpc", adaptor.HTTPHandler(rpcHandler))

	return s, nil
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on the configured listen address until Shutdown.
func (s *Server) Run() error {
	s.logger.Info("starting API server", zap.String("listen", s.config.ListenAddr))
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on ln until Shutdown.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting API server", zap.String("listen", ln.Addr().String()))
	return s.app.Listener(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
