// Package sequencertest runs an in-process sequencer for tests of API clients.
package sequencertest

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/api"
	"github.com/papercomputeco/sequencer/pkg/kernel"
	"github.com/papercomputeco/sequencer/pkg/node"
	"github.com/papercomputeco/sequencer/pkg/storage/inmemory"
)

// Server is a node with in-memory storage behind a real HTTP listener on
// the loopback interface.
type Server struct {
	URL  string
	Node *node.Node

	api *api.Server
}

// Start serves k on a free loopback port. Submissions are acknowledged once
// applied so that reads right after Submit observe the operation.
func Start(k kernel.Kernel) (*Server, error) {
	n, err := node.New(node.Config{
		Kernel:  k,
		Driver:  inmemory.NewDriver(),
		AckMode: node.AckOnApply,
	}, zap.NewNop())
	if err != nil {
		return nil, err
	}

	srv, err := api.New(api.Config{}, n, zap.NewNop())
	if err != nil {
		n.Close()
		return nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("could not listen: %w", err)
	}
	go func() { _ = srv.RunWithListener(ln) }()

	return &Server{
		URL:  "http://" + ln.Addr().String(),
		Node: n,
		api:  srv,
	}, nil
}

// Close stops the HTTP server and drains the node.
func (s *Server) Close() {
	_ = s.api.Shutdown(context.Background())
	s.Node.Close()
}

// Apply submits ops to the node in order.
func (s *Server) Apply(ctx context.Context, ops ...[]byte) error {
	for _, op := range ops {
		if err := s.Node.Submit(ctx, op); err != nil {
			return err
		}
	}
	return nil
}
