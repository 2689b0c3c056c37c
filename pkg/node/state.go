package node

import (
	"context"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

// Status is a snapshot of the pipeline counters.
type Status struct {
	Kernel       string `json:"kernel"`
	Level        uint32 `json:"level"`
	PendingBatch int    `json:"pending_batch"`
	QueueDepth   int    `json:"queue_depth"`
	Operations   uint64 `json:"operations"`
	Headers      uint64 `json:"headers"`
	KernelErrors uint64 `json:"kernel_errors"`
	Injected     uint64 `json:"injected"`
	AckMode      string `json:"ack_mode"`
}

func (n *Node) Status() Status {
	return Status{
		Kernel:       n.config.Kernel.Name(),
		Level:        n.level.Load(),
		PendingBatch: int(n.pending.Load()),
		QueueDepth:   len(n.queue),
		Operations:   n.operations.Load(),
		Headers:      n.headers.Load(),
		KernelErrors: n.kernelErrors.Load(),
		Injected:     n.injected.Load(),
		AckMode:      n.config.AckMode.String(),
	}
}

// GetState reads the durable value at path, bypassing the queue.
func (n *Node) GetState(ctx context.Context, path string) ([]byte, bool, error) {
	return n.reader.Read(ctx, path)
}

// GetSubkeys lists the children of path, bypassing the queue.
func (n *Node) GetSubkeys(ctx context.Context, path string) ([]string, error) {
	return n.reader.Subkeys(ctx, path)
}

// StateHash is the merkle digest of the subtree at path.
func (n *Node) StateHash(ctx context.Context, path string) (string, error) {
	return n.reader.Hash(ctx, path)
}

// Reader is the read-only view of the durable state.
func (n *Node) Reader() pathtree.Reader {
	return n.reader
}

func (n *Node) Journal() *host.Journal {
	return n.journal
}
