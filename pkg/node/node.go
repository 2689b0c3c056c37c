// Package node runs the sequencing pipeline on a single actor goroutine:
// every operation and chain header is applied in the order it was queued,
// and the durable state is only ever mutated from that goroutine.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/injector"
	"github.com/papercomputeco/sequencer/pkg/kernel"
	"github.com/papercomputeco/sequencer/pkg/lowlatency"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
	"github.com/papercomputeco/sequencer/pkg/sequencer"
	"github.com/papercomputeco/sequencer/pkg/storage"
)

// DefaultQueueSize is the capacity of the actor queue.
const DefaultQueueSize = 1024

var ErrClosed = errors.New("node is closed")

// AckMode selects when Submit returns.
type AckMode int

const (
	// AckOnDequeue releases the submitter as soon as the actor dequeues the
	// operation, before it is applied.
	AckOnDequeue AckMode = iota

	// AckOnApply releases the submitter once the kernel round for the
	// operation has finished, reporting its error.
	AckOnApply
)

func (m AckMode) String() string {
	if m == AckOnApply {
		return "apply"
	}
	return "dequeue"
}

// ParseAckMode accepts "dequeue" and "apply".
func ParseAckMode(s string) (AckMode, error) {
	switch s {
	case "", "dequeue":
		return AckOnDequeue, nil
	case "apply":
		return AckOnApply, nil
	}
	return AckOnDequeue, fmt.Errorf("unknown ack mode %q", s)
}

// Config wires a Node.
type Config struct {
	Kernel kernel.Kernel
	Driver storage.Driver

	// Injector receives every non-empty batch closed by a header. Optional.
	Injector injector.Injector

	QueueSize int
	AckMode   AckMode
	Executor  lowlatency.Config
	Journal   *host.Journal

	// MaxValueSize caps kernel values; zero keeps the host default.
	MaxValueSize int
}

type queueMsg struct {
	id     uuid.UUID
	op     []byte
	header *inbox.ChainHeader
	done   chan error
}

// Node is the sequencer orchestrator.
type Node struct {
	config  Config
	logger  *zap.Logger
	reader  pathtree.Reader
	journal *host.Journal

	seq  *sequencer.Sequencer
	exec *lowlatency.Executor

	mu     sync.RWMutex
	closed bool
	queue  chan queueMsg
	done   chan struct{}

	level        atomic.Uint32
	pending      atomic.Int64
	operations   atomic.Uint64
	headers      atomic.Uint64
	kernelErrors atomic.Uint64
	injected     atomic.Uint64
}

// New starts the actor goroutine.
func New(config Config, logger *zap.Logger) (*Node, error) {
	if config.Kernel == nil {
		return nil, errors.New("node: kernel is required")
	}
	if config.Driver == nil {
		return nil, errors.New("node: storage driver is required")
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Journal == nil {
		config.Journal = host.NewJournal(0)
	}

	tree := pathtree.New(config.Driver)
	opts := []host.Option{
		host.WithJournal(config.Journal),
		host.WithLogger(logger.With(zap.String("kernel", config.Kernel.Name()))),
	}
	if config.MaxValueSize > 0 {
		opts = append(opts, host.WithMaxValueSize(config.MaxValueSize))
	}
	h := host.New(tree, opts...)

	n := &Node{
		config:  config,
		logger:  logger,
		reader:  tree.ReadOnly(),
		journal: config.Journal,
		seq:     sequencer.New(),
		exec:    lowlatency.New(config.Kernel, h, config.Executor, logger),
		queue:   make(chan queueMsg, config.QueueSize),
		done:    make(chan struct{}),
	}
	go n.loop()

	logger.Info("node started",
		zap.String("kernel", config.Kernel.Name()),
		zap.Int("queue_size", config.QueueSize),
		zap.Stringer("ack_mode", config.AckMode),
	)
	return n, nil
}

// Submit queues op and waits for its acknowledgement, see AckMode.
func (n *Node) Submit(ctx context.Context, op []byte) error {
	msg := queueMsg{
		id:   uuid.New(),
		op:   append([]byte{}, op...),
		done: make(chan error, 1),
	}
	if err := n.enqueue(ctx, msg); err != nil {
		return err
	}

	select {
	case err := <-msg.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnHeader queues a chain header without waiting for it to be applied.
func (n *Node) OnHeader(ctx context.Context, header inbox.ChainHeader) error {
	return n.enqueue(ctx, queueMsg{id: uuid.New(), header: &header})
}

func (n *Node) enqueue(ctx context.Context, msg queueMsg) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}

	select {
	case n.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages, lets the actor apply what is already
// queued and waits for it to stop. The storage driver is left open.
func (n *Node) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *Node) loop() {
	defer close(n.done)
	ctx := context.Background()

	for msg := range n.queue {
		if msg.done != nil && n.config.AckMode == AckOnDequeue {
			msg.done <- nil
		}

		var err error
		switch {
		case msg.header != nil:
			err = n.applyHeader(ctx, *msg.header)
		default:
			err = n.applyOperation(ctx, msg)
		}

		if msg.done != nil && n.config.AckMode == AckOnApply {
			msg.done <- err
		}
	}
	n.logger.Info("node stopped")
}

func (n *Node) applyOperation(ctx context.Context, msg queueMsg) error {
	m := n.seq.OnOperation(msg.op)
	n.pending.Store(int64(n.seq.Pending()))
	n.operations.Add(1)

	if err := n.exec.OnOperation(ctx, m); err != nil {
		n.kernelErrors.Add(1)
		n.logger.Error("kernel failed to apply operation",
			zap.Stringer("id", msg.id),
			zap.Uint32("level", m.Level),
			zap.Uint32("index", m.Index),
			zap.Error(err),
		)
		return err
	}

	n.logger.Debug("operation applied",
		zap.Stringer("id", msg.id),
		zap.Uint32("level", m.Level),
		zap.Uint32("index", m.Index),
	)
	return nil
}

func (n *Node) applyHeader(ctx context.Context, header inbox.ChainHeader) error {
	batch := n.seq.OnHeader(header)
	n.level.Store(header.Level)
	n.pending.Store(0)
	n.headers.Add(1)

	n.logger.Info("new chain head",
		zap.String("hash", header.Hash),
		zap.Uint32("level", header.Level),
		zap.Int("batch", len(batch)),
	)

	if n.config.Injector != nil && len(batch) > 0 {
		if err := n.config.Injector.Inject(ctx, batch); err != nil {
			n.logger.Error("failed to hand batch to injector", zap.Uint32("level", header.Level), zap.Error(err))
		} else {
			n.injected.Add(uint64(len(batch)))
		}
	}

	if err := n.exec.OnHeader(ctx, header); err != nil {
		n.kernelErrors.Add(1)
		n.logger.Error("kernel failed at level boundary", zap.Uint32("level", header.Level), zap.Error(err))
		return err
	}
	return nil
}
