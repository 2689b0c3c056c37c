package injector

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// DefaultWorkerQueueSize is the number of batches a Worker buffers.
const DefaultWorkerQueueSize = 64

var ErrWorkerClosed = errors.New("injection worker closed")

// Worker injects batches on its own goroutine, one at a time and in the
// order they were handed over. Failed injections are logged and dropped.
type Worker struct {
	next   Injector
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan [][]byte
	done   chan struct{}
}

var _ Injector = (*Worker)(nil)

// NewWorker starts a worker forwarding to next.
func NewWorker(next Injector, queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = DefaultWorkerQueueSize
	}
	w := &Worker{
		next:   next,
		logger: logger,
		queue:  make(chan [][]byte, queueSize),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

// Inject queues batch and returns without waiting for the injection. It
// blocks while the queue is full.
func (w *Worker) Inject(ctx context.Context, batch [][]byte) error {
	if len(batch) == 0 {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWorkerClosed
	}

	select {
	case w.queue <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches and waits for the queued ones to be injected.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)
	for batch := range w.queue {
		if err := w.next.Inject(context.Background(), batch); err != nil {
			w.logger.Error("failed to inject batch",
				zap.Int("operations", len(batch)),
				zap.Error(err),
			)
			continue
		}
		w.logger.Info("batch injected", zap.Int("operations", len(batch)))
	}
}
