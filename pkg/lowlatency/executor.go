// Package lowlatency applies inbox messages to the durable state as soon as
// they are sequenced, without waiting for the level to be closed.
package lowlatency

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/kernel"
)

// ErrKernelPanic is returned when the kernel panics during a round.
var ErrKernelPanic = errors.New("kernel panicked")

// Config tunes an Executor.
type Config struct {
	// Budget bounds every kernel round.
	Budget host.Budget

	// SimulateLevelFraming feeds end-of-level, start-of-level and
	// info-per-level markers to the kernel when a header arrives.
	SimulateLevelFraming bool
}

// Executor runs a kernel round for every message. It is owned by a single
// goroutine, like the host it drives.
type Executor struct {
	kernel kernel.Kernel
	host   *host.NativeHost
	config Config
	logger *zap.Logger
}

func New(k kernel.Kernel, h *host.NativeHost, config Config, logger *zap.Logger) *Executor {
	return &Executor{
		kernel: k,
		host:   h,
		config: config,
		logger: logger.With(zap.String("kernel", k.Name())),
	}
}

// OnOperation adds msg to the host inbox and runs the kernel until it returns.
func (e *Executor) OnOperation(ctx context.Context, msg inbox.Message) error {
	e.host.AddMessage(msg)
	return e.run(ctx)
}

// OnHeader moves the host to the header's level. With level framing
// enabled the kernel also sees the level boundary markers.
func (e *Executor) OnHeader(ctx context.Context, header inbox.ChainHeader) error {
	if !e.config.SimulateLevelFraming {
		e.host.SetLevel(header.Level)
		return nil
	}

	e.host.AddInput(inbox.EndOfLevel())
	e.host.SetLevel(header.Level)
	e.host.AddInput(inbox.StartOfLevel())
	e.host.AddInput(inbox.InfoPerLevel(header.Predecessor))
	return e.run(ctx)
}

func (e *Executor) run(ctx context.Context) (err error) {
	e.host.BeginRound(ctx, e.config.Budget)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrKernelPanic, e.kernel.Name(), r)
		}

		stats := e.host.EndRound()
		e.logger.Debug("kernel round finished",
			zap.Uint32("level", e.host.Level()),
			zap.Uint64("ticks", stats.Ticks),
			zap.Duration("elapsed", stats.Elapsed),
			zap.Bool("exhausted", stats.Exhausted),
			zap.Error(err),
		)
	}()

	if err := e.kernel.Entry(e.host); err != nil {
		return fmt.Errorf("kernel %s: %w", e.kernel.Name(), err)
	}
	return nil
}
