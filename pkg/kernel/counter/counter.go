// Package counter is the reference kernel: it counts the external messages
// whose operation starts with 0x88.
package counter

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/kernel"
)

const (
	// Path stores the counter as a big-endian uint64.
	Path = "/counter"

	// IncrementTag is the first byte of an operation that increments the counter.
	IncrementTag byte = 0x88
)

var _ kernel.Kernel = Kernel{}

type Kernel struct{}

func (Kernel) Name() string { return "counter" }

func (Kernel) Entry(rt host.Runtime) error {
	for {
		msg, err := rt.ReadInput()
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}

		kind, op, err := inbox.Parse(msg.Payload)
		if err != nil || kind != inbox.KindExternal || len(op) == 0 || op[0] != IncrementTag {
			continue
		}

		n, err := Read(rt)
		if err != nil {
			return err
		}
		if err := write(rt, n+1); err != nil {
			return err
		}
	}
}

// Read returns the current counter, zero when it was never written.
func Read(rt host.Runtime) (uint64, error) {
	value, err := rt.StoreRead(Path, 0, 8)
	switch {
	case errors.Is(err, host.ErrStoreNotANode):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read counter: %w", err)
	case len(value) != 8:
		return 0, fmt.Errorf("read counter: stored value is %d bytes", len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

func write(rt host.Runtime, n uint64) error {
	if err := rt.StoreWrite(Path, binary.BigEndian.AppendUint64(nil, n), 0); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	return nil
}
