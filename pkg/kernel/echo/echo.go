// Package echo is a kernel that describes every inbox message it reads with
// a debug line and forwards transfer payloads to the outbox.
package echo

import (
	"fmt"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/kernel"
)

var _ kernel.Kernel = Kernel{}

type Kernel struct{}

func (Kernel) Name() string { return "echo" }

func (Kernel) Entry(rt host.Runtime) error {
	for {
		msg, err := rt.ReadInput()
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}

		kind, body, err := inbox.Parse(msg.Payload)
		if err != nil {
			rt.WriteDebug(fmt.Sprintf("Inbox level: %d Unparsable message (%d bytes)", msg.Level, len(msg.Payload)))
			continue
		}
		rt.WriteDebug(fmt.Sprintf("Inbox level: %d %s", msg.Level, describe(kind, body)))

		if kind == inbox.KindTransfer {
			if err := rt.WriteOutput(body); err != nil {
				return err
			}
		}
	}
}

func describe(kind inbox.Kind, body []byte) string {
	switch kind {
	case inbox.KindExternal:
		return fmt.Sprintf("External message: %q", body)
	case inbox.KindStartOfLevel:
		return "Internal message: start of level"
	case inbox.KindInfoPerLevel:
		return fmt.Sprintf("Internal message: level info (block predecessor: %s)", body)
	case inbox.KindEndOfLevel:
		return "Internal message: end of level"
	case inbox.KindTransfer:
		return "Internal message: transfer"
	default:
		return "Unknown message"
	}
}
