package sequencertest

import (
	"errors"
	"strings"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/kernel"
)

// KV is a fixture kernel for building arbitrary trees. An external
// operation "a/b=v" replaces the value at /a/b with v and "-a/b" deletes
// /a/b. Replacing a longer value deletes the path first, which also drops
// any subtree below it. Anything else is ignored.
var KV = kernel.Func("kv", func(rt host.Runtime) error {
	for {
		msg, err := rt.ReadInput()
		if err != nil || msg == nil {
			return err
		}
		kind, body, err := inbox.Parse(msg.Payload)
		if err != nil || kind != inbox.KindExternal {
			continue
		}

		op := string(body)
		if key, ok := strings.CutPrefix(op, "-"); ok {
			if err := rt.StoreDelete("/" + key); err != nil {
				return err
			}
			continue
		}
		if key, value, ok := strings.Cut(op, "="); ok {
			if err := set(rt, "/"+key, []byte(value)); err != nil {
				return err
			}
		}
	}
})

func set(rt host.Runtime, path string, value []byte) error {
	size, err := rt.StoreValueSize(path)
	switch {
	case err == nil && size > len(value):
		if err := rt.StoreDelete(path); err != nil {
			return err
		}
	case err != nil && !errors.Is(err, host.ErrStoreNotANode) && !errors.Is(err, host.ErrStoreNotAValue):
		return err
	}
	return rt.StoreWrite(path, value, 0)
}

// Set returns the KV operation storing value at key, key given without the
// leading slash.
func Set(key, value string) []byte {
	return []byte(key + "=" + value)
}
