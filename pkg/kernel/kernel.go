// Package kernel defines the contract between the sequencer and the state
// machine it runs.
package kernel

import "github.com/papercomputeco/sequencer/pkg/host"

// Kernel is a rollup state machine. Entry is called once per round and is
// expected to read inputs until ReadInput returns nil.
type Kernel interface {
	Name() string
	Entry(rt host.Runtime) error
}

// Func adapts a plain function to the Kernel interface.
func Func(name string, entry func(rt host.Runtime) error) Kernel {
	return funcKernel{name: name, entry: entry}
}

type funcKernel struct {
	name  string
	entry func(rt host.Runtime) error
}

func (k funcKernel) Name() string { return k.name }

func (k funcKernel) Entry(rt host.Runtime) error { return k.entry(rt) }
