// Package host is the adapter a kernel runs against: it feeds inbox messages
// and maps the rollup host functions onto the durable path tree.
package host

import (
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

// Runtime is the set of host functions available to a kernel.
//
// Paths given to the Store* functions must be valid kernel paths: "/" or a
// sequence of "/segment" parts made of [A-Za-z0-9._-], at most MaxKeyLength
// bytes overall. Failures are reported with the Err* sentinels of this
// package and may be tested with errors.Is.
type Runtime interface {
	// ReadInput pops the next inbox message, nil when the inbox is empty.
	ReadInput() (*inbox.Message, error)

	StoreHas(path string) (pathtree.ValueType, error)
	// StoreRead returns at most maxBytes of the value at path starting at offset.
	StoreRead(path string, offset, maxBytes int) ([]byte, error)
	// StoreWrite writes src into the value at path starting at offset,
	// growing the value when needed. offset may not exceed the current size.
	StoreWrite(path string, src []byte, offset int) error
	StoreDelete(path string) error
	StoreCopy(from, to string) error
	StoreMove(from, to string) error
	StoreValueSize(path string) (int, error)
	StoreCountSubkeys(path string) (int64, error)
	// StoreGetSubkey returns the full path of the index-th child of path.
	StoreGetSubkey(path string, index int64) (string, error)

	WriteDebug(msg string)
	WriteOutput(data []byte) error
}
