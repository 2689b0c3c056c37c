// Package sequencer orders operations into inbox messages and batches them
// per level until the next chain header closes the level.
package sequencer

import "github.com/papercomputeco/sequencer/pkg/inbox"

// Sequencer is owned by a single goroutine.
type Sequencer struct {
	level     uint32
	nextIndex uint32
	batch     [][]byte
}

func New() *Sequencer {
	return &Sequencer{nextIndex: inbox.FirstExternalIndex}
}

// OnOperation appends op to the open batch and returns the external inbox
// message addressed to the current level and the next free index.
func (s *Sequencer) OnOperation(op []byte) inbox.Message {
	op = append([]byte{}, op...)
	s.batch = append(s.batch, op)

	msg := inbox.Message{
		Level:   s.level,
		Index:   s.nextIndex,
		Payload: inbox.External(op),
	}
	s.nextIndex++
	return msg
}

// OnHeader moves to the header's level and hands back the operations
// batched for the previous one, in submission order.
func (s *Sequencer) OnHeader(header inbox.ChainHeader) [][]byte {
	batch := s.batch
	s.batch = nil
	s.level = header.Level
	s.nextIndex = inbox.FirstExternalIndex
	return batch
}

func (s *Sequencer) Level() uint32 {
	return s.level
}

// Pending is the number of operations in the open batch.
func (s *Sequencer) Pending() int {
	return len(s.batch)
}
