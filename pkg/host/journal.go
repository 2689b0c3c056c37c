package host

import (
	"sync"
	"time"
)

// DefaultJournalCapacity is the number of entries of each kind a journal keeps.
const DefaultJournalCapacity = 1024

// DebugLine is one WriteDebug call.
type DebugLine struct {
	Level uint32    `json:"level"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// OutboxMessage is one WriteOutput call.
type OutboxMessage struct {
	Level   uint32 `json:"level"`
	Index   uint32 `json:"index"`
	Payload []byte `json:"payload"`
}

// Journal records what kernels print and emit. It keeps the most recent
// entries only and is safe for concurrent use: the actor writes, API
// handlers read.
type Journal struct {
	mu       sync.Mutex
	capacity int
	debug    []DebugLine
	outbox   []OutboxMessage
}

// NewJournal creates a journal keeping up to capacity entries of each kind.
// A non-positive capacity selects DefaultJournalCapacity.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultJournalCapacity
	}
	return &Journal{capacity: capacity}
}

func (j *Journal) recordDebug(line DebugLine) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.debug = appendBounded(j.debug, line, j.capacity)
}

func (j *Journal) recordOutput(msg OutboxMessage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outbox = appendBounded(j.outbox, msg, j.capacity)
}

// Debug returns the recorded debug lines, oldest first.
func (j *Journal) Debug() []DebugLine {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]DebugLine{}, j.debug...)
}

// Outbox returns the recorded outbox messages, oldest first.
func (j *Journal) Outbox() []OutboxMessage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]OutboxMessage{}, j.outbox...)
}

func appendBounded[T any](s []T, v T, capacity int) []T {
	if len(s) >= capacity {
		s = append(s[:0], s[len(s)-capacity+1:]...)
	}
	return append(s, v)
}
