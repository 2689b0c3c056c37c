// Package inbox defines the messages a kernel reads from its inbox and the
// framing that distinguishes protocol markers from external operations.
package inbox

import "fmt"

// FirstExternalIndex is the index of the first application message in a
// level. Index 0 is the start-of-level marker and index 1 the info-per-level
// marker.
const FirstExternalIndex uint32 = 2

// Message is one addressed inbox entry. Messages are immutable once built.
type Message struct {
	Level   uint32 `json:"level"`
	Index   uint32 `json:"index"`
	Payload []byte `json:"payload"`
}

// NewMessage builds a message that owns a copy of payload.
func NewMessage(level, index uint32, payload []byte) Message {
	return Message{
		Level:   level,
		Index:   index,
		Payload: append([]byte{}, payload...),
	}
}

func (m Message) String() string {
	return fmt.Sprintf("message(level=%d, index=%d, %d bytes)", m.Level, m.Index, len(m.Payload))
}

// ChainHeader is a head announced by the upstream chain. Headers are
// informational: nothing about them is verified.
type ChainHeader struct {
	Hash        string `json:"hash"`
	Level       uint32 `json:"level"`
	Predecessor string `json:"predecessor"`
}
