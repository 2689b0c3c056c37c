package inbox

import "errors"

// Tags of the first payload byte.
const (
	InternalTag byte = 0x00
	ExternalTag byte = 0x01
)

// Kind classifies an inbox payload.
type Kind int

const (
	KindUnknown Kind = iota
	KindExternal
	KindTransfer
	KindStartOfLevel
	KindEndOfLevel
	KindInfoPerLevel
)

// Internal marker sub-tags, the second payload byte of internal messages.
const (
	transferTag     byte = 0x00
	startOfLevelTag byte = 0x01
	endOfLevelTag   byte = 0x02
	infoPerLevelTag byte = 0x03
)

var ErrMalformedPayload = errors.New("malformed inbox payload")

func (k Kind) String() string {
	switch k {
	case KindExternal:
		return "external"
	case KindTransfer:
		return "transfer"
	case KindStartOfLevel:
		return "start_of_level"
	case KindEndOfLevel:
		return "end_of_level"
	case KindInfoPerLevel:
		return "info_per_level"
	default:
		return "unknown"
	}
}

// External frames an operation as an external inbox message.
func External(op []byte) []byte {
	out := make([]byte, 0, len(op)+1)
	out = append(out, ExternalTag)
	return append(out, op...)
}

// StartOfLevel is the payload of the marker opening a level.
func StartOfLevel() []byte {
	return []byte{InternalTag, startOfLevelTag}
}

// EndOfLevel is the payload of the marker closing a level.
func EndOfLevel() []byte {
	return []byte{InternalTag, endOfLevelTag}
}

// InfoPerLevel carries the predecessor hash of the level being opened.
func InfoPerLevel(predecessor string) []byte {
	out := []byte{InternalTag, infoPerLevelTag}
	return append(out, predecessor...)
}

// Parse returns the kind of payload and its body with the tags stripped.
func Parse(payload []byte) (Kind, []byte, error) {
	if len(payload) == 0 {
		return KindUnknown, nil, ErrMalformedPayload
	}
	switch payload[0] {
	case ExternalTag:
		return KindExternal, payload[1:], nil
	case InternalTag:
		if len(payload) < 2 {
			return KindUnknown, nil, ErrMalformedPayload
		}
		body := payload[2:]
		switch payload[1] {
		case transferTag:
			return KindTransfer, body, nil
		case startOfLevelTag:
			return KindStartOfLevel, body, nil
		case endOfLevelTag:
			return KindEndOfLevel, body, nil
		case infoPerLevelTag:
			return KindInfoPerLevel, body, nil
		}
	}
	return KindUnknown, nil, ErrMalformedPayload
}
