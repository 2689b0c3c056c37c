package pathtree

import (
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"
)

// Node is the persisted record for one path of the tree.
type Node struct {
	// Key is the full path of the node, e.g. "/players/tz1/x_pos".
	Key string `cbor:"1,keyasint" json:"key"`

	// HasValue distinguishes an empty value from a pure directory node.
	HasValue bool   `cbor:"2,keyasint" json:"has_value"`
	Value    []byte `cbor:"3,keyasint,omitempty" json:"value,omitempty"`

	// Children holds the immediate child segments in insertion order, without duplicates.
	Children []string `cbor:"4,keyasint,omitempty" json:"children,omitempty"`
}

// Empty reports whether the node carries neither a value nor children,
// which makes it equivalent to an absent node.
func (n *Node) Empty() bool {
	return !n.HasValue && len(n.Children) == 0
}

// addChild appends segment if it is not already listed and reports whether
// the node changed.
func (n *Node) addChild(segment string) bool {
	if slices.Contains(n.Children, segment) {
		return false
	}
	n.Children = append(n.Children, segment)
	return true
}

// removeChild drops segment and reports whether the node changed.
func (n *Node) removeChild(segment string) bool {
	i := slices.Index(n.Children, segment)
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	return true
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("pathtree: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("pathtree: cbor decoder: %v", err))
	}
}

func encodeNode(n *Node) ([]byte, error) {
	b, err := encMode.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncoding, n.Key, err)
	}
	return b, nil
}

func decodeNode(key string, record []byte) (*Node, error) {
	var n Node
	if err := decMode.Unmarshal(record, &n); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncoding, key, err)
	}
	if n.Key != key {
		return nil, fmt.Errorf("%w: record for %s is keyed %q", ErrEncoding, key, n.Key)
	}
	return &n, nil
}
