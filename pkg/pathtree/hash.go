package pathtree

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashInput is the canonical form hashed for one node.
type hashInput struct {
	Value    *string      `json:"value,omitempty"`
	Children []childInput `json:"children,omitempty"`
}

type childInput struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// Hash returns the content-addressed digest (SHA-256, hex-encoded) of the
// subtree rooted at path. Trees holding the same values under the same paths
// with the same child order hash identically; an absent path hashes like an
// empty node.
func (t *Tree) Hash(ctx context.Context, path string) (string, error) {
	if err := Validate(path); err != nil {
		return "", err
	}

	type frame struct {
		node     *Node
		children []childInput
	}

	root, err := t.readNode(ctx, path)
	if err != nil {
		return "", err
	}
	if root == nil {
		return computeHash(nil, nil), nil
	}

	// Post-order walk with an explicit stack: a frame is hashed once all of
	// its children have reported their digest.
	stack := []*frame{{node: root}}
	for {
		top := stack[len(stack)-1]
		if next := len(top.children); next < len(top.node.Children) {
			child, err := t.readNode(ctx, Join(top.node.Key, top.node.Children[next]))
			if err != nil {
				return "", err
			}
			if child == nil {
				child = &Node{Key: Join(top.node.Key, top.node.Children[next])}
			}
			stack = append(stack, &frame{node: child})
			continue
		}

		digest := computeHash(top.node, top.children)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return digest, nil
		}
		parent := stack[len(stack)-1]
		_, name := Split(top.node.Key)
		parent.children = append(parent.children, childInput{Name: name, Hash: digest})
	}
}

func computeHash(n *Node, children []childInput) string {
	i := &hashInput{Children: children}
	if n != nil && n.HasValue {
		v := hex.EncodeToString(n.Value)
		i.Value = &v
	}

	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
