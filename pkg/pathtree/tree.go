// Package pathtree is the durable storage tree of the rollup emulator:
// hierarchical values keyed by slash-delimited paths with subkey enumeration,
// cascading delete and subtree copy/move.
//
// Every node is one record in a storage.Driver. Operations that touch several
// records (ancestor linking, deletes, copies) are not transactional: a driver
// failure part way leaves the records written so far in place. Readers always
// observe each record either before or after a write, never half written.
package pathtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/sequencer/pkg/storage"
)

// ValueType describes what lives at a path.
type ValueType int

const (
	ValueTypeNone ValueType = iota
	ValueTypeValue
	ValueTypeSubtree
	ValueTypeValueWithSubtree
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeValue:
		return "value"
	case ValueTypeSubtree:
		return "subtree"
	case ValueTypeValueWithSubtree:
		return "value+subtree"
	default:
		return "none"
	}
}

// Reader is the non-mutating view of a tree. It is safe to use from any
// goroutine while a single writer mutates the same driver.
type Reader interface {
	Read(ctx context.Context, path string) ([]byte, bool, error)
	Subkeys(ctx context.Context, path string) ([]string, error)
	Has(ctx context.Context, path string) (ValueType, error)
	Hash(ctx context.Context, path string) (string, error)
}

var _ Reader = (*Tree)(nil)

// Tree implements the path tree on top of a storage.Driver.
// A Tree used for writing must have a single owner.
type Tree struct {
	driver storage.Driver
}

// New creates a tree over driver.
func New(driver storage.Driver) *Tree {
	return &Tree{driver: driver}
}

// ReadOnly returns a Reader sharing the tree's driver.
func (t *Tree) ReadOnly() Reader {
	return readOnly{t}
}

type readOnly struct{ t *Tree }

func (r readOnly) Read(ctx context.Context, path string) ([]byte, bool, error) {
	return r.t.Read(ctx, path)
}

func (r readOnly) Subkeys(ctx context.Context, path string) ([]string, error) {
	return r.t.Subkeys(ctx, path)
}

func (r readOnly) Has(ctx context.Context, path string) (ValueType, error) {
	return r.t.Has(ctx, path)
}

func (r readOnly) Hash(ctx context.Context, path string) (string, error) {
	return r.t.Hash(ctx, path)
}

// Write stores data as the value of path and links every ancestor down to
// path's parent. The children of path itself are left untouched.
func (t *Tree) Write(ctx context.Context, path string, data []byte) ([]byte, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}

	node, err := t.readNode(ctx, path)
	if err != nil {
		return nil, err
	}
	if node == nil {
		node = &Node{Key: path}
	}
	node.HasValue = true
	node.Value = append([]byte{}, data...)

	if err := t.writeNode(ctx, node); err != nil {
		return nil, err
	}
	if err := t.linkAncestors(ctx, path); err != nil {
		return nil, err
	}
	return data, nil
}

// Read returns the value at path. The boolean is false when the node is
// absent or carries no value.
func (t *Tree) Read(ctx context.Context, path string) ([]byte, bool, error) {
	if err := Validate(path); err != nil {
		return nil, false, err
	}
	node, err := t.readNode(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if node == nil || !node.HasValue {
		return nil, false, nil
	}
	return node.Value, true, nil
}

// Subkeys returns the immediate child segments of path in insertion order.
func (t *Tree) Subkeys(ctx context.Context, path string) ([]string, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}
	node, err := t.readNode(ctx, path)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return []string{}, nil
	}
	return append([]string{}, node.Children...), nil
}

// Has reports what is stored at path.
func (t *Tree) Has(ctx context.Context, path string) (ValueType, error) {
	if err := Validate(path); err != nil {
		return ValueTypeNone, err
	}
	node, err := t.readNode(ctx, path)
	if err != nil || node == nil {
		return ValueTypeNone, err
	}
	switch {
	case node.HasValue && len(node.Children) > 0:
		return ValueTypeValueWithSubtree, nil
	case node.HasValue:
		return ValueTypeValue, nil
	case len(node.Children) > 0:
		return ValueTypeSubtree, nil
	default:
		return ValueTypeNone, nil
	}
}

// Delete removes path and every descendant, then unlinks path from its
// parent, pruning ancestors left empty. Deleting an absent path is a no-op
// and deleting "/" discards the whole tree.
func (t *Tree) Delete(ctx context.Context, path string) error {
	if err := Validate(path); err != nil {
		return err
	}

	keys, err := t.collect(ctx, path)
	if err != nil {
		return err
	}
	// Deepest first, so a failure never leaves an unreachable subtree behind.
	for i := len(keys) - 1; i >= 0; i-- {
		if err := t.deleteNode(ctx, keys[i]); err != nil {
			return err
		}
	}
	return t.unlink(ctx, path)
}

// Copy duplicates the value and full subtree of from under to, replacing
// whatever was stored at to.
func (t *Tree) Copy(ctx context.Context, from, to string) error {
	if err := Validate(from); err != nil {
		return err
	}
	if err := Validate(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if IsWithin(to, from) || IsWithin(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrOverlappingPaths, from, to)
	}

	root, err := t.readNode(ctx, from)
	if err != nil {
		return err
	}
	if root == nil || root.Empty() {
		return fmt.Errorf("%w: %s", ErrNotFound, from)
	}

	if err := t.Delete(ctx, to); err != nil {
		return err
	}

	type pair struct{ src, dst string }
	stack := []pair{{from, to}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		src, err := t.readNode(ctx, p.src)
		if err != nil {
			return err
		}
		if src == nil {
			continue
		}
		dst := &Node{
			Key:      p.dst,
			HasValue: src.HasValue,
			Value:    src.Value,
			Children: src.Children,
		}
		if err := t.writeNode(ctx, dst); err != nil {
			return err
		}
		for _, child := range src.Children {
			stack = append(stack, pair{Join(p.src, child), Join(p.dst, child)})
		}
	}

	return t.linkAncestors(ctx, to)
}

// Move is Copy followed by Delete(from).
func (t *Tree) Move(ctx context.Context, from, to string) error {
	if from == to {
		return Validate(from)
	}
	if err := t.Copy(ctx, from, to); err != nil {
		return err
	}
	return t.Delete(ctx, from)
}

// collect returns path and all its descendants, parents before children.
func (t *Tree) collect(ctx context.Context, path string) ([]string, error) {
	var keys []string
	stack := []string{path}
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, err := t.readNode(ctx, key)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		keys = append(keys, key)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, Join(key, node.Children[i]))
		}
	}
	return keys, nil
}

// linkAncestors makes every ancestor of path list the next segment, walking
// upward and stopping at the first ancestor that already does.
func (t *Tree) linkAncestors(ctx context.Context, path string) error {
	for path != Root {
		parent, segment := Split(path)
		node, err := t.readNode(ctx, parent)
		if err != nil {
			return err
		}
		if node == nil {
			node = &Node{Key: parent}
		}
		if !node.addChild(segment) {
			return nil
		}
		if err := t.writeNode(ctx, node); err != nil {
			return err
		}
		path = parent
	}
	return nil
}

// unlink removes path from its parent and prunes ancestors that end up
// without value and children. The root is never pruned by unlinking.
func (t *Tree) unlink(ctx context.Context, path string) error {
	for path != Root {
		parent, segment := Split(path)
		node, err := t.readNode(ctx, parent)
		if err != nil {
			return err
		}
		if node == nil || !node.removeChild(segment) {
			return nil
		}
		if node.Empty() && parent != Root {
			if err := t.deleteNode(ctx, parent); err != nil {
				return err
			}
			path = parent
			continue
		}
		return t.writeNode(ctx, node)
	}
	return nil
}

func (t *Tree) readNode(ctx context.Context, key string) (*Node, error) {
	record, err := t.driver.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: get %s: %w", ErrIO, key, err)
	}
	return decodeNode(key, record)
}

func (t *Tree) writeNode(ctx context.Context, node *Node) error {
	record, err := encodeNode(node)
	if err != nil {
		return err
	}
	if err := t.driver.Put(ctx, node.Key, record); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrIO, node.Key, err)
	}
	return nil
}

func (t *Tree) deleteNode(ctx context.Context, key string) error {
	if err := t.driver.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrIO, key, err)
	}
	return nil
}
