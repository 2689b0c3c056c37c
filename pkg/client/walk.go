package client

import (
	"context"
	"errors"

	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

// Entry is one path visited by Walk.
type Entry struct {
	Path     string
	Depth    int
	Value    []byte
	HasValue bool
	Subkeys  []string
}

// Walk visits root and its descendants depth first, children in insertion
// order, down to maxDepth levels below root (negative for no limit).
func (c *Client) Walk(ctx context.Context, root string, maxDepth int, fn func(Entry) error) error {
	type item struct {
		path  string
		depth int
	}
	stack := []item{{root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e := Entry{Path: it.path, Depth: it.depth}
		value, err := c.GetState(ctx, it.path)
		switch {
		case err == nil:
			e.Value, e.HasValue = value, true
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if maxDepth < 0 || it.depth < maxDepth {
			if e.Subkeys, err = c.GetSubkeys(ctx, it.path); err != nil {
				return err
			}
		}
		if err := fn(e); err != nil {
			return err
		}

		for i := len(e.Subkeys) - 1; i >= 0; i-- {
			stack = append(stack, item{pathtree.Join(it.path, e.Subkeys[i]), it.depth + 1})
		}
	}
	return nil
}
