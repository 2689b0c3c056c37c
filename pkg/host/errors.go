package host

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

var (
	ErrStoreNotANode          = errors.New("store: not a node")
	ErrStoreNotAValue         = errors.New("store: not a value")
	ErrStoreInvalidKey        = errors.New("store: invalid key")
	ErrStoreKeyTooLarge       = errors.New("store: key too large")
	ErrStoreInvalidAccess     = errors.New("store: invalid access")
	ErrStoreValueSizeExceeded = errors.New("store: value size exceeded")
	ErrGenericInvalidAccess   = errors.New("generic invalid access")

	// ErrRoundBudgetExhausted is returned by every host function once the
	// running round has used its tick budget or passed its deadline.
	ErrRoundBudgetExhausted = errors.New("round budget exhausted")
)

// translate maps path tree failures onto the kernel error taxonomy. The
// tree error stays in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pathtree.ErrInvalidPath):
		return fmt.Errorf("%w: %w", ErrStoreInvalidKey, err)
	case errors.Is(err, pathtree.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrStoreNotANode, err)
	case errors.Is(err, pathtree.ErrOverlappingPaths):
		return fmt.Errorf("%w: %w", ErrStoreInvalidAccess, err)
	default:
		return fmt.Errorf("%w: %w", ErrGenericInvalidAccess, err)
	}
}
