package statecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
)

func newHashCmd(parent *stateCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "hash [path]",
		Short: "Print the merkle hash of a subtree",
		Long: `Print the merkle hash of a subtree, the whole tree by default.

Two sequencers that applied the same operations report the same hash.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return parent.runHash(cmd.Context(), cmd, pathArg(args))
		},
	}
}

func (c *stateCommander) runHash(ctx context.Context, cmd *cobra.Command, path string) error {
	hash, err := c.client().StateHash(ctx, path)
	if err != nil {
		return fmt.Errorf("could not hash %s: %w", path, err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, style.Render(out, style.Hash, hash))
	return nil
}
