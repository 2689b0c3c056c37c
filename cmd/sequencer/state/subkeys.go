package statecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
)

func newSubkeysCmd(parent *stateCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "subkeys [path]",
		Short: "List the children of a path in insertion order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return parent.runSubkeys(cmd.Context(), cmd, pathArg(args))
		},
	}
}

func (c *stateCommander) runSubkeys(ctx context.Context, cmd *cobra.Command, path string) error {
	keys, err := c.client().GetSubkeys(ctx, path)
	if err != nil {
		return fmt.Errorf("could not list %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	for _, key := range keys {
		fmt.Fprintln(out, style.Render(out, style.Path, key))
	}
	return nil
}
