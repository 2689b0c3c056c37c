package statecmder

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/pkg/client"
)

type getCommander struct {
	*stateCommander
	text bool
}

func newGetCmd(parent *stateCommander) *cobra.Command {
	cmder := &getCommander{stateCommander: parent}

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value stored at a path as hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().BoolVarP(&cmder.text, "text", "t", false, "Print the raw value instead of hex")

	return cmd
}

func (c *getCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	value, err := c.client().GetState(ctx, path)
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("no value at %s", path)
	}
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}

	if c.text {
		_, err = cmd.OutOrStdout().Write(value)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(value))
	return nil
}
