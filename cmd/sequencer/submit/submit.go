package submitcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/api"
	"github.com/papercomputeco/sequencer/cmd/sequencer/serverurl"
	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
	"github.com/papercomputeco/sequencer/pkg/client"
)

const submitLongDesc string = `Submit operations to a running sequencer.

Each argument is one operation in hex, with or without a 0x prefix.
Operations are sent in order and the command stops at the first one
the sequencer refuses.

Examples:
  sequencer submit 88
  sequencer submit 0x8801 0x8802
  sequencer submit --url http://10.0.0.5:8080 88`

const submitShortDesc string = "Submit hex encoded operations"

type submitCommander struct {
	url string
}

func NewSubmitCmd() *cobra.Command {
	cmder := &submitCommander{}

	cmd := &cobra.Command{
		Use:   "submit <hex-operation>...",
		Short: submitShortDesc,
		Long:  submitLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	serverurl.AddFlag(cmd, &cmder.url)

	return cmd
}

func (c *submitCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	ops := make([][]byte, len(args))
	for i, arg := range args {
		op, err := api.DecodeOperation(arg)
		if err != nil {
			return fmt.Errorf("operation %d (%q) is not valid hex: %w", i+1, arg, err)
		}
		ops[i] = op
	}

	cl := client.New(serverurl.Resolve(c.url))
	out := cmd.OutOrStdout()
	for i, op := range ops {
		if err := cl.Submit(ctx, op); err != nil {
			return fmt.Errorf("operation %d was not accepted: %w", i+1, err)
		}
		fmt.Fprintf(out, "%s %x\n", style.Render(out, style.Dim, "submitted"), op)
	}

	fmt.Fprintf(out, "Submitted %d operation(s)\n", len(ops))
	return nil
}
