package statecmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/cmd/sequencer/serverurl"
	"github.com/papercomputeco/sequencer/pkg/client"
)

const stateLongDesc string = `Inspect the durable state of a running sequencer.

Paths are slash delimited, e.g. /counter or /players/tz1/x_pos.
The root of the tree is "/".

Examples:
  sequencer state get /counter
  sequencer state subkeys /players
  sequencer state hash
  sequencer state tree --depth 2 /players
  sequencer state tree --report`

const stateShortDesc string = "Inspect durable state"

type stateCommander struct {
	url string
}

func NewStateCmd() *cobra.Command {
	cmder := &stateCommander{}

	cmd := &cobra.Command{
		Use:   "state",
		Short: stateShortDesc,
		Long:  stateLongDesc,
	}

	cmd.PersistentFlags().StringVarP(&cmder.url, "url", "u", "", "Sequencer URL (default $"+serverurl.EnvVar+" or "+client.DefaultURL+")")

	cmd.AddCommand(newGetCmd(cmder))
	cmd.AddCommand(newSubkeysCmd(cmder))
	cmd.AddCommand(newHashCmd(cmder))
	cmd.AddCommand(newTreeCmd(cmder))

	return cmd
}

func (c *stateCommander) client() *client.Client {
	return client.New(serverurl.Resolve(c.url))
}

// pathArg returns the first argument, or the root when there is none.
func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return args[0]
}
