package browsecmder

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/cmd/sequencer/serverurl"
	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
	"github.com/papercomputeco/sequencer/pkg/client"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

const browseLongDesc string = `Browse the durable state of a running sequencer in the terminal.

Walk the tree with the arrow keys (or h/j/k/l), open a path with enter
and go back to its parent with backspace. The highlighted child's value
is previewed at the bottom. Press r to reload and q to quit.

Examples:
  sequencer browse
  sequencer browse /players
  sequencer browse --url http://10.0.0.5:8080`

const browseShortDesc string = "Browse state interactively"

type browseCommander struct {
	url string
}

func NewBrowseCmd() *cobra.Command {
	cmder := &browseCommander{}

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: browseShortDesc,
		Long:  browseLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := pathtree.Root
			if len(args) == 1 {
				root = args[0]
			}
			return cmder.run(cmd.Context(), cmd, root)
		},
	}

	serverurl.AddFlag(cmd, &cmder.url)

	return cmd
}

func (c *browseCommander) run(ctx context.Context, cmd *cobra.Command, root string) error {
	if err := pathtree.Validate(root); err != nil {
		return err
	}
	if !style.IsTerminal(cmd.OutOrStdout()) {
		return errors.New("browse needs an interactive terminal, use `sequencer state tree` instead")
	}

	cl := client.New(serverurl.Resolve(c.url))
	if err := cl.Health(ctx); err != nil {
		return fmt.Errorf("sequencer is not reachable: %w", err)
	}

	p := tea.NewProgram(newModel(ctx, cl, root),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
