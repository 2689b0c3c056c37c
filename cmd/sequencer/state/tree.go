package statecmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
	"github.com/papercomputeco/sequencer/pkg/client"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

const treeLongDesc string = `Print a subtree with its values.

Values are shown as hex, followed by their text when they are printable.
With --report the subtree is written as a markdown report that also
carries the node status and the subtree hash. The report is rendered for
the terminal unless --markdown asks for the raw document.`

type treeCommander struct {
	*stateCommander
	depth    int
	report   bool
	markdown bool
	width    int
}

func newTreeCmd(parent *stateCommander) *cobra.Command {
	cmder := &treeCommander{stateCommander: parent}

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print a subtree with its values",
		Long:  treeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, pathArg(args))
		},
	}

	cmd.Flags().IntVarP(&cmder.depth, "depth", "d", -1, "Levels below the path to descend, -1 for all")
	cmd.Flags().BoolVarP(&cmder.report, "report", "r", false, "Write a markdown report")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "With --report, print the markdown without rendering it")
	cmd.Flags().IntVar(&cmder.width, "width", 100, "With --report, wrap the rendered report at this width")

	return cmd
}

func (c *treeCommander) run(ctx context.Context, cmd *cobra.Command, root string) error {
	if err := pathtree.Validate(root); err != nil {
		return err
	}
	cl := c.client()

	var entries []client.Entry
	err := cl.Walk(ctx, root, c.depth, func(e client.Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not walk %s: %w", root, err)
	}

	out := cmd.OutOrStdout()
	if !c.report {
		printTree(out, entries)
		return nil
	}

	doc, err := c.buildReport(ctx, cl, root, entries)
	if err != nil {
		return err
	}
	if c.markdown {
		_, err = io.WriteString(out, doc)
		return err
	}
	rendered, err := renderMarkdown(doc, c.width, style.IsTerminal(out))
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func printTree(out io.Writer, entries []client.Entry) {
	for _, e := range entries {
		name := e.Path
		if e.Depth > 0 {
			_, name = pathtree.Split(e.Path)
		}
		line := strings.Repeat("  ", e.Depth) + style.Render(out, style.Path, name)
		if e.HasValue {
			line += " = " + style.Render(out, style.Value, style.FormatValue(e.Value))
		}
		fmt.Fprintln(out, line)
	}
}

func (c *treeCommander) buildReport(ctx context.Context, cl *client.Client, root string, entries []client.Entry) (string, error) {
	status, err := cl.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("could not read node status: %w", err)
	}
	hash, err := cl.StateHash(ctx, root)
	if err != nil {
		return "", fmt.Errorf("could not hash %s: %w", root, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# State report for `%s`\n\n", root)
	fmt.Fprintf(&b, "Subtree hash `%s`\n\n", hash)
	fmt.Fprintf(&b, "Kernel `%s` at level %d with %d operation(s) applied and %d kernel error(s).\n\n",
		status.Kernel, status.Level, status.Operations, status.KernelErrors)

	b.WriteString("## Paths\n\n")
	values := 0
	for _, e := range entries {
		fmt.Fprintf(&b, "%s- `%s`", strings.Repeat("  ", e.Depth), e.Path)
		if e.HasValue {
			values++
			fmt.Fprintf(&b, " = `%s`", style.FormatValue(e.Value))
		}
		if n := len(e.Subkeys); n > 0 {
			fmt.Fprintf(&b, " (%d subkeys)", n)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d path(s), %d value(s).\n", len(entries), values)
	return b.String(), nil
}

func renderMarkdown(doc string, width int, tty bool) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if tty {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"), glamour.WithColorProfile(termenv.Ascii))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("could not create markdown renderer: %w", err)
	}
	rendered, err := r.Render(doc)
	if err != nil {
		return "", fmt.Errorf("could not render report: %w", err)
	}
	return rendered, nil
}
