package main

import (
	"os"

	"github.com/spf13/cobra"

	browsecmder "github.com/papercomputeco/sequencer/cmd/sequencer/browse"
	mcpcmder "github.com/papercomputeco/sequencer/cmd/sequencer/mcp"
	servecmder "github.com/papercomputeco/sequencer/cmd/sequencer/serve"
	statecmder "github.com/papercomputeco/sequencer/cmd/sequencer/state"
	submitcmder "github.com/papercomputeco/sequencer/cmd/sequencer/submit"
	versioncmder "github.com/papercomputeco/sequencer/cmd/sequencer/version"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const rootLongDesc string = `A local sequencer for developing rollup kernels.

It orders submitted operations into batches, runs the kernel on each of
them right away against a durable path tree, and closes a batch on every
chain head. Values written by the kernel are readable over HTTP as soon
as the operation is applied.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sequencer",
		Short:        "Local rollup sequencer and state emulator",
		Long:         rootLongDesc,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(submitcmder.NewSubmitCmd())
	cmd.AddCommand(statecmder.NewStateCmd())
	cmd.AddCommand(browsecmder.NewBrowseCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd(version))
	cmd.AddCommand(versioncmder.NewVersionCmd(version))

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
