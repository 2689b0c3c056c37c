package mcpcmder

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/cmd/sequencer/serverurl"
	"github.com/papercomputeco/sequencer/pkg/client"
	"github.com/papercomputeco/sequencer/pkg/logger"
)

const mcpLongDesc string = `Serve the sequencer to MCP clients over stdio.

Exposes tools to read state, list subkeys, hash subtrees, submit
operations and report node status, all backed by the HTTP API of a
running sequencer. Logs go to stderr because stdout carries the protocol.

Example client configuration:
  {"command": "sequencer", "args": ["mcp", "--url", "http://localhost:8080"]}`

const mcpShortDesc string = "Serve sequencer tools over MCP stdio"

type mcpCommander struct {
	url     string
	debug   bool
	version string
}

func NewMCPCmd(version string) *cobra.Command {
	cmder := &mcpCommander{version: version}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	serverurl.AddFlag(cmd, &cmder.url)
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
	log := logger.NewLogger(c.debug, logger.WithOutput(os.Stderr), logger.WithColor(false))
	defer log.Sync()

	url := serverurl.Resolve(c.url)
	log.Info("serving MCP over stdio", zap.String("sequencer", url))

	server := newServer(client.New(url), c.version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
