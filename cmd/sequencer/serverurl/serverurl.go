// Package serverurl resolves which sequencer the client commands talk to.
package serverurl

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sequencer/pkg/client"
)

// EnvVar overrides the default sequencer URL.
const EnvVar = "SEQUENCER_URL"

// Resolve returns flagValue when set, then $SEQUENCER_URL, then client.DefaultURL.
func Resolve(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvVar)); v != "" {
		return v
	}
	return client.DefaultURL
}

// AddFlag registers the --url flag on cmd.
func AddFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "url", "u", "", "Sequencer URL (default $"+EnvVar+" or "+client.DefaultURL+")")
}
