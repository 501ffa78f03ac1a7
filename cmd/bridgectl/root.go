package main

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	defaultURL = "http://127.0.0.1:15000"
	apiRoot    = "/api/v1/client"
	eventsPath = "/api/v1/events"
)

// newRootCmd builds the command tree. Every subcommand shares one client.
func newRootCmd() *cobra.Command {
	var baseURL string
	api := &client{}

	root := &cobra.Command{
		Use:   "bridgectl",
		Short: "Inspect and drive a running theme bridge",
		Long: `bridgectl talks to the bridge's loopback HTTP API: it lists and edits the
server list, switches themes, manages overlay components and follows live events.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			*api = *newClient(baseURL)
		},
	}

	url := defaultURL
	if env := os.Getenv("BRIDGE_URL"); env != "" {
		url = env
	}
	root.PersistentFlags().StringVar(&baseURL, "url", url, "bridge base URL (env BRIDGE_URL)")

	root.AddCommand(
		newServersCmd(api),
		newThemeCmd(api),
		newComponentsCmd(api),
		newIntegrationCmd(api),
		newHealthCmd(api),
		newWatchCmd(api),
	)
	return root
}
