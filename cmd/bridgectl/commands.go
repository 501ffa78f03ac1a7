package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// call runs one request and prints the response body.
func call(api *client, method, path string, body any) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		data, err := api.do(cmd.Context(), method, path, body)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	}
}

func parseIndexes(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", a)
		}
		out[i] = n
	}
	return out, nil
}

func newServersCmd(api *client) *cobra.Command {
	const base = apiRoot + "/servers"

	cmd := &cobra.Command{
		Use:   "servers",
		Short: "List and edit the server list",
		RunE:  call(api, http.MethodGet, base, nil),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "connect <address>",
			Short: "Connect to a server, listed or not",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return call(api, http.MethodPost, base+"/connect", map[string]string{"address": args[0]})(c, args)
			},
		},
		&cobra.Command{
			Use:   "add <name> <address>",
			Short: "Append a server",
			Args:  cobra.ExactArgs(2),
			RunE: func(c *cobra.Command, args []string) error {
				return call(api, http.MethodPut, base+"/add", map[string]string{"name": args[0], "address": args[1]})(c, args)
			},
		},
		&cobra.Command{
			Use:   "remove <index>",
			Short: "Remove the server at index",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				idx, err := parseIndexes(args)
				if err != nil {
					return err
				}
				return call(api, http.MethodDelete, base+"/remove", map[string]int{"index": idx[0]})(c, args)
			},
		},
		&cobra.Command{
			Use:   "edit <index> <name> <address>",
			Short: "Rename or re-address the server at index",
			Args:  cobra.ExactArgs(3),
			RunE: func(c *cobra.Command, args []string) error {
				idx, err := parseIndexes(args[:1])
				if err != nil {
					return err
				}
				body := map[string]any{"index": idx[0], "name": args[1], "address": args[2]}
				return call(api, http.MethodPut, base+"/edit", body)(c, args)
			},
		},
		&cobra.Command{
			Use:   "swap <from> <to>",
			Short: "Swap two servers",
			Args:  cobra.ExactArgs(2),
			RunE: func(c *cobra.Command, args []string) error {
				idx, err := parseIndexes(args)
				if err != nil {
					return err
				}
				return call(api, http.MethodPost, base+"/swap", map[string]int{"from": idx[0], "to": idx[1]})(c, args)
			},
		},
		&cobra.Command{
			Use:   "order <index>...",
			Short: "Reorder the list; the arguments are the old indexes in their new order",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				idx, err := parseIndexes(args)
				if err != nil {
					return err
				}
				return call(api, http.MethodPost, base+"/order", map[string][]int{"order": idx})(c, args)
			},
		},
	)
	return cmd
}

func newThemeCmd(api *client) *cobra.Command {
	const base = apiRoot + "/theme"

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the active theme and every installed one",
		RunE:  call(api, http.MethodGet, base, nil),
	}

	var static bool
	routeCmd := &cobra.Command{
		Use:   "route [screen]",
		Short: "Resolve the URL a screen loads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			q := url.Values{}
			if len(args) == 1 {
				q.Set("screen", args[0])
			}
			path := base + "/route"
			if enc := q.Encode(); enc != "" {
				path += "?" + enc
			}
			if static {
				if len(q) == 0 {
					path += "?static"
				} else {
					path += "&static"
				}
			}
			return call(api, http.MethodGet, path, nil)(c, args)
		},
	}
	routeCmd.Flags().BoolVar(&static, "static", false, "mark the URL static")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <name>",
			Short: "Activate a theme",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return call(api, http.MethodPut, base+"/set", map[string]string{"name": args[0]})(c, args)
			},
		},
		&cobra.Command{
			Use:   "unset",
			Short: "Return to the default theme",
			Args:  cobra.NoArgs,
			RunE:  call(api, http.MethodPut, base+"/unset", nil),
		},
		routeCmd,
	)
	return cmd
}

func newComponentsCmd(api *client) *cobra.Command {
	const base = apiRoot + "/components"

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List overlay components",
		RunE:  call(api, http.MethodGet, base, nil),
	}

	var name string
	addCmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Add a component (text, frame, image, html)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return call(api, http.MethodPut, base+"/add", map[string]string{"type": args[0], "name": name})(c, args)
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "component name; generated when empty")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "settings",
			Short: "Show component settings in their generic form",
			Args:  cobra.NoArgs,
			RunE:  call(api, http.MethodGet, base+"/settings", nil),
		},
		addCmd,
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a component",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return call(api, http.MethodDelete, base+"/remove", map[string]string{"name": args[0]})(c, args)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every component",
			Args:  cobra.NoArgs,
			RunE:  call(api, http.MethodPost, base+"/clear", nil),
		},
	)
	return cmd
}

func newIntegrationCmd(api *client) *cobra.Command {
	const base = apiRoot + "/integration"

	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Show the screen menu",
		RunE:  call(api, http.MethodGet, base, nil),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "reset",
			Short: "Reload the integration page",
			Args:  cobra.NoArgs,
			RunE:  call(api, http.MethodPost, base+"/reset", nil),
		},
		&cobra.Command{
			Use:   "override <url>",
			Short: "Point the integration page at another URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return call(api, http.MethodPost, base+"/override", map[string]string{"url": args[0]})(c, args)
			},
		},
	)
	return cmd
}

func newHealthCmd(api *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check readiness and print the version",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := call(api, http.MethodGet, "/health/ready", nil)(c, args); err != nil {
				return err
			}
			return call(api, http.MethodGet, "/version", nil)(c, args)
		},
	}
}
