package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd(api *client) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			target, err := api.eventsURL(only)
			if err != nil {
				return err
			}

			conn, resp, err := websocket.DefaultDialer.DialContext(c.Context(), target, http.Header{})
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", target, err)
			}
			defer func() { _ = conn.Close() }()

			go func() {
				<-c.Context().Done()
				_ = conn.Close()
			}()

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					if c.Context().Err() != nil ||
						websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return fmt.Errorf("event stream closed: %w", err)
				}
				if err := printJSON(c.OutOrStdout(), data); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringSliceVar(&only, "event", nil, "subscribe to these event names only")
	return cmd
}
