package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-templater/internal/printer"
	"github.com/thereceipt/receipt-templater/internal/tui"
)

// ClearCompleted drops finished jobs on the server.
func (c *client) ClearCompleted() error {
	var resp apiResponse
	return c.do(http.MethodPost, "/jobs/clear", nil, &resp)
}

// wsURL maps the server's base URL to its WebSocket endpoint.
func (c *client) wsURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// Subscribe streams job status events until ctx is done or the
// connection drops, then closes the returned channel.
func (c *client) Subscribe(ctx context.Context) (<-chan printer.PrintJob, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return nil, err
	}

	updates := make(chan printer.PrintJob, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(updates)
		defer conn.Close()
		for {
			var msg struct {
				Event string           `json:"event"`
				Data  printer.PrintJob `json:"data"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				log.Debug().Err(err).Msg("Job subscription ended")
				return
			}
			if msg.Event != "job_status" {
				continue
			}
			select {
			case updates <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates, nil
}

func newMonitorCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch the server's print queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts.serverURL)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			updates, err := c.Subscribe(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Live updates unavailable, polling only")
				updates = nil
			}
			return tui.Run(tui.NewMonitor(c, updates, opts.serverURL))
		},
	}
}
