package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kbukum/evtsrc/bootstrap"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/eventsource"
	"github.com/kbukum/evtsrc/sse"
)

func newListenCmd(load configLoader) *cobra.Command {
	var (
		url    string
		events []string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print events from a stream until its end-of-stream marker arrives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Consumer.URL = url
			}

			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			if err := cfg.Consumer.Validate(); err != nil {
				return err
			}

			metrics, shutdownMetrics, err := setupMetrics(cmd.Context(), cfg.Metrics)
			if err != nil {
				return err
			}
			app.OnStop(shutdownMetrics)

			printEvent := eventPrinter(cmd.OutOrStdout())
			opts := []eventsource.Option{
				eventsource.WithLogger(app.Logger.WithComponent("eventsource")),
				eventsource.WithMetrics(metrics),
				eventsource.WithListener(sse.EventMessage, printEvent),
			}
			for _, name := range events {
				opts = append(opts, eventsource.WithListener(name, printEvent))
			}

			consumer := eventsource.NewComponent(cfg.Consumer, opts...)
			if err := app.RegisterComponent(consumer); err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				return awaitEnd(ctx, consumer.Client())
			})
		},
	}
	cmd.Flags().StringVarP(&url, "url", "u", "", "stream URL (overrides consumer.url)")
	cmd.Flags().StringSliceVarP(&events, "event", "e", nil, "additional event names to print")
	return cmd
}

// eventPrinter writes one "name: data" line per record.
func eventPrinter(w io.Writer) func(sse.Event) {
	var mu sync.Mutex
	return func(ev sse.Event) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s: %s\n", ev.Name(), ev.Data)
	}
}

// awaitEnd blocks until the client is closed. A graceful close after the
// end-of-stream marker and a cancelled ctx both count as success.
func awaitEnd[T any](ctx context.Context, c *eventsource.Client[T]) error {
	for {
		_, err := c.ConnectionChangePromise().Await(ctx)
		switch {
		case err == nil:
			continue
		case errors.IsConnectionClosed(err), ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}
