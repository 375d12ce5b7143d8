package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kbukum/evtsrc/bootstrap"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/resilience"
	"github.com/kbukum/evtsrc/server"
	"github.com/kbukum/evtsrc/server/endpoint"
	"github.com/kbukum/evtsrc/server/middleware"
	"github.com/kbukum/evtsrc/sse"
)

const streamPath = "/events"

func newServeCmd(load configLoader) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an event stream and accept emissions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			if err := cfg.Producer.Validate(); err != nil {
				return err
			}

			metrics, shutdownMetrics, err := setupMetrics(cmd.Context(), cfg.Metrics)
			if err != nil {
				return err
			}
			app.OnStop(shutdownMetrics)

			producer, err := sse.NewProducer(cfg.Producer,
				sse.WithLogger(app.Logger.WithComponent("sse")),
				sse.WithMetrics(metrics),
			)
			if err != nil {
				return err
			}

			srv := newStreamServer(cfg, producer, app.Components.HealthAll, app.Logger)

			// The producer is registered last so it stops first: readers get
			// the EOS marker before the server drains connections.
			if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
				return err
			}
			if err := app.RegisterComponent(sse.NewComponent(producer, streamPath)); err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

// newStreamServer builds the HTTP surface around producer: the stream on
// the root mux, control routes and default endpoints on gin.
func newStreamServer(cfg *AppConfig, producer *sse.Producer, health endpoint.HealthChecker, log *logger.Logger) *server.Server {
	srv := server.New(cfg.Server, log.WithComponent("server"))
	srv.ApplyMiddleware()

	stream := sse.NewHandler(producer, sse.WithHandlerLogger(log.WithComponent("sse-handler")))
	srv.Handle(streamPath, stream)
	srv.RegisterDefaultEndpoints(cfg.Name, health, func() endpoint.StreamStatus {
		return endpoint.StreamStatus{
			Path:        streamPath,
			Readers:     stream.Readers(),
			Subscribers: producer.Subscribers(),
			Waiting:     producer.Pending(),
			Closed:      producer.Closed(),
		}
	})

	limiter := resilience.NewRateLimiter(cfg.EmitLimit, nil)

	api := srv.GinEngine()
	api.POST("/emit", middleware.RateLimit(limiter), emitHandler(producer))
	api.POST("/close", closeHandler(producer))
	return srv
}

func emitHandler(b sse.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var chunk sse.Chunk
		if err := c.ShouldBindJSON(&chunk); err != nil {
			server.RespondWithError(c, errors.Validation("request body must be a JSON chunk").WithCause(err))
			return
		}
		if err := b.Emit(chunk); err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondAccepted(c, gin.H{"status": "emitted"})
	}
}

func closeHandler(p *sse.Producer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.Close(c.Request.Context()); err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondNoContent(c)
	}
}
