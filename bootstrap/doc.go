// Package bootstrap orchestrates the lifecycle of an evtsrc process.
//
// An App owns the typed configuration, the logger and a component registry.
// Run starts every registered component, runs the start and ready hooks,
// blocks until SIGINT/SIGTERM and then shuts everything down in reverse
// order. RunTask does the same around a finite task.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(sse.NewComponent(producer, "/events"))
//	return app.Run(ctx)
package bootstrap
