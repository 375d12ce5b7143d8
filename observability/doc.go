// Package observability wires evtsrc into OpenTelemetry metrics.
//
// InitMeter installs a global OTLP/HTTP meter provider; StreamMetrics holds
// the counters recorded by producers and consumers. A nil *StreamMetrics is
// valid and records nothing, so metrics stay optional for library users.
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("evtsrc"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("evtsrc"))
//	producer, err := sse.NewProducer(cfg, sse.WithMetrics(metrics))
package observability
