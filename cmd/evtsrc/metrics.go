package main

import (
	"context"

	"github.com/kbukum/evtsrc/observability"
)

const meterName = "github.com/kbukum/evtsrc"

// setupMetrics returns stream instruments and a shutdown func. When export
// is disabled the instruments record on the global no-op provider.
func setupMetrics(ctx context.Context, cfg observability.MeterConfig) (*observability.StreamMetrics, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		m, err := observability.NewStreamMetrics(observability.Meter(meterName))
		return m, noop, err
	}

	mp, err := observability.InitMeter(ctx, &cfg)
	if err != nil {
		return nil, noop, err
	}
	m, err := observability.NewStreamMetrics(mp.Meter(meterName))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}
	return m, mp.Shutdown, nil
}
