package main

import (
	"context"
	"time"

	"github.com/jingkaihe/mgrep-hook/pkg/config"
	"github.com/jingkaihe/mgrep-hook/pkg/logger"
	"github.com/jingkaihe/mgrep-hook/pkg/telemetry"
	"github.com/jingkaihe/mgrep-hook/pkg/version"
)

const tracingShutdownTimeout = 3 * time.Second

// initTracing starts the OTLP exporter when enabled. Failures are logged and
// never stop the hook. The returned func flushes spans.
func initTracing(ctx context.Context, cfg config.Config) func() {
	shutdown, err := telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: version.Get().Version,
		SamplerType:    cfg.Tracing.Sampler,
		SamplerRatio:   cfg.Tracing.Ratio,
	})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
		return func() {}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to flush traces")
		}
	}
}
