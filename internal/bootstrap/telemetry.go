package bootstrap

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"summit/internal/config"
	"summit/internal/logging"
	"summit/internal/observability"
)

// ConfigureLogging installs the structured logger described by cfg as the
// process default and returns it.
func ConfigureLogging(cfg config.LogConfig, out io.Writer) *observability.Logger {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: out,
	})
	logging.SetDefault(logger)
	return logger
}

// Telemetry holds the metric registry and tracer shared by the backend and
// the HTTP server.
type Telemetry struct {
	Registry    *prometheus.Registry
	Backend     observability.BackendObserver
	HTTPMetrics *observability.HTTPMetrics
	Tracer      *observability.TracerProvider
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(logger logging.Logger) {
	if t == nil || t.Tracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.Tracer.Shutdown(ctx); err != nil {
		logging.OrNop(logger).Warn("Tracer shutdown error: %v", err)
	}
}

// InitTelemetry builds metrics and tracing. Both are optional: a failure is
// recorded in degraded and the concern falls back to a no-op.
func InitTelemetry(cfg config.Config, degraded *DegradedComponents, logger logging.Logger) *Telemetry {
	t := &Telemetry{Backend: observability.NopObserver()}
	stages := []Stage{
		{
			Name: "metrics",
			Init: func() error {
				if !cfg.Metrics.Enabled {
					return nil
				}
				reg := prometheus.NewRegistry()
				if err := reg.Register(collectors.NewGoCollector()); err != nil {
					return err
				}
				if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
					return err
				}
				observer, err := observability.NewPrometheusObserver("summit_backend", reg)
				if err != nil {
					return err
				}
				httpMetrics, err := observability.NewHTTPMetrics("summit_http", reg)
				if err != nil {
					return err
				}
				t.Registry, t.Backend, t.HTTPMetrics = reg, observer, httpMetrics
				return nil
			},
		},
		{
			Name: "tracing",
			Init: func() error {
				tracer, err := observability.NewTracerProvider(cfg.Tracing)
				if err != nil {
					return err
				}
				t.Tracer = tracer
				return nil
			},
		},
	}
	// Optional stages never return an error.
	_ = RunStages(stages, degraded, logger)
	return t
}
