package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "summit"

// TracingConfig controls span export for backend calls.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter       string  `yaml:"exporter" mapstructure:"exporter"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	ZipkinEndpoint string  `yaml:"zipkin_endpoint" mapstructure:"zipkin_endpoint"`
	SampleRate     float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	ServiceName    string  `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string  `yaml:"service_version" mapstructure:"service_version"`
}

// TracerProvider owns the SDK provider when tracing is enabled. The zero
// value and a nil pointer both hand out no-op spans.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracerProvider installs the configured exporter ("otlp" over HTTP or
// "zipkin") behind the global provider.
func NewTracerProvider(config TracingConfig) (*TracerProvider, error) {
	if !config.Enabled {
		return &TracerProvider{}, nil
	}
	ctx := context.Background()
	exporter, err := newSpanExporter(ctx, config)
	if err != nil {
		return nil, err
	}
	service := config.ServiceName
	if service == "" {
		service = instrumentationName
	}
	ratio := config.SampleRate
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(service),
		semconv.ServiceVersion(config.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(provider)
	return NewTracerProviderFrom(provider), nil
}

func newSpanExporter(ctx context.Context, config TracingConfig) (sdktrace.SpanExporter, error) {
	switch config.Exporter {
	case "", "otlp":
		endpoint := config.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4318"
		}
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		return exporter, nil
	case "zipkin":
		endpoint := config.ZipkinEndpoint
		if endpoint == "" {
			endpoint = "http://localhost:9411/api/v2/spans"
		}
		exporter, err := zipkin.New(endpoint)
		if err != nil {
			return nil, fmt.Errorf("zipkin exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", config.Exporter)
	}
}

// NewTracerProviderFrom wraps an SDK provider built elsewhere, such as a
// recording provider in tests.
func NewTracerProviderFrom(provider *sdktrace.TracerProvider) *TracerProvider {
	return &TracerProvider{provider: provider, tracer: provider.Tracer(instrumentationName)}
}

// Shutdown flushes pending spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

func (tp *TracerProvider) tracerOrNoop() trace.Tracer {
	if tp == nil || tp.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return tp.tracer
}

// StartSpan opens a span and tags it with the request id from ctx.
func (tp *TracerProvider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, id))
	}
	return tp.tracerOrNoop().Start(ctx, name, trace.WithAttributes(attrs...))
}

const (
	SpanBackendSelect = "summit.backend.select"
	SpanBackendInsert = "summit.backend.insert"
	SpanBackendUpdate = "summit.backend.update"
	SpanBackendDelete = "summit.backend.delete"
	SpanBackendUpload = "summit.backend.upload"
)

const (
	AttrRequestID = "summit.request_id"
	AttrTable     = "summit.backend.table"
	AttrBucket    = "summit.backend.bucket"
	AttrRowID     = "summit.backend.row_id"
	AttrKey       = "summit.backend.key"
	AttrRowCount  = "summit.backend.row_count"
)

// TableAttrs describes a row operation. rowID may be empty.
func TableAttrs(table, rowID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrTable, table)}
	if rowID != "" {
		attrs = append(attrs, attribute.String(AttrRowID, rowID))
	}
	return attrs
}

// StorageAttrs describes an object upload.
func StorageAttrs(bucket, key string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(AttrBucket, bucket), attribute.String(AttrKey, key)}
}
