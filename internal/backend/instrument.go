package backend

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"summit/internal/observability"
)

type instrumented struct {
	next     Client
	observer observability.BackendObserver
	tracer   *observability.TracerProvider
}

// Instrument decorates client with per-call metrics and spans. Nil observer
// or tracer disable the corresponding concern.
func Instrument(client Client, observer observability.BackendObserver, tracer *observability.TracerProvider) Client {
	if observer == nil {
		observer = observability.NopObserver()
	}
	return &instrumented{next: client, observer: observer, tracer: tracer}
}

func (c *instrumented) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanBackendSelect, observability.TableAttrs(table, "")...)
	defer span.End()
	started := time.Now()
	rows, err := c.next.Select(ctx, table, q)
	c.finish(span, OpSelect, table, started, err)
	span.SetAttributes(attribute.Int(observability.AttrRowCount, len(rows)))
	return rows, err
}

func (c *instrumented) Insert(ctx context.Context, table string, rows ...Row) error {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanBackendInsert, observability.TableAttrs(table, "")...)
	defer span.End()
	span.SetAttributes(attribute.Int(observability.AttrRowCount, len(rows)))
	started := time.Now()
	err := c.next.Insert(ctx, table, rows...)
	c.finish(span, OpInsert, table, started, err)
	return err
}

func (c *instrumented) Update(ctx context.Context, table string, patch Row, id string) error {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanBackendUpdate, observability.TableAttrs(table, id)...)
	defer span.End()
	started := time.Now()
	err := c.next.Update(ctx, table, patch, id)
	c.finish(span, OpUpdate, table, started, err)
	return err
}

func (c *instrumented) Delete(ctx context.Context, table string, id string) error {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanBackendDelete, observability.TableAttrs(table, id)...)
	defer span.End()
	started := time.Now()
	err := c.next.Delete(ctx, table, id)
	c.finish(span, OpDelete, table, started, err)
	return err
}

func (c *instrumented) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanBackendUpload, observability.StorageAttrs(bucket, key)...)
	defer span.End()
	counter := &countingReader{r: body}
	var forwarded io.Reader = counter
	if body == nil {
		forwarded = nil
	}
	started := time.Now()
	err := c.next.Upload(ctx, bucket, key, forwarded, contentType)
	c.finish(span, OpUpload, bucket, started, err)
	if err == nil {
		c.observer.RecordUpload(bucket, counter.n)
	}
	return err
}

func (c *instrumented) PublicURL(bucket, key string) string {
	return c.next.PublicURL(bucket, key)
}

func (c *instrumented) finish(span trace.Span, op, target string, started time.Time, err error) {
	c.observer.RecordOperation(op, target, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Message(err))
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.r == nil {
		return 0, io.EOF
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
