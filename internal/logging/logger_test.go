package logging

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"summit/internal/observability"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Debug(format string, args ...any) { r.add("DEBUG", format, args...) }
func (r *recordingLogger) Info(format string, args ...any)  { r.add("INFO", format, args...) }
func (r *recordingLogger) Warn(format string, args ...any)  { r.add("WARN", format, args...) }
func (r *recordingLogger) Error(format string, args ...any) { r.add("ERROR", format, args...) }

func (r *recordingLogger) add(level, format string, args ...any) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func TestOrNopHandlesTypedNilPointers(t *testing.T) {
	var rec *recordingLogger
	safe := OrNop(rec)
	assert.IsType(t, nopLogger{}, safe)
	safe.Info("hello %s", "world")
	assert.IsType(t, nopLogger{}, OrNop(nil))

	live := &recordingLogger{}
	assert.Same(t, live, OrNop(live))
}

func TestFromObservabilityFormatsMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	base := observability.NewLogger(observability.LogConfig{
		Level:  "info",
		Format: "text",
		Output: buf,
	})

	logger := FromObservabilityWithComponent(base, "Catalog")
	logger.Info("hello %s", "world")

	assert.Contains(t, buf.String(), "hello world")
	assert.Contains(t, buf.String(), "component=Catalog")
}

func TestFromContextTagsRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	base := observability.NewLogger(observability.LogConfig{Format: "text", Output: buf})
	ctx := observability.ContextWithRequestID(context.Background(), "abc123")

	FromContext(ctx, FromObservabilityWithComponent(base, "HTTP")).Warn("slow request")
	assert.Contains(t, buf.String(), "request_id=abc123")

	rec := &recordingLogger{}
	FromContext(ctx, rec).Error("failed %d", 1)
	assert.Equal(t, []string{"ERROR request_id=abc123 failed 1"}, rec.lines)

	rec = &recordingLogger{}
	FromContext(context.Background(), rec).Info("plain")
	assert.Equal(t, []string{"INFO plain"}, rec.lines)
}

func TestSetDefaultIgnoresNil(t *testing.T) {
	previous := Default()
	t.Cleanup(func() { SetDefault(previous) })

	buf := &bytes.Buffer{}
	SetDefault(observability.NewLogger(observability.LogConfig{Level: "debug", Format: "json", Output: buf}))
	SetDefault(nil)

	NewComponentLogger("Blob").Debug("stored %d bytes", 42)
	assert.Contains(t, buf.String(), `"msg":"stored 42 bytes"`)
	assert.Contains(t, buf.String(), `"component":"Blob"`)
}
