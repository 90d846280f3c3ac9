package site

import (
	"crypto/subtle"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"summit/internal/logging"
	"summit/internal/observability"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// observeMiddleware tags each request with an id and records a span, a
// metric sample and a log line for it.
func observeMiddleware(tracer *observability.TracerProvider, metrics *observability.HTTPMetrics, logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := observability.ContextWithRequestID(c.Request.Context(), requestID)
		ctx, span := tracer.StartSpan(ctx, observability.SpanHTTPServer,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.target", c.Request.URL.Path),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		metrics.RecordRequest(c.Request.Method, route, status, latency)
		logging.FromContext(ctx, logger).Info(
			"route=%s method=%s status=%d latency_ms=%.2f bytes=%d",
			route,
			c.Request.Method,
			status,
			float64(latency.Microseconds())/1000.0,
			c.Writer.Size(),
		)
	}
}

// recoveryMiddleware turns panics into a 500 instead of a dropped connection.
func recoveryMiddleware(logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.FromContext(c.Request.Context(), logger).Error("Panic recovered: %v", recovered)
		if isAPIPath(c.Request.URL.Path) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, APIResponse{
				Success: false,
				Error:   "Internal server error",
			})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// bearerAuth guards the admin API with a shared token.
func bearerAuth(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), expected) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="summit"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{
				Success: false,
				Error:   "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// requireJSON rejects writes whose body is not JSON.
func requireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || mediaType != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, APIResponse{
					Success: false,
					Error:   "Content-Type must be application/json",
				})
				return
			}
		}
		c.Next()
	}
}
