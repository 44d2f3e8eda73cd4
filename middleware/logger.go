package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-ID"

// TraceHeaders are the W3C trace context headers Logger reads.
var TraceHeaders = propagation.TraceContext{}.Fields()

// Logger tags each request with an id (reusing the caller's X-Request-ID),
// picks up the caller's W3C traceparent and writes one access line when it
// finishes.
func Logger() gin.HandlerFunc {
	tc := propagation.TraceContext{}
	return func(c *gin.Context) {
		start := time.Now()

		ctx := tc.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestId", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		var traceID string
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			traceID = sc.TraceID().String()
		}

		log.Printf("%s %s %s status=%d latency=%s requestID=%s traceID=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
			requestID,
			traceID,
		)
	}
}
