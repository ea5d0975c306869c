package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request and continues any incoming W3C
// trace context. /health and /metrics are not traced. Register it before the
// logging middleware so request logs carry the trace id.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			path := c.Request.URL.Path
			return path != "/health" && !strings.HasPrefix(path, "/metrics")
		}),
	)
}

// annotateSpan tags the request span with the tenant it was resolved to
func annotateSpan(c *gin.Context, namespace string) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("tenant_namespace", namespace),
		attribute.String("request_id", GetRequestID(c)),
	)
}
