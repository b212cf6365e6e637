package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request through otelgin, tags it with the
// request id and the student, voucher, class or staff path parameters, and
// marks 5xx responses as errors
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlersChain {
	return gin.HandlersChain{otelgin.Middleware(serviceName, opts...), enrichSpan}
}

func enrichSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}
	span.SetAttributes(spanAttributes(c)...)
	c.Next()
	if status := c.Writer.Status(); status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

var pathAttributes = map[string]string{
	"studentId":     "student.id",
	"voucherNumber": "voucher.number",
	"classId":       "class.id",
	"staffId":       "staff.id",
}

func spanAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := GetRequestID(c); id != "" {
		attrs = append(attrs, attribute.String("request_id", id))
	}
	for _, p := range c.Params {
		if key, ok := pathAttributes[p.Key]; ok {
			attrs = append(attrs, attribute.String(key, p.Value))
		}
	}
	return attrs
}
