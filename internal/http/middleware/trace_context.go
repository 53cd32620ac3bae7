package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/magix-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
	// Cloud Run / Google front end: TRACE_ID/SPAN_ID;o=OPTIONS
	headerCloudTrace = "X-Cloud-Trace-Context"

	maxInboundIDLen = 128
)

// AttachTraceContext assigns request and trace ids, echoes them on the response
// and stores them in the request context for logging.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := inboundID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := resolveTraceID(c)
		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// resolveTraceID prefers an active span, then the caller's headers, then a fresh id.
func resolveTraceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id := inboundID(c.GetHeader(headerTraceID)); id != "" {
		return id
	}
	if id := cloudTraceID(c.GetHeader(headerCloudTrace)); id != "" {
		return id
	}
	return uuid.New().String()
}

func cloudTraceID(h string) string {
	h = strings.TrimSpace(h)
	if i := strings.IndexAny(h, "/;"); i >= 0 {
		h = h[:i]
	}
	return inboundID(h)
}

// inboundID drops caller-supplied ids that are too long or not printable ASCII,
// since they are echoed into headers and logs.
func inboundID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxInboundIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return ""
		}
	}
	return v
}
