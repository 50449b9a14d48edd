package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type key string

// TraceIdKey is the gin context key under which the logger middleware
// stores the request trace id.
const TraceIdKey key = "1"

// GetTraceIdOfRequest returns the trace id set by the logger middleware,
// generating a fresh one if the middleware did not run.
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Value(string(TraceIdKey)).(string)
	if !ok {
		traceId = uuid.NewString()
	}
	return traceId
}
