package logkey

// Common keys for structured log attributes so grep stays consistent
// across handlers and stores.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"
	UserID  = "UserID"
	BookID  = "BookID"
	OrderID = "OrderID"
)
