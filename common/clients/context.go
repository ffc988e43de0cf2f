package clients

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for the inbound request id
	RequestIDKey contextKey = "request-id"
)

// RequestIDHeader carries the request id across services
const RequestIDHeader = "X-Request-ID"

// WithRequestID adds a request id to the context.
// Outbound requests made through HTTPClient forward it as X-Request-ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	return requestID, ok && requestID != ""
}
