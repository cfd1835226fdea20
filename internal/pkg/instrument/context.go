package instrument

import "context"

type contextKey int

const correlationIDKey contextKey = iota

// SetCorrelationID stores a correlation id in the context for log enrichment.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// GetCorrelationID returns the correlation id stored in the context, or "".
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}
