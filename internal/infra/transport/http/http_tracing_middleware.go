package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/sweetshop/internal/infra/context"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware creates middleware that adds request tracing.
// It reuses the trace ID of the request context if present, otherwise it
// generates a new UUIDv7. The trace ID is sent in the X-Request-ID header
// and stored in the request context for the inner round trippers.
func TracingMiddleware(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		traceID, ok := context_.TraceIDFromContext(r.Context())
		if !ok {
			traceID = newTraceID()
		}

		r = r.Clone(context_.WithTraceID(r.Context(), traceID))
		r.Header.Set(TraceIDHeader, traceID)

		return next.RoundTrip(r)
	})
}

func newTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
