package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// ErrTransportPanic is returned when an inner round tripper panics.
var ErrTransportPanic = errors.New("transport panic")

// RescueingMiddleware creates middleware that recovers from panics in the wrapped
// round tripper. It logs the panic and stack trace, then reports it as an error.
func RescueingMiddleware(next http.RoundTripper, log logging.Logger) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (resp *http.Response, err error) {
		defer func() {
			if p := recover(); p != nil {
				log.ErrorContext(r.Context(), "round trip panic", slog.Group("http",
					"url", r.URL.Redacted(),
					"method", r.Method,
				), slog.Group("error",
					"panic", p,
					"stack", string(debug.Stack()),
				))

				resp, err = nil, fmt.Errorf("%w: %v", ErrTransportPanic, p)
			}
		}()

		return next.RoundTrip(r)
	})
}
