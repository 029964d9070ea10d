package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// LoggingMiddleware creates middleware that logs HTTP request and response details.
// It logs requests at DEBUG level and responses at a level determined by the status code:
// - 5xx: ERROR
// - 4xx: WARN
// - Other: INFO.
// Transport failures are logged at ERROR.
func LoggingMiddleware(next http.RoundTripper, log logging.Logger) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		ctx := r.Context()

		log.DebugContext(ctx, "request", slog.Group("http",
			"url", r.URL.Redacted(),
			"method", r.Method,
		))

		start := time.Now()

		resp, err := next.RoundTrip(r)
		if err != nil {
			log.ErrorContext(ctx, "request failed", slog.Group("http",
				"url", r.URL.Redacted(),
				"method", r.Method,
				"duration", time.Since(start),
			), "error", err)

			return nil, err
		}

		var level logging.Level

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			level = logging.LevelError
		case resp.StatusCode >= http.StatusBadRequest:
			level = logging.LevelWarn
		default:
			level = logging.LevelInfo
		}

		log.Log(ctx, level, "response", slog.Group("http",
			"url", r.URL.Redacted(),
			"method", r.Method,
			"status", resp.StatusCode,
			"content_length", resp.ContentLength,
			"duration", time.Since(start),
		))

		return resp, nil
	})
}
