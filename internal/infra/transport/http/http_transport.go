package http

import (
	"net/http"
	"time"

	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for outbound HTTP clients.
type HTTPTransportConfig struct {
	// Timeout is the overall request timeout in seconds; 0 disables it
	Timeout int64 `env:"TIMEOUT" default:"0"`
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// TokenSource supplies the bearer credential attached to outbound requests.
type TokenSource interface {
	// Token returns the current credential and whether one is present.
	Token() (string, bool)
}

// NewClient creates an *http.Client whose transport adds tracing, logging,
// bearer authorization and panic recovery around base.
// If base is nil, http.DefaultTransport is used. If tokens is nil, no
// Authorization header is added.
func NewClient(cfg HTTPTransportConfig, tokens TokenSource, base http.RoundTripper) *http.Client {
	log := logging.GetLogger("infra.transport.http")

	if base == nil {
		base = http.DefaultTransport
	}

	transport := RescueingMiddleware(base, log)

	if tokens != nil {
		transport = AuthorizingMiddleware(transport, tokens, log)
	}

	transport = LoggingMiddleware(transport, log)
	transport = TracingMiddleware(transport)

	//nolint:exhaustruct
	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.Timeout * int64(time.Second)),
	}
}
