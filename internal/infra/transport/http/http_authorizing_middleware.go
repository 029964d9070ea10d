package http

import (
	"net/http"

	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

const AuthorizationHeader = "Authorization"

// AuthorizingMiddleware creates middleware that attaches the current credential
// as "Authorization: Bearer <token>". Requests are sent unchanged when the
// TokenSource has no credential or the request already carries the header.
func AuthorizingMiddleware(
	next http.RoundTripper,
	tokens TokenSource,
	log logging.Logger,
) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(AuthorizationHeader) != "" {
			return next.RoundTrip(r)
		}

		token, ok := tokens.Token()
		if !ok || token == "" {
			log.DebugContext(r.Context(), "no credential attached")

			return next.RoundTrip(r)
		}

		r = r.Clone(r.Context())
		r.Header.Set(AuthorizationHeader, "Bearer "+token)

		return next.RoundTrip(r)
	})
}
