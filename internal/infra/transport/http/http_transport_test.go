package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/sweetshop/internal/infra/context"
	http_ "github.com/mkrupp/sweetshop/internal/infra/transport/http"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func newHeaderServer(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()

	var seen http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	return server, &seen
}

func TestNewClient_Headers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		tokens    http_.TokenSource
		preset    string
		traceID   string
		wantAuth  string
		wantTrace string
	}{
		{
			name:     "attaches bearer token",
			tokens:   staticTokens{token: "abc"},
			wantAuth: "Bearer abc",
		},
		{
			name:     "no token available",
			tokens:   staticTokens{},
			wantAuth: "",
		},
		{
			name:     "nil token source",
			tokens:   nil,
			wantAuth: "",
		},
		{
			name:     "keeps explicit authorization header",
			tokens:   staticTokens{token: "abc"},
			preset:   "Bearer other",
			wantAuth: "Bearer other",
		},
		{
			name:      "reuses trace id from context",
			tokens:    staticTokens{},
			traceID:   "trace-1",
			wantTrace: "trace-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, seen := newHeaderServer(t)
			client := http_.NewClient(http_.HTTPTransportConfig{}, tt.tokens, nil)

			ctx := context.Background()
			if tt.traceID != "" {
				ctx = context_.WithTraceID(ctx, tt.traceID)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
			require.NoError(t, err)

			if tt.preset != "" {
				req.Header.Set(http_.AuthorizationHeader, tt.preset)
			}

			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantAuth, seen.Get(http_.AuthorizationHeader))

			trace := seen.Get(http_.TraceIDHeader)
			if tt.wantTrace != "" {
				assert.Equal(t, tt.wantTrace, trace)
			} else {
				id, err := uuid.Parse(trace)
				require.NoError(t, err)
				assert.Equal(t, uuid.Version(7), id.Version())
			}

			// the caller's request is left untouched
			assert.Empty(t, req.Header.Get(http_.TraceIDHeader))
		})
	}
}

func TestNewClient_RecoversPanic(t *testing.T) {
	t.Parallel()

	base := http_.RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		panic("boom")
	})

	client := http_.NewClient(http_.HTTPTransportConfig{}, nil, base)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)

	resp, err := client.Do(req) //nolint:bodyclose
	require.ErrorIs(t, err, http_.ErrTransportPanic)
	assert.Nil(t, resp)
}
