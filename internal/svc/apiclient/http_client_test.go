package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/svc/apiclient"
)

type staticTokens string

func (s staticTokens) Token() (string, bool) {
	return string(s), s != ""
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type fakeBackend struct {
	status   int
	response string

	m        sync.Mutex
	requests []recordedRequest
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.m.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	b.m.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.status)
	_, _ = io.WriteString(w, b.response)
}

func (b *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()

	b.m.Lock()
	defer b.m.Unlock()

	require.NotEmpty(t, b.requests)

	return b.requests[len(b.requests)-1]
}

func setupTestClient(t *testing.T, status int, response string) (*apiclient.HTTPClient, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{status: status, response: response}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client := apiclient.NewHTTPClient(apiclient.HTTPClientConfig{
		BaseURL:       server.URL + "/api",
		TrailingSlash: true,
	}, staticTokens("tok"), nil)

	return client, backend
}

func TestHTTPClient_Login(t *testing.T) {
	t.Parallel()

	client, backend := setupTestClient(t, http.StatusOK, `{"access_token":"jwt-1","is_staff":true}`)

	sess, err := client.Login(context.Background(), domain.Credentials{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, domain.Session{
		Token: "jwt-1",
		User:  domain.User{Username: "alice", IsStaff: true},
	}, sess)

	req := backend.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/auth/login/", req.Path)
	assert.JSONEq(t, `{"username":"alice","password":"secret123"}`, req.Body)
}

func TestHTTPClient_LoginWithoutToken(t *testing.T) {
	t.Parallel()

	client, _ := setupTestClient(t, http.StatusOK, `{"is_staff":false}`)

	_, err := client.Login(context.Background(), domain.Credentials{Username: "alice"})
	require.ErrorIs(t, err, apiclient.ErrInvalidResponse)
}

func TestHTTPClient_ListSweets(t *testing.T) {
	t.Parallel()

	client, backend := setupTestClient(t, http.StatusOK, `[
		{"id":1,"name":"Ladoo","category":"Indian","price":"2.50","quantity":5},
		{"id":2,"name":"Candy","category":"American","price":1.0,"quantity":0}
	]`)

	items, err := client.ListSweets(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, domain.ItemID(1), items[0].ID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(items[0].Price))
	assert.Equal(t, "Candy", items[1].Name)
	assert.True(t, decimal.NewFromInt(1).Equal(items[1].Price))

	req := backend.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/sweets/", req.Path)
	assert.Equal(t, "Bearer tok", req.Auth)
}

func TestHTTPClient_SearchSweets(t *testing.T) {
	t.Parallel()

	client, backend := setupTestClient(t, http.StatusOK, `[]`)

	items, err := client.SearchSweets(context.Background(), domain.SearchQuery{
		Name:     "lad",
		MinPrice: "1.5",
	})
	require.NoError(t, err)
	assert.Empty(t, items)

	req := backend.last(t)
	assert.Equal(t, "/api/sweets/search/", req.Path)
	assert.Equal(t, "min_price=1.5&name=lad", req.Query)
}

func TestHTTPClient_Mutations(t *testing.T) {
	t.Parallel()

	input := domain.ItemInput{
		Name:     "Barfi",
		Category: "Indian",
		Price:    decimal.RequireFromString("3.25"),
		Quantity: 4,
	}

	tests := []struct {
		name       string
		call       func(context.Context, *apiclient.HTTPClient) error
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name:       "create",
			call:       func(ctx context.Context, c *apiclient.HTTPClient) error { return c.CreateSweet(ctx, input) },
			wantMethod: http.MethodPost,
			wantPath:   "/api/sweets/",
			wantBody:   `{"name":"Barfi","category":"Indian","price":"3.25","quantity":4}`,
		},
		{
			name:       "update",
			call:       func(ctx context.Context, c *apiclient.HTTPClient) error { return c.UpdateSweet(ctx, 7, input) },
			wantMethod: http.MethodPut,
			wantPath:   "/api/sweets/7/",
			wantBody:   `{"name":"Barfi","category":"Indian","price":"3.25","quantity":4}`,
		},
		{
			name:       "delete",
			call:       func(ctx context.Context, c *apiclient.HTTPClient) error { return c.DeleteSweet(ctx, 7) },
			wantMethod: http.MethodDelete,
			wantPath:   "/api/sweets/7/",
		},
		{
			name:       "restock",
			call:       func(ctx context.Context, c *apiclient.HTTPClient) error { return c.RestockSweet(ctx, 7, 5) },
			wantMethod: http.MethodPost,
			wantPath:   "/api/sweets/7/restock/",
			wantBody:   `{"quantity":5}`,
		},
		{
			name:       "purchase",
			call:       func(ctx context.Context, c *apiclient.HTTPClient) error { return c.PurchaseSweet(ctx, 7) },
			wantMethod: http.MethodPost,
			wantPath:   "/api/sweets/7/purchase/",
		},
		{
			name: "register",
			call: func(ctx context.Context, c *apiclient.HTTPClient) error {
				return c.Register(ctx, domain.Registration{Username: "bob", Email: "bob@example.com", Password: "password1"})
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/auth/register/",
			wantBody:   `{"username":"bob","email":"bob@example.com","password":"password1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, backend := setupTestClient(t, http.StatusOK, `{}`)

			require.NoError(t, tt.call(context.Background(), client))

			req := backend.last(t)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)

			if tt.wantBody == "" {
				assert.Empty(t, req.Body)
			} else {
				assert.JSONEq(t, tt.wantBody, req.Body)
			}
		})
	}
}

func TestHTTPClient_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		response    string
		wantErr     error
		wantMessage string
	}{
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			response:    `{"detail":"Given token not valid for any token type"}`,
			wantErr:     apiclient.ErrUnauthorized,
			wantMessage: "Given token not valid for any token type",
		},
		{
			name:        "forbidden",
			status:      http.StatusForbidden,
			response:    `{"detail":"Admin privileges required."}`,
			wantErr:     apiclient.ErrForbidden,
			wantMessage: "Admin privileges required.",
		},
		{
			name:        "client error with message",
			status:      http.StatusBadRequest,
			response:    `{"message":"Out of stock"}`,
			wantErr:     apiclient.ErrClientError,
			wantMessage: "Out of stock",
		},
		{
			name:        "client error with field errors",
			status:      http.StatusBadRequest,
			response:    `{"username":["A user with that username already exists."]}`,
			wantErr:     apiclient.ErrClientError,
			wantMessage: "username: A user with that username already exists.",
		},
		{
			name:        "client error with non field errors",
			status:      http.StatusBadRequest,
			response:    `{"non_field_errors":["Invalid credentials"]}`,
			wantErr:     apiclient.ErrClientError,
			wantMessage: "Invalid credentials",
		},
		{
			name:     "client error without body",
			status:   http.StatusNotFound,
			response: ``,
			wantErr:  apiclient.ErrClientError,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			response: `<html>oops</html>`,
			wantErr:  apiclient.ErrServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _ := setupTestClient(t, tt.status, tt.response)

			err := client.PurchaseSweet(context.Background(), 1)
			require.ErrorIs(t, err, tt.wantErr)

			var respErr *apiclient.ResponseError
			require.ErrorAs(t, err, &respErr)
			assert.Equal(t, tt.status, respErr.StatusCode)

			msg, ok := apiclient.Message(err)
			assert.Equal(t, tt.wantMessage != "", ok)
			assert.Equal(t, tt.wantMessage, msg)
		})
	}
}

func TestHTTPClient_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := apiclient.NewHTTPClient(apiclient.HTTPClientConfig{BaseURL: url}, nil, nil)

	_, err := client.ListSweets(context.Background())
	require.ErrorIs(t, err, apiclient.ErrNetwork)

	_, ok := apiclient.Message(err)
	assert.False(t, ok)
}

func TestHTTPClient_InvalidResponse(t *testing.T) {
	t.Parallel()

	client, _ := setupTestClient(t, http.StatusOK, `{"not":"a list"}`)

	_, err := client.ListSweets(context.Background())
	require.ErrorIs(t, err, apiclient.ErrInvalidResponse)
}

func TestHTTPClient_WithoutTrailingSlash(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{status: http.StatusOK, response: `[]`}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client := apiclient.NewHTTPClient(apiclient.HTTPClientConfig{BaseURL: server.URL + "/"}, nil, nil)

	_, err := client.ListSweets(context.Background())
	require.NoError(t, err)

	req := backend.last(t)
	assert.Equal(t, "/sweets", req.Path)
	assert.Empty(t, req.Auth)
}

func TestItem_DecodesStringPrice(t *testing.T) {
	t.Parallel()

	var item domain.Item
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"Jalebi","category":"Indian","price":"12.00","quantity":2}`), &item))
	assert.Equal(t, "12", item.Price.String())
}
