package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
	http_ "github.com/mkrupp/sweetshop/internal/infra/transport/http"
)

const maxBodySize = 4 << 20

// HTTPClientConfig holds configuration for the backend HTTP client.
type HTTPClientConfig struct {
	http_.HTTPTransportConfig

	// BaseURL is the API root every request path is appended to
	BaseURL string `env:"BASE_URL" default:"http://localhost:8000/api"`

	// TrailingSlash appends "/" to request paths, as the backend routes require
	TrailingSlash bool `env:"TRAILING_SLASH" default:"true"`
}

// HTTPClient implements Client using JSON over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// The credential returned by tokens is attached to every request as a bearer token.
// If base is nil, http.DefaultTransport is used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	tokens http_.TokenSource,
	base http.RoundTripper,
) *HTTPClient {
	return &HTTPClient{
		httpClient: http_.NewClient(cfg.HTTPTransportConfig, tokens, base),
		log:        logging.GetLogger("svc.apiclient.http_client"),
		cfg:        cfg,
	}
}

// Request sends body (if non-nil) as JSON and decodes a 2xx response into out (if non-nil).
// Non-2xx responses are returned as *ResponseError.
func (c *HTTPClient) Request(ctx context.Context, method, path string, body, out any) (err error) {
	log := c.log.With(logging.Group("request", "method", method, "path", path))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "request failed", "error", err)
		} else {
			log.DebugContext(ctx, "request succeeded")
		}
	}()

	endpoint, err := c.endpoint(path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &ResponseError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(data),
		}
	}

	if out == nil {
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return nil
}

func (c *HTTPClient) endpoint(path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + path)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	if c.cfg.TrailingSlash && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u.String(), nil
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	IsStaff     bool   `json:"is_staff"`
}

// Login implements Client.Login.
func (c *HTTPClient) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	var resp loginResponse

	if err := c.Request(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}

	if resp.AccessToken == "" {
		return domain.Session{}, fmt.Errorf("login: %w: no access token", ErrInvalidResponse)
	}

	return domain.Session{
		Token: resp.AccessToken,
		User: domain.User{
			Username: creds.Username,
			IsStaff:  resp.IsStaff,
		},
	}, nil
}

// Register implements Client.Register.
func (c *HTTPClient) Register(ctx context.Context, reg domain.Registration) error {
	if err := c.Request(ctx, http.MethodPost, "/auth/register", reg, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	return nil
}

// ListSweets implements Client.ListSweets.
func (c *HTTPClient) ListSweets(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item

	if err := c.Request(ctx, http.MethodGet, "/sweets", nil, &items); err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}

	return items, nil
}

// SearchSweets implements Client.SearchSweets.
func (c *HTTPClient) SearchSweets(ctx context.Context, query domain.SearchQuery) ([]domain.Item, error) {
	params := url.Values{}

	for key, value := range map[string]string{
		"name":      query.Name,
		"category":  query.Category,
		"min_price": query.MinPrice,
		"max_price": query.MaxPrice,
	} {
		if value = strings.TrimSpace(value); value != "" {
			params.Set(key, value)
		}
	}

	path := "/sweets/search"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var items []domain.Item

	if err := c.Request(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}

	return items, nil
}

// CreateSweet implements Client.CreateSweet.
func (c *HTTPClient) CreateSweet(ctx context.Context, input domain.ItemInput) error {
	if err := c.Request(ctx, http.MethodPost, "/sweets", input, nil); err != nil {
		return fmt.Errorf("create sweet: %w", err)
	}

	return nil
}

// UpdateSweet implements Client.UpdateSweet.
func (c *HTTPClient) UpdateSweet(ctx context.Context, id domain.ItemID, input domain.ItemInput) error {
	if err := c.Request(ctx, http.MethodPut, "/sweets/"+id.String(), input, nil); err != nil {
		return fmt.Errorf("update sweet %s: %w", id, err)
	}

	return nil
}

// DeleteSweet implements Client.DeleteSweet.
func (c *HTTPClient) DeleteSweet(ctx context.Context, id domain.ItemID) error {
	if err := c.Request(ctx, http.MethodDelete, "/sweets/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("delete sweet %s: %w", id, err)
	}

	return nil
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

// RestockSweet implements Client.RestockSweet.
func (c *HTTPClient) RestockSweet(ctx context.Context, id domain.ItemID, quantity int) error {
	path := "/sweets/" + id.String() + "/restock"

	if err := c.Request(ctx, http.MethodPost, path, restockRequest{Quantity: quantity}, nil); err != nil {
		return fmt.Errorf("restock sweet %s: %w", id, err)
	}

	return nil
}

// PurchaseSweet implements Client.PurchaseSweet.
func (c *HTTPClient) PurchaseSweet(ctx context.Context, id domain.ItemID) error {
	if err := c.Request(ctx, http.MethodPost, "/sweets/"+id.String()+"/purchase", nil, nil); err != nil {
		return fmt.Errorf("purchase sweet %s: %w", id, err)
	}

	return nil
}
