package apiclient

import (
	"context"

	"github.com/mkrupp/sweetshop/internal/domain"
)

// Client defines the operations of the sweet shop backend.
// Failures unwrap to ErrUnauthorized, ErrForbidden, ErrClientError,
// ErrServerError, ErrNetwork or ErrInvalidResponse.
type Client interface {
	// Login exchanges credentials for a session.
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)

	// Register creates a new account. It does not authenticate.
	Register(ctx context.Context, reg domain.Registration) error

	// ListSweets returns the full inventory in backend order.
	ListSweets(ctx context.Context) ([]domain.Item, error)

	// SearchSweets returns the items matching the query, filtered by the backend.
	SearchSweets(ctx context.Context, query domain.SearchQuery) ([]domain.Item, error)

	// CreateSweet adds a new item. Staff only.
	CreateSweet(ctx context.Context, input domain.ItemInput) error

	// UpdateSweet replaces all fields of an item. Staff only.
	UpdateSweet(ctx context.Context, id domain.ItemID, input domain.ItemInput) error

	// DeleteSweet removes an item. Staff only.
	DeleteSweet(ctx context.Context, id domain.ItemID) error

	// RestockSweet increases the quantity of an item. Staff only.
	RestockSweet(ctx context.Context, id domain.ItemID, quantity int) error

	// PurchaseSweet decrements the quantity of an item by one.
	PurchaseSweet(ctx context.Context, id domain.ItemID) error
}
