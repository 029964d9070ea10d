package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidItem is returned when an item draft does not describe a valid item.
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidQuantity is returned when a restock amount is not a positive integer.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Item is a purchasable inventory record ("sweet").
type Item struct {
	ID       ItemID          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// InStock reports whether at least one unit can be purchased.
func (i Item) InStock() bool {
	return i.Quantity > 0
}

// Input returns the mutable fields of the item.
func (i Item) Input() ItemInput {
	return ItemInput{
		Name:     i.Name,
		Category: i.Category,
		Price:    i.Price,
		Quantity: i.Quantity,
	}
}

// Draft returns an ItemDraft pre-populated from the item.
func (i Item) Draft() ItemDraft {
	return ItemDraft{
		Name:     i.Name,
		Category: i.Category,
		Price:    i.Price.String(),
		Quantity: strconv.Itoa(i.Quantity),
	}
}

// ItemInput is the body of create and update requests (an Item without its ID).
type ItemInput struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ItemDraft is the raw user input of the add and update forms.
type ItemDraft struct {
	Name     string
	Category string
	Price    string
	Quantity string
}

// Parse validates the draft and converts it into an ItemInput.
func (d ItemDraft) Parse() (ItemInput, error) {
	var errs []error

	name := strings.TrimSpace(d.Name)
	if name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	category := strings.TrimSpace(d.Category)
	if category == "" {
		errs = append(errs, errors.New("category is required"))
	}

	price, err := decimal.NewFromString(strings.TrimSpace(d.Price))
	if err != nil {
		errs = append(errs, fmt.Errorf("price %q is not a number", d.Price))
	} else if price.IsNegative() {
		errs = append(errs, fmt.Errorf("price %s is negative", price))
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(d.Quantity))
	if err != nil {
		errs = append(errs, fmt.Errorf("quantity %q is not an integer", d.Quantity))
	} else if quantity < 0 {
		errs = append(errs, fmt.Errorf("quantity %d is negative", quantity))
	}

	if len(errs) > 0 {
		return ItemInput{}, fmt.Errorf("%w: %w", ErrInvalidItem, errors.Join(errs...))
	}

	return ItemInput{
		Name:     name,
		Category: category,
		Price:    price,
		Quantity: quantity,
	}, nil
}

// RestockDraft is the raw user input of the restock form.
type RestockDraft struct {
	Quantity string
}

// Parse returns the number of units to add, which must be positive.
func (d RestockDraft) Parse() (int, error) {
	quantity, err := strconv.Atoi(strings.TrimSpace(d.Quantity))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidQuantity, d.Quantity)
	}

	if quantity <= 0 {
		return 0, fmt.Errorf("%w: %d is not positive", ErrInvalidQuantity, quantity)
	}

	return quantity, nil
}
