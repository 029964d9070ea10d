package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidItemID is returned when an item identifier cannot be parsed.
var ErrInvalidItemID = errors.New("invalid item ID")

// ItemID is the backend-assigned identifier of an inventory item.
type ItemID int64

// ParseItemID parses the decimal representation of an ItemID.
func ParseItemID(s string) (ItemID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidItemID, s)
	}

	return ItemID(id), nil
}

// String returns the string representation of the ItemID.
func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
