package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/sweetshop/internal/domain"
)

func TestItemDraft_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		draft   domain.ItemDraft
		want    domain.ItemInput
		wantErr []string
	}{
		{
			name:  "valid",
			draft: domain.ItemDraft{Name: " Ladoo ", Category: "Indian", Price: " 2.50", Quantity: "5 "},
			want:  domain.ItemInput{Name: "Ladoo", Category: "Indian", Price: decimal.RequireFromString("2.5"), Quantity: 5},
		},
		{
			name:  "zero price and quantity",
			draft: domain.ItemDraft{Name: "Candy", Category: "American", Price: "0", Quantity: "0"},
			want:  domain.ItemInput{Name: "Candy", Category: "American", Price: decimal.Zero, Quantity: 0},
		},
		{
			name:    "blank fields",
			draft:   domain.ItemDraft{Name: "  ", Price: "1", Quantity: "1"},
			wantErr: []string{"name is required", "category is required"},
		},
		{
			name:    "bad numbers",
			draft:   domain.ItemDraft{Name: "Candy", Category: "American", Price: "abc", Quantity: "1.5"},
			wantErr: []string{`price "abc" is not a number`, `quantity "1.5" is not an integer`},
		},
		{
			name:    "negative numbers",
			draft:   domain.ItemDraft{Name: "Candy", Category: "American", Price: "-1", Quantity: "-2"},
			wantErr: []string{"price -1 is negative", "quantity -2 is negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.draft.Parse()

			if tt.wantErr != nil {
				require.ErrorIs(t, err, domain.ErrInvalidItem)

				for _, msg := range tt.wantErr {
					assert.Contains(t, err.Error(), msg)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Category, got.Category)
			assert.True(t, tt.want.Price.Equal(got.Price), "price %s", got.Price)
			assert.Equal(t, tt.want.Quantity, got.Quantity)
		})
	}
}

func TestRestockDraft_Parse(t *testing.T) {
	t.Parallel()

	quantity, err := domain.RestockDraft{Quantity: " 12 "}.Parse()
	require.NoError(t, err)
	assert.Equal(t, 12, quantity)

	for _, raw := range []string{"", "0", "-3", "two"} {
		_, err := domain.RestockDraft{Quantity: raw}.Parse()
		require.ErrorIs(t, err, domain.ErrInvalidQuantity, raw)
	}
}

func TestItem_Draft(t *testing.T) {
	t.Parallel()

	item := domain.Item{ID: 7, Name: "Barfi", Category: "Indian", Price: decimal.RequireFromString("3.75"), Quantity: 0}

	assert.False(t, item.InStock())
	assert.Equal(t, domain.ItemDraft{Name: "Barfi", Category: "Indian", Price: "3.75", Quantity: "0"}, item.Draft())

	input, err := item.Draft().Parse()
	require.NoError(t, err)
	assert.Equal(t, item.Name, input.Name)
	assert.True(t, item.Price.Equal(input.Price))
}

func TestParseItemID(t *testing.T) {
	t.Parallel()

	id, err := domain.ParseItemID("42")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemID(42), id)
	assert.Equal(t, "42", id.String())

	for _, raw := range []string{"", "0", "-1", "x"} {
		_, err := domain.ParseItemID(raw)
		require.ErrorIs(t, err, domain.ErrInvalidItemID, raw)
	}
}
