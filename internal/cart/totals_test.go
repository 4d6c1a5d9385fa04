package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lines     []Line
		wantTotal int64
		wantCount int
	}{
		{
			name:      "empty cart",
			lines:     nil,
			wantTotal: 0,
			wantCount: 0,
		},
		{
			name: "two lines sum price times quantity",
			lines: []Line{
				{UnitPriceCents: 1000, Quantity: 2},
				{UnitPriceCents: 900, Quantity: 1},
			},
			wantTotal: 2900,
			wantCount: 3,
		},
		{
			name: "variant modifier shifts unit price",
			lines: []Line{
				{UnitPriceCents: 1500, VariantModifierCents: 250, Quantity: 2},
			},
			wantTotal: 3500,
			wantCount: 2,
		},
		{
			name: "negative modifier discounts",
			lines: []Line{
				{UnitPriceCents: 2000, VariantModifierCents: -500, Quantity: 3},
			},
			wantTotal: 4500,
			wantCount: 3,
		},
		{
			name: "non-positive quantities do not count",
			lines: []Line{
				{UnitPriceCents: 1000, Quantity: 0},
				{UnitPriceCents: 1000, Quantity: -2},
				{UnitPriceCents: 700, Quantity: 1},
			},
			wantTotal: 700,
			wantCount: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			total, count := DeriveTotals(tc.lines)
			assert.Equal(t, tc.wantTotal, total)
			assert.Equal(t, tc.wantCount, count)
		})
	}
}

func TestBuildCart(t *testing.T) {
	t.Parallel()

	t.Run("nil lines become an empty slice", func(t *testing.T) {
		t.Parallel()

		cart := BuildCart(nil)
		require.NotNil(t, cart.Lines)
		assert.Empty(t, cart.Lines)
		assert.Zero(t, cart.TotalCents)
		assert.Zero(t, cart.ItemCount)
		assert.Equal(t, enums.CurrencyUSD, cart.Currency)
	})

	t.Run("currency follows the first line", func(t *testing.T) {
		t.Parallel()

		cart := BuildCart([]Line{
			{ID: uuid.NewString(), UnitPriceCents: 1000, Quantity: 1, Currency: enums.CurrencyEUR},
		})
		assert.Equal(t, enums.CurrencyEUR, cart.Currency)
		assert.Equal(t, int64(1000), cart.TotalCents)
		assert.Equal(t, 1, cart.ItemCount)
	})
}
