package cart

import (
	"github.com/northwindlabs/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// DeriveTotals computes the cart total and item count from the lines alone.
// Total is the sum over lines of (unit price + variant modifier) x quantity;
// item count is the sum of quantities. Callers recompute on every read so the
// stored lines stay the single source of truth.
func DeriveTotals(lines []Line) (totalCents int64, itemCount int) {
	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		unit := decimal.NewFromInt(line.UnitPriceCents).
			Add(decimal.NewFromInt(line.VariantModifierCents))
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		itemCount += line.Quantity
	}
	return total.IntPart(), itemCount
}

// BuildCart assembles the derived view for a set of lines.
func BuildCart(lines []Line) *Cart {
	if lines == nil {
		lines = []Line{}
	}
	total, count := DeriveTotals(lines)
	currency := enums.CurrencyUSD
	if len(lines) > 0 && lines[0].Currency.IsValid() {
		currency = lines[0].Currency
	}
	return &Cart{
		Lines:      lines,
		TotalCents: total,
		ItemCount:  count,
		Currency:   currency,
	}
}
