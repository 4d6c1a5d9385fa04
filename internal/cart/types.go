package cart

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/enums"
)

// Owner identifies whose cart an operation targets. UserID set means the
// shopper is authenticated; GuestToken identifies the anonymous device cart.
// Both may be present on requests from a signed-in browser that still carries
// its device token; routing keys off UserID whenever it is set.
type Owner struct {
	UserID     *uuid.UUID
	GuestToken string
}

// IsAuthenticated reports whether the owner maps to a server-side cart.
func (o Owner) IsAuthenticated() bool {
	return o.UserID != nil
}

// LockKey returns the string the engine serializes mutations on.
func (o Owner) LockKey() string {
	if o.UserID != nil {
		return "user:" + o.UserID.String()
	}
	return "guest:" + o.GuestToken
}

// Validate ensures at least one identity side is present.
func (o Owner) Validate() error {
	if o.UserID == nil && strings.TrimSpace(o.GuestToken) == "" {
		return fmt.Errorf("cart owner requires a user id or guest token")
	}
	return nil
}

// Line is the normalized cart line shared by the guest and server paths.
// Prices are minor units; VariantModifierCents shifts the base unit price.
type Line struct {
	ID                   string         `json:"id"`
	ProductID            uuid.UUID      `json:"product_id"`
	VariantID            *uuid.UUID     `json:"variant_id,omitempty"`
	ProductName          string         `json:"product_name"`
	VariantLabel         *string        `json:"variant_label,omitempty"`
	ImageURL             *string        `json:"image_url,omitempty"`
	UnitPriceCents       int64          `json:"unit_price_cents"`
	VariantModifierCents int64          `json:"variant_modifier_cents"`
	Quantity             int            `json:"quantity"`
	Currency             enums.Currency `json:"currency"`
}

// Key returns the identity a line merges on: one line per product+variant.
func (l Line) Key() string {
	return LineKey(l.ProductID, l.VariantID)
}

// LineKey builds the product+variant merge identity.
func LineKey(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String() + "|"
	}
	return productID.String() + "|" + variantID.String()
}

// GuestLineID derives the stable identifier for an anonymous cart line.
func GuestLineID(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String() + "-default"
	}
	return productID.String() + "-" + variantID.String()
}

// Cart is the reconciled view returned to callers. Totals are derived from
// the lines on every read and never stored.
type Cart struct {
	Lines      []Line         `json:"lines"`
	TotalCents int64          `json:"total_cents"`
	ItemCount  int            `json:"item_count"`
	Currency   enums.Currency `json:"currency"`
}

// AddItemInput captures an add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// ProductSnapshot is the catalog view the engine needs to price a line.
type ProductSnapshot struct {
	ProductID            uuid.UUID
	VariantID            *uuid.UUID
	Name                 string
	VariantLabel         *string
	ImageURL             *string
	UnitPriceCents       int64
	VariantModifierCents int64
	Stock                int
	Published            bool
	Currency             enums.Currency
}
