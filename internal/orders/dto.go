package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
)

// OrderDTO is the full order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	TotalCents    int64               `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
	Currency      enums.Currency      `json:"currency"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Shipping      ShippingDTO         `json:"shipping"`
	Items         []OrderItemDTO      `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ShippingDTO carries the address snapshot recorded at checkout.
type ShippingDTO struct {
	Name  string  `json:"name"`
	Line1 string  `json:"line1"`
	Line2 *string `json:"line2,omitempty"`
	City  string  `json:"city"`
	Zip   string  `json:"zip"`
}

// OrderItemDTO is one immutable line snapshot.
type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	VariantLabel   *string    `json:"variant_label,omitempty"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
	SubtotalCents  int64      `json:"subtotal_cents"`
}

// OrderSummary is the compact row for order history pages.
type OrderSummary struct {
	ID         uuid.UUID         `json:"id"`
	Status     enums.OrderStatus `json:"status"`
	TotalCents int64             `json:"total_cents"`
	ItemCount  int               `json:"item_count"`
	Currency   enums.Currency    `json:"currency"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OrderListResult bundles an order history page with its cursor.
type OrderListResult struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted order onto the client payload.
func FromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		Status:        order.Status,
		TotalCents:    order.TotalCents,
		ItemCount:     order.ItemCount,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		Shipping: ShippingDTO{
			Name:  order.ShippingName,
			Line1: order.ShippingLine1,
			Line2: order.ShippingLine2,
			City:  order.ShippingCity,
			Zip:   order.ShippingZip,
		},
		Items:     make([]OrderItemDTO, len(order.Items)),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	for i, item := range order.Items {
		dto.Items[i] = OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			VariantLabel:   item.VariantLabel,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  item.SubtotalCents,
		}
	}
	return dto
}

func toSummary(order models.Order) OrderSummary {
	return OrderSummary{
		ID:         order.ID,
		Status:     order.Status,
		TotalCents: order.TotalCents,
		ItemCount:  order.ItemCount,
		Currency:   order.Currency,
		CreatedAt:  order.CreatedAt,
	}
}
