package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/enums"
)

// Order is a placed checkout with immutable line snapshots.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	ItemCount     int                 `gorm:"column:item_count;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ShippingName  string              `gorm:"column:shipping_name;not null"`
	ShippingLine1 string              `gorm:"column:shipping_line1;not null"`
	ShippingLine2 *string             `gorm:"column:shipping_line2"`
	ShippingCity  string              `gorm:"column:shipping_city;not null"`
	ShippingZip   string              `gorm:"column:shipping_zip;not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
