package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of an authenticated shopper's server-side cart. A line
// is keyed by (user, product, variant); quantity changes update the row in
// place rather than appending.
type CartItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:cart_items_user_id_idx;uniqueIndex:cart_items_user_product_variant_key"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_user_product_variant_key"`
	VariantID *uuid.UUID `gorm:"column:variant_id;type:uuid;uniqueIndex:cart_items_user_product_variant_key"`
	Quantity  int        `gorm:"column:quantity;not null"`
	Product   *Product   `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
