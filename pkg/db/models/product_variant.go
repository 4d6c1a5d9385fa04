package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a purchasable option of a product (e.g. size or color).
// PriceModifierCents shifts the parent product price up or down.
type ProductVariant struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_variants_product_id_idx"`
	Name               string    `gorm:"column:name;not null"`
	Value              string    `gorm:"column:value;not null"`
	PriceModifierCents int64     `gorm:"column:price_modifier_cents;not null;default:0"`
	Stock              int       `gorm:"column:stock;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
