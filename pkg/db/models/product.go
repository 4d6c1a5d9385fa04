package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/enums"
)

// Product represents a published catalog listing.
type Product struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID          *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	SKU                 string           `gorm:"column:sku;not null;uniqueIndex"`
	Name                string           `gorm:"column:name;not null"`
	Description         *string          `gorm:"column:description"`
	PriceCents          int64            `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int64           `gorm:"column:compare_at_price_cents"`
	Currency            enums.Currency   `gorm:"column:currency;type:text;not null;default:'USD'"`
	Stock               int              `gorm:"column:stock;not null;default:0"`
	IsPublished         bool             `gorm:"column:is_published;not null;default:false"`
	IsFeatured          bool             `gorm:"column:is_featured;not null;default:false"`
	Category            *Category        `gorm:"foreignKey:CategoryID"`
	Variants            []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images              []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
