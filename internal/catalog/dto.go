package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
)

// ProductDTO is the full product payload returned to clients.
type ProductDTO struct {
	ID                  uuid.UUID    `json:"id"`
	SKU                 string       `json:"sku"`
	Name                string       `json:"name"`
	Description         *string      `json:"description,omitempty"`
	PriceCents          int64        `json:"price_cents"`
	CompareAtPriceCents *int64       `json:"compare_at_price_cents,omitempty"`
	Currency            string       `json:"currency"`
	Stock               int          `json:"stock"`
	IsPublished         bool         `json:"is_published"`
	IsFeatured          bool         `json:"is_featured"`
	Category            *CategoryDTO `json:"category,omitempty"`
	Variants            []VariantDTO `json:"variants,omitempty"`
	Images              []ImageDTO   `json:"images,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// VariantDTO is one purchasable option of a product.
type VariantDTO struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Value              string    `json:"value"`
	PriceModifierCents int64     `json:"price_modifier_cents"`
	Stock              int       `json:"stock"`
}

// ImageDTO carries a display asset for a product.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	AltText  *string   `json:"alt_text,omitempty"`
	Position int       `json:"position"`
}

// CategoryDTO is a catalog grouping.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// ProductSummary is the compact row used on browse pages.
type ProductSummary struct {
	ID                  uuid.UUID `json:"id"`
	SKU                 string    `json:"sku"`
	Name                string    `json:"name"`
	PriceCents          int64     `json:"price_cents"`
	CompareAtPriceCents *int64    `json:"compare_at_price_cents,omitempty"`
	Currency            string    `json:"currency"`
	IsFeatured          bool      `json:"is_featured"`
	HasVariants         bool      `json:"has_variants"`
	LeadImageURL        *string   `json:"lead_image_url,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// ProductListResult bundles a browse page with its continuation cursor.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// NewProductDTO builds the client payload from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                  product.ID,
		SKU:                 product.SKU,
		Name:                product.Name,
		Description:         product.Description,
		PriceCents:          product.PriceCents,
		CompareAtPriceCents: product.CompareAtPriceCents,
		Currency:            string(product.Currency),
		Stock:               product.Stock,
		IsPublished:         product.IsPublished,
		IsFeatured:          product.IsFeatured,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}

	if product.Category != nil {
		dto.Category = &CategoryDTO{
			ID:   product.Category.ID,
			Slug: product.Category.Slug,
			Name: product.Category.Name,
		}
	}

	if len(product.Variants) > 0 {
		dto.Variants = make([]VariantDTO, len(product.Variants))
		for i, variant := range product.Variants {
			dto.Variants[i] = VariantDTO{
				ID:                 variant.ID,
				Name:               variant.Name,
				Value:              variant.Value,
				PriceModifierCents: variant.PriceModifierCents,
				Stock:              variant.Stock,
			}
		}
	}

	if len(product.Images) > 0 {
		dto.Images = make([]ImageDTO, len(product.Images))
		for i, image := range product.Images {
			dto.Images[i] = ImageDTO{
				ID:       image.ID,
				URL:      image.URL,
				AltText:  image.AltText,
				Position: image.Position,
			}
		}
	}

	return dto
}
