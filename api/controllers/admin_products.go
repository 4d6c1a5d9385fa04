package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/northwindlabs/storefront/api/responses"
	"github.com/northwindlabs/storefront/api/validators"
	"github.com/northwindlabs/storefront/internal/catalog"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
)

// VariantPayload is one variant row on product create/update.
type VariantPayload struct {
	Name               string `json:"name" validate:"required"`
	Value              string `json:"value" validate:"required"`
	PriceModifierCents int64  `json:"price_modifier_cents"`
	Stock              int    `json:"stock" validate:"min=0"`
}

// ImagePayload is one display asset on product create/update.
type ImagePayload struct {
	URL      string  `json:"url" validate:"required,url"`
	AltText  *string `json:"alt_text,omitempty"`
	Position int     `json:"position" validate:"min=0"`
}

// CreateProductRequest is the admin payload to add a catalog product.
type CreateProductRequest struct {
	SKU                 string           `json:"sku" validate:"required"`
	Name                string           `json:"name" validate:"required"`
	Description         *string          `json:"description,omitempty"`
	PriceCents          int64            `json:"price_cents" validate:"required,gt=0"`
	CompareAtPriceCents *int64           `json:"compare_at_price_cents,omitempty"`
	Currency            string           `json:"currency,omitempty"`
	Stock               int              `json:"stock" validate:"min=0"`
	IsPublished         bool             `json:"is_published"`
	IsFeatured          bool             `json:"is_featured"`
	CategoryID          *uuid.UUID       `json:"category_id,omitempty"`
	Variants            []VariantPayload `json:"variants,omitempty"`
	Images              []ImagePayload   `json:"images,omitempty"`
}

// UpdateProductRequest carries partial product changes; absent fields keep
// their stored value.
type UpdateProductRequest struct {
	SKU                 *string           `json:"sku,omitempty"`
	Name                *string           `json:"name,omitempty"`
	Description         *string           `json:"description,omitempty"`
	PriceCents          *int64            `json:"price_cents,omitempty"`
	CompareAtPriceCents *int64            `json:"compare_at_price_cents,omitempty"`
	Stock               *int              `json:"stock,omitempty"`
	IsPublished         *bool             `json:"is_published,omitempty"`
	IsFeatured          *bool             `json:"is_featured,omitempty"`
	CategoryID          *uuid.UUID        `json:"category_id,omitempty"`
	Variants            *[]VariantPayload `json:"variants,omitempty"`
	Images              *[]ImagePayload   `json:"images,omitempty"`
}

// CreateCategoryRequest is the admin payload to add a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// UpdateCategoryRequest carries partial category changes.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CreateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency := enums.Currency(payload.Currency)
		if payload.Currency == "" {
			currency = enums.CurrencyUSD
		}
		if !currency.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency"))
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			SKU:                 payload.SKU,
			Name:                payload.Name,
			Description:         payload.Description,
			PriceCents:          payload.PriceCents,
			CompareAtPriceCents: payload.CompareAtPriceCents,
			Currency:            currency,
			Stock:               payload.Stock,
			IsPublished:         payload.IsPublished,
			IsFeatured:          payload.IsFeatured,
			CategoryID:          payload.CategoryID,
			Variants:            toVariantInputs(payload.Variants),
			Images:              toImageInputs(payload.Images),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			SKU:                 payload.SKU,
			Name:                payload.Name,
			Description:         payload.Description,
			PriceCents:          payload.PriceCents,
			CompareAtPriceCents: payload.CompareAtPriceCents,
			Stock:               payload.Stock,
			IsPublished:         payload.IsPublished,
			IsFeatured:          payload.IsFeatured,
			CategoryID:          payload.CategoryID,
		}
		if payload.Variants != nil {
			variants := toVariantInputs(*payload.Variants)
			input.Variants = &variants
		}
		if payload.Images != nil {
			images := toImageInputs(*payload.Images)
			input.Images = &images
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminCreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CreateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalog.CreateCategoryInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminUpdateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuidURLParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), categoryID, catalog.UpdateCategoryInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func AdminDeleteCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuidURLParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func toVariantInputs(payloads []VariantPayload) []catalog.VariantInput {
	if len(payloads) == 0 {
		return nil
	}
	variants := make([]catalog.VariantInput, len(payloads))
	for i, p := range payloads {
		variants[i] = catalog.VariantInput{
			Name:               p.Name,
			Value:              p.Value,
			PriceModifierCents: p.PriceModifierCents,
			Stock:              p.Stock,
		}
	}
	return variants
}

func toImageInputs(payloads []ImagePayload) []catalog.ImageInput {
	if len(payloads) == 0 {
		return nil
	}
	images := make([]catalog.ImageInput, len(payloads))
	for i, p := range payloads {
		images[i] = catalog.ImageInput{
			URL:      p.URL,
			AltText:  p.AltText,
			Position: p.Position,
		}
	}
	return images
}
