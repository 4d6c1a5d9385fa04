package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/internal/cart"
	"github.com/northwindlabs/storefront/pkg/db"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes catalog browse and admin management operations. It also
// serves as the product loader for cart pricing.
type Service interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error

	Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*cart.ProductSnapshot, error)
}

// VariantInput defines one purchasable option on create or update.
type VariantInput struct {
	Name               string
	Value              string
	PriceModifierCents int64
	Stock              int
}

// ImageInput defines one display asset on create or update.
type ImageInput struct {
	URL      string
	AltText  *string
	Position int
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU                 string
	Name                string
	Description         *string
	PriceCents          int64
	CompareAtPriceCents *int64
	Currency            enums.Currency
	Stock               int
	IsPublished         bool
	IsFeatured          bool
	CategoryID          *uuid.UUID
	Variants            []VariantInput
	Images              []ImageInput
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	SKU                 *string
	Name                *string
	Description         *string
	PriceCents          *int64
	CompareAtPriceCents *int64
	Stock               *int
	IsPublished         *bool
	IsFeatured          *bool
	CategoryID          *uuid.UUID
	Variants            *[]VariantInput
	Images              *[]ImageInput
}

// CreateCategoryInput holds the payload to create a category.
type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description *string
}

// UpdateCategoryInput carries a partial category update. Nil fields are left
// untouched.
type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs the catalog service.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// GetProduct returns a published product with variants and images.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns one browse page.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.Filters.PriceMinCents != nil && input.Filters.PriceMaxCents != nil &&
		*input.Filters.PriceMinCents > *input.Filters.PriceMaxCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_min_cents cannot exceed price_max_cents")
	}

	result, err := s.repo.ListProductSummaries(ctx, productListQuery{
		Pagination:         input.Pagination,
		Filters:            input.Filters,
		IncludeUnpublished: input.IncludeUnpublished,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

// ListCategories returns every category.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	dtos := make([]CategoryDTO, len(rows))
	for i, row := range rows {
		dtos[i] = CategoryDTO{ID: row.ID, Slug: row.Slug, Name: row.Name}
	}
	return dtos, nil
}

// CreateProduct creates the product with variants and images in one tx.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:          input.CategoryID,
		SKU:                 strings.TrimSpace(input.SKU),
		Name:                strings.TrimSpace(input.Name),
		Description:         input.Description,
		PriceCents:          input.PriceCents,
		CompareAtPriceCents: input.CompareAtPriceCents,
		Currency:            input.Currency,
		Stock:               input.Stock,
		IsPublished:         input.IsPublished,
		IsFeatured:          input.IsFeatured,
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if err := repo.ReplaceVariants(ctx, product.ID, buildVariantRows(product.ID, input.Variants)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product variants")
		}
		if err := repo.ReplaceImages(ctx, product.ID, buildImageRows(product.ID, input.Images)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product images")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.GetProductDetail(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return NewProductDTO(created), nil
}

// UpdateProduct applies the provided mutations to the product.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	applyProductUpdate(product, input)
	if product.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents cannot be negative")
	}
	if product.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.UpdateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		if input.Variants != nil {
			if err := repo.ReplaceVariants(ctx, product.ID, buildVariantRows(product.ID, *input.Variants)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace product variants")
			}
		}
		if input.Images != nil {
			if err := repo.ReplaceImages(ctx, product.ID, buildImageRows(product.ID, *input.Images)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace product images")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetProductDetail(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return NewProductDTO(updated), nil
}

// DeleteProduct removes the product. Deleting an absent product is NotFound.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// CreateCategory inserts a category.
func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name and slug are required")
	}

	category := &models.Category{Name: name, Slug: slug, Description: input.Description}
	if _, err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return &CategoryDTO{ID: category.ID, Slug: category.Slug, Name: category.Name}, nil
}

// UpdateCategory applies a partial update to a category.
func (s *service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	if err := applyCategoryUpdate(category, input); err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return &CategoryDTO{ID: category.ID, Slug: category.Slug, Name: category.Name}, nil
}

// DeleteCategory removes the category. Deleting an absent category is
// NotFound. Products referencing it are detached, not deleted.
func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if err := s.repo.DeleteCategory(ctx, categoryID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func applyCategoryUpdate(category *models.Category, input UpdateCategoryInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		category.Name = name
	}
	if input.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*input.Slug))
		if slug == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "category slug cannot be empty")
		}
		category.Slug = slug
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	return nil
}

// Snapshot resolves the pricing view of a product variant for the cart.
func (s *service) Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*cart.ProductSnapshot, error) {
	product, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return buildSnapshot(product, variantID)
}

func buildSnapshot(product *models.Product, variantID *uuid.UUID) (*cart.ProductSnapshot, error) {
	snapshot := &cart.ProductSnapshot{
		ProductID:      product.ID,
		VariantID:      variantID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Stock:          product.Stock,
		Published:      product.IsPublished,
		Currency:       product.Currency,
	}

	for _, image := range product.Images {
		if image.Position == 0 {
			url := image.URL
			snapshot.ImageURL = &url
			break
		}
	}

	if variantID != nil {
		found := false
		for _, variant := range product.Variants {
			if variant.ID == *variantID {
				label := variant.Name + ": " + variant.Value
				snapshot.VariantLabel = &label
				snapshot.VariantModifierCents = variant.PriceModifierCents
				snapshot.Stock = variant.Stock
				found = true
				break
			}
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
	}

	return snapshot, nil
}

func validateProductInput(input CreateProductInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	for _, variant := range input.Variants {
		if strings.TrimSpace(variant.Name) == "" || strings.TrimSpace(variant.Value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant name and value are required")
		}
		if variant.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
		}
	}
	for _, image := range input.Images {
		if strings.TrimSpace(image.URL) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
		}
	}
	return nil
}

func applyProductUpdate(product *models.Product, input UpdateProductInput) {
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.CompareAtPriceCents != nil {
		product.CompareAtPriceCents = input.CompareAtPriceCents
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsPublished != nil {
		product.IsPublished = *input.IsPublished
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
}

func buildVariantRows(productID uuid.UUID, inputs []VariantInput) []models.ProductVariant {
	rows := make([]models.ProductVariant, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, models.ProductVariant{
			ProductID:          productID,
			Name:               strings.TrimSpace(input.Name),
			Value:              strings.TrimSpace(input.Value),
			PriceModifierCents: input.PriceModifierCents,
			Stock:              input.Stock,
		})
	}
	return rows
}

func buildImageRows(productID uuid.UUID, inputs []ImageInput) []models.ProductImage {
	rows := make([]models.ProductImage, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, models.ProductImage{
			ProductID: productID,
			URL:       strings.TrimSpace(input.URL),
			AltText:   input.AltText,
			Position:  input.Position,
		})
	}
	return rows
}
