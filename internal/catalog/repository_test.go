package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			category_id TEXT,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			price_cents INTEGER NOT NULL,
			compare_at_price_cents INTEGER,
			currency TEXT NOT NULL DEFAULT 'USD',
			stock INTEGER NOT NULL DEFAULT 0,
			is_published INTEGER NOT NULL DEFAULT 0,
			is_featured INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS product_variants (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			price_modifier_cents INTEGER NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS product_images (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			url TEXT NOT NULL,
			alt_text TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func mustCreateCatalogProduct(t *testing.T, db *gorm.DB, name string, published bool, createdAt time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:          uuid.New(),
		SKU:         "sku-" + uuid.NewString(),
		Name:        name,
		PriceCents:  1000,
		Currency:    "USD",
		Stock:       10,
		IsPublished: published,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryGetProductDetailOrdersAssociations(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	product := mustCreateCatalogProduct(t, db, "Hoodie", true, time.Now().UTC())
	require.NoError(t, db.Create(&models.ProductImage{
		ID: uuid.New(), ProductID: product.ID, URL: "https://cdn.example.com/b.jpg", Position: 1,
	}).Error)
	require.NoError(t, db.Create(&models.ProductImage{
		ID: uuid.New(), ProductID: product.ID, URL: "https://cdn.example.com/a.jpg", Position: 0,
	}).Error)

	loaded, err := repo.GetProductDetail(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, 0, loaded.Images[0].Position)
}

func TestRepositoryFindVariantScopedToProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	product := mustCreateCatalogProduct(t, db, "Tee", true, time.Now().UTC())
	variant := &models.ProductVariant{
		ID: uuid.New(), ProductID: product.ID, Name: "Size", Value: "M",
	}
	require.NoError(t, db.Create(variant).Error)

	found, err := repo.FindVariant(context.Background(), product.ID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, "M", found.Value)

	_, err = repo.FindVariant(context.Background(), uuid.New(), variant.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListProductSummariesPublishedOnly(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	base := time.Now().UTC().Add(-time.Hour)
	visible := mustCreateCatalogProduct(t, db, "Visible", true, base)
	mustCreateCatalogProduct(t, db, "Hidden", false, base.Add(time.Minute))

	result, err := repo.ListProductSummaries(context.Background(), productListQuery{
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(result.Products))
	for _, summary := range result.Products {
		ids = append(ids, summary.ID)
	}
	assert.Contains(t, ids, visible.ID)
	for _, summary := range result.Products {
		assert.NotEqual(t, "Hidden", summary.Name)
	}
}

func TestRepositoryListProductSummariesCursorPagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mustCreateCatalogProduct(t, db, "Paged", true, base.Add(time.Duration(i)*time.Minute))
	}

	query := "Paged"
	first, err := repo.ListProductSummaries(context.Background(), productListQuery{
		Pagination: pagination.Params{Limit: 2},
		Filters:    ListFilters{Query: query},
	})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListProductSummaries(context.Background(), productListQuery{
		Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor},
		Filters:    ListFilters{Query: query},
	})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Empty(t, second.NextCursor)

	// Newest first, no overlap between pages.
	assert.True(t, first.Products[0].CreatedAt.After(first.Products[1].CreatedAt))
	assert.NotEqual(t, first.Products[1].ID, second.Products[0].ID)
}

func TestRepositoryDecrementProductStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	product := mustCreateCatalogProduct(t, db, "Limited", true, time.Now().UTC())

	ok, err := repo.DecrementProductStock(context.Background(), product.ID, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	// Remaining stock is 6; asking for more than that fails without mutating.
	ok, err = repo.DecrementProductStock(context.Background(), product.ID, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 6, reloaded.Stock)
}

func TestRepositoryUpdateCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := &models.Category{ID: uuid.New(), Name: "Outerwear", Slug: "outerwear"}
	require.NoError(t, db.Create(category).Error)

	category.Name = "Coats & Jackets"
	category.Slug = "coats-jackets"
	saved, err := repo.UpdateCategory(context.Background(), category)
	require.NoError(t, err)
	assert.Equal(t, "coats-jackets", saved.Slug)

	var reloaded models.Category
	require.NoError(t, db.First(&reloaded, "id = ?", category.ID).Error)
	assert.Equal(t, "Coats & Jackets", reloaded.Name)
}

func TestRepositoryDeleteCategoryDetachesProducts(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := &models.Category{ID: uuid.New(), Name: "Mugs", Slug: "mugs"}
	require.NoError(t, db.Create(category).Error)

	product := mustCreateCatalogProduct(t, db, "Stoneware Mug", true, time.Now().UTC())
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("category_id", category.ID).Error)

	require.NoError(t, repo.DeleteCategory(context.Background(), category.ID))

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Where("id = ?", category.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Nil(t, reloaded.CategoryID)
}

func TestRepositoryReplaceVariants(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	product := mustCreateCatalogProduct(t, db, "Jacket", true, time.Now().UTC())
	require.NoError(t, repo.ReplaceVariants(context.Background(), product.ID, []models.ProductVariant{
		{ID: uuid.New(), ProductID: product.ID, Name: "Size", Value: "S"},
		{ID: uuid.New(), ProductID: product.ID, Name: "Size", Value: "M"},
	}))
	require.NoError(t, repo.ReplaceVariants(context.Background(), product.ID, []models.ProductVariant{
		{ID: uuid.New(), ProductID: product.ID, Name: "Size", Value: "L"},
	}))

	var count int64
	require.NoError(t, db.Model(&models.ProductVariant{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
