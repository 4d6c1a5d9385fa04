package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupWishlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			category_id TEXT,
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
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS product_images (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			url TEXT NOT NULL,
			alt_text TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS wishlist_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, product_id)
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func mustCreateWishlistProduct(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	err := db.Exec(
		`INSERT INTO products (id, sku, name, price_cents, currency, stock, is_published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'USD', 10, 1, ?, ?)`,
		id, "SKU-"+id.String()[:8], name, 1000, time.Now().UTC(), time.Now().UTC(),
	).Error
	require.NoError(t, err)
	return id
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	productID := mustCreateWishlistProduct(t, db, "Canvas Tote")

	require.NoError(t, repo.AddItem(context.Background(), userID, productID))
	require.NoError(t, repo.AddItem(context.Background(), userID, productID))

	page, err := repo.ListItems(context.Background(), userID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Canvas Tote", page.Items[0].Product.Name)
}

func TestWishlistRemoveIsIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	productID := mustCreateWishlistProduct(t, db, "Mug")
	require.NoError(t, repo.AddItem(context.Background(), userID, productID))

	require.NoError(t, repo.RemoveItem(context.Background(), userID, productID))
	require.NoError(t, repo.RemoveItem(context.Background(), userID, productID))

	contains, err := repo.Contains(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestWishlistListScopedToUser(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	otherID := uuid.New()
	mine := mustCreateWishlistProduct(t, db, "Mine")
	theirs := mustCreateWishlistProduct(t, db, "Theirs")
	require.NoError(t, repo.AddItem(context.Background(), userID, mine))
	require.NoError(t, repo.AddItem(context.Background(), otherID, theirs))

	page, err := repo.ListItems(context.Background(), userID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine, page.Items[0].Product.ID)
}

func TestWishlistListRejectsBadCursor(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)

	_, err := repo.ListItems(context.Background(), uuid.New(), "%%%", 10)
	require.Error(t, err)
}
