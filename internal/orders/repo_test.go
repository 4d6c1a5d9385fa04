package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			total_cents INTEGER NOT NULL,
			item_count INTEGER NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			payment_method TEXT NOT NULL,
			shipping_name TEXT NOT NULL,
			shipping_line1 TEXT NOT NULL,
			shipping_line2 TEXT,
			shipping_city TEXT NOT NULL,
			shipping_zip TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT,
			product_name TEXT NOT NULL,
			variant_label TEXT,
			unit_price_cents INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			subtotal_cents INTEGER NOT NULL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func mustCreateTestOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        status,
		TotalCents:    2900,
		ItemCount:     3,
		Currency:      enums.CurrencyUSD,
		PaymentMethod: enums.PaymentMethodCard,
		ShippingName:  "Sam Doe",
		ShippingLine1: "1 Main St",
		ShippingCity:  "Springfield",
		ShippingZip:   "12345",
		CreatedAt:     createdAt,
		Items: []models.OrderItem{
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				ProductName:    "Canvas Tote",
				UnitPriceCents: 1000,
				Quantity:       2,
				SubtotalCents:  2000,
			},
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				ProductName:    "Mug",
				UnitPriceCents: 900,
				Quantity:       1,
				SubtotalCents:  900,
			},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrdersRepositoryFindByIDLoadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := mustCreateTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	loaded, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, loaded.UserID)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, int64(2900), loaded.TotalCents)
}

func TestOrdersRepositoryListScopedToUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	mustCreateTestOrder(t, db, userID, enums.OrderStatusPending, base)
	mustCreateTestOrder(t, db, userID, enums.OrderStatusDelivered, base.Add(time.Minute))
	mustCreateTestOrder(t, db, uuid.New(), enums.OrderStatusPending, base.Add(2*time.Minute))

	rows, next, err := repo.List(context.Background(), ListParams{UserID: userID, Limit: 10})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, enums.OrderStatusDelivered, rows[0].Status)
}

func TestOrdersRepositoryListStatusFilterAndCursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mustCreateTestOrder(t, db, userID, enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	pending := enums.OrderStatusPending
	first, next, err := repo.List(context.Background(), ListParams{
		UserID: userID,
		Status: &pending,
		Limit:  2,
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, next)

	second, next, err := repo.List(context.Background(), ListParams{
		UserID: userID,
		Status: &pending,
		Limit:  2,
		Cursor: next,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, next)
	assert.NotEqual(t, first[1].ID, second[0].ID)
}

func TestOrdersRepositoryUpdateStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := mustCreateTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusProcessing))

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, loaded.Status)
}
