package wishlist

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/internal/catalog"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/pagination"
	"gorm.io/gorm"
)

const leadImageClause = "(SELECT i.url FROM product_images i WHERE i.product_id = p.id ORDER BY i.position ASC LIMIT 1)"
const variantExistsClause = "EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id)"

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, user_id, product_id) VALUES (?, ?, ?) ON CONFLICT (user_id, product_id) DO NOTHING`,
			uuid.New(), userID, productID).
		Error
}

// RemoveItem deletes the user-product like if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).
		Error
}

// Contains reports whether the user already liked the product.
func (r *Repository) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).
		Error
	return count > 0, err
}

// ListItems returns one page of liked products for a user.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return PageDTO{}, err
	}

	selectColumns := []string{
		"wi.id AS wishlist_id",
		"wi.created_at AS wishlist_created_at",
		"p.id AS product_id",
		"p.sku",
		"p.name",
		"p.price_cents",
		"p.compare_at_price_cents",
		"p.currency",
		"p.is_featured",
		"p.created_at AS product_created_at",
		variantExistsClause + " AS has_variants",
		leadImageClause + " AS lead_image_url",
	}

	query := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN products p ON p.id = wi.product_id").
		Where("wi.user_id = ?", userID)

	if decodedCursor != nil {
		query = query.Where("(wi.created_at < ?) OR (wi.created_at = ? AND wi.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}
	query = query.Order("wi.created_at DESC").Order("wi.id DESC").Limit(limitWithBuffer)

	var records []wishlistItemRecord
	if err := query.Scan(&records).Error; err != nil {
		return PageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.WishlistCreatedAt,
			ID:        last.WishlistID,
		})
	}

	items := make([]ItemDTO, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, record.toDTO())
	}

	total, err := r.countItems(ctx, userID)
	if err != nil {
		return PageDTO{}, err
	}

	return PageDTO{Items: items, Total: total, NextCursor: nextCursor}, nil
}

func (r *Repository) countItems(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

type wishlistItemRecord struct {
	WishlistID          uuid.UUID      `gorm:"column:wishlist_id"`
	WishlistCreatedAt   time.Time      `gorm:"column:wishlist_created_at"`
	ProductID           uuid.UUID      `gorm:"column:product_id"`
	SKU                 string         `gorm:"column:sku"`
	Name                string         `gorm:"column:name"`
	PriceCents          int64          `gorm:"column:price_cents"`
	CompareAtPriceCents sql.NullInt64  `gorm:"column:compare_at_price_cents"`
	Currency            string         `gorm:"column:currency"`
	IsFeatured          bool           `gorm:"column:is_featured"`
	HasVariants         bool           `gorm:"column:has_variants"`
	LeadImageURL        sql.NullString `gorm:"column:lead_image_url"`
	ProductCreatedAt    time.Time      `gorm:"column:product_created_at"`
}

func (r wishlistItemRecord) toDTO() ItemDTO {
	return ItemDTO{
		Product: catalog.ProductSummary{
			ID:                  r.ProductID,
			SKU:                 r.SKU,
			Name:                r.Name,
			PriceCents:          r.PriceCents,
			CompareAtPriceCents: nullInt64Ptr(r.CompareAtPriceCents),
			Currency:            r.Currency,
			IsFeatured:          r.IsFeatured,
			HasVariants:         r.HasVariants,
			LeadImageURL:        nullStringPtr(r.LeadImageURL),
			CreatedAt:           r.ProductCreatedAt,
		},
		LikedAt: r.WishlistCreatedAt,
	}
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullInt64Ptr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
