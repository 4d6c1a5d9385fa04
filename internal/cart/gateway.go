package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"gorm.io/gorm"
)

// Gateway is the engine's view of the server-side cart store. It is the only
// place raw rows are translated into Lines, so every caller sees the same
// normalized shape. Upsert is quantity-agnostic: it writes the final quantity
// the engine computed, whether that came from an increment or an exact set.
type Gateway interface {
	List(ctx context.Context, userID uuid.UUID) ([]Line, error)
	Upsert(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, userID, lineID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

// GormGateway persists cart lines in Postgres via GORM.
type GormGateway struct {
	db *gorm.DB
}

// NewGormGateway constructs the gateway bound to the provided GORM DB.
func NewGormGateway(db *gorm.DB) (*GormGateway, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	return &GormGateway{db: db}, nil
}

// List returns the user's cart lines ordered oldest first. Rows whose product
// snapshot can no longer be resolved are dropped rather than surfaced broken.
func (g *GormGateway) List(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var rows []models.CartItem
	err := g.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Variants").
		Preload("Product.Images").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		line, ok := normalizeRow(row)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Upsert writes the final quantity for the (user, product, variant) line,
// creating the row when absent.
func (g *GormGateway) Upsert(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	query := g.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	var existing models.CartItem
	err := query.First(&existing).Error
	switch {
	case err == nil:
		update := g.db.WithContext(ctx).
			Model(&models.CartItem{}).
			Where("id = ?", existing.ID).
			Update("quantity", quantity)
		if update.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, update.Error, "update cart item")
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.CartItem{
			UserID:    userID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		}
		if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
	}
}

// DeleteLine removes a single line. A missing row surfaces as NotFound so the
// engine can decide whether that matters.
func (g *GormGateway) DeleteLine(ctx context.Context, userID, lineID uuid.UUID) error {
	res := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete cart item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// DeleteAll removes every line for the user in one statement.
func (g *GormGateway) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	res := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete cart items")
	}
	return nil
}

// normalizeRow maps a stored row onto the shared Line shape. Rows that lost
// their product, or reference a variant that no longer exists, are dropped.
func normalizeRow(row models.CartItem) (Line, bool) {
	if row.Product == nil || row.Quantity <= 0 {
		return Line{}, false
	}

	line := Line{
		ID:             row.ID.String(),
		ProductID:      row.ProductID,
		VariantID:      row.VariantID,
		ProductName:    row.Product.Name,
		UnitPriceCents: row.Product.PriceCents,
		Quantity:       row.Quantity,
		Currency:       row.Product.Currency,
	}

	if row.VariantID != nil {
		found := false
		for _, variant := range row.Product.Variants {
			if variant.ID == *row.VariantID {
				label := variant.Name + ": " + variant.Value
				line.VariantLabel = &label
				line.VariantModifierCents = variant.PriceModifierCents
				found = true
				break
			}
		}
		if !found {
			return Line{}, false
		}
	}

	for _, image := range row.Product.Images {
		if image.Position == 0 {
			url := image.URL
			line.ImageURL = &url
			break
		}
	}

	return line, true
}
