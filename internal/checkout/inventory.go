package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/internal/catalog"
	"gorm.io/gorm"
)

// Inventory performs the conditional stock decrements checkout relies on.
// Decrements report false when the row lacked enough stock, without error.
type Inventory interface {
	WithTx(tx *gorm.DB) Inventory
	DecrementProductStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	DecrementVariantStock(ctx context.Context, variantID uuid.UUID, quantity int) (bool, error)
}

type catalogInventory struct {
	repo *catalog.Repository
}

// NewInventory adapts the catalog repository into the checkout inventory.
func NewInventory(repo *catalog.Repository) Inventory {
	return catalogInventory{repo: repo}
}

func (c catalogInventory) WithTx(tx *gorm.DB) Inventory {
	return catalogInventory{repo: c.repo.WithTx(tx)}
}

func (c catalogInventory) DecrementProductStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	return c.repo.DecrementProductStock(ctx, productID, quantity)
}

func (c catalogInventory) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, quantity int) (bool, error) {
	return c.repo.DecrementVariantStock(ctx, variantID, quantity)
}
