package wishlist

import (
	"time"

	"github.com/northwindlabs/storefront/internal/catalog"
)

// ItemDTO pairs a liked product summary with when it was liked.
type ItemDTO struct {
	Product catalog.ProductSummary `json:"product"`
	LikedAt time.Time              `json:"liked_at"`
}

// PageDTO is one page of a user's wishlist, newest likes first.
type PageDTO struct {
	Items      []ItemDTO `json:"items"`
	Total      int64     `json:"total"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
