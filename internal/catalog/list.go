package catalog

import (
	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	PriceMinCents *int64     `json:"price_min_cents,omitempty"`
	PriceMaxCents *int64     `json:"price_max_cents,omitempty"`
	Featured      *bool      `json:"featured,omitempty"`
	InStock       *bool      `json:"in_stock,omitempty"`
	Query         string     `json:"q,omitempty"`
}

// ListProductsInput captures the inputs to paginate and filter the catalog.
// IncludeUnpublished is only honored on admin paths.
type ListProductsInput struct {
	Filters            ListFilters
	Pagination         pagination.Params
	IncludeUnpublished bool
}
