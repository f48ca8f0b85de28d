// Package pricing implements the tax and discount rules applied when a
// product is offered for sale by a shop. Everything here is pure
// computation; loading records and persisting outcomes is the caller's
// concern.
package pricing

import (
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	"github.com/botiga-dev/botiga-backend/pkg/types"
)

// ProductRecord is the catalog view of a product used for pricing.
type ProductRecord struct {
	Name     string
	Brand    string
	Category enums.ProductCategory
	MaxPrice float64
	Ratings  types.Ratings
}

// ShopRecord is the shop view used to select and parameterize a
// discount strategy.
type ShopRecord struct {
	Name             string
	Model            enums.BusinessModel
	LoyaltyThreshold float64
	SponsorBrand     string
	Earnings         float64
}
