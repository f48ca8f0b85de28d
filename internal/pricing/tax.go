package pricing

import (
	"fmt"

	"github.com/botiga-dev/botiga-backend/pkg/enums"
)

const (
	generalRate          = 0.21
	reducedRate          = 0.10
	reducedSubRate       = 0.05
	superReducedRate     = 0.04
	reducedRatingCutoff  = 3.5
	superReducedPriceCap = 100.0
)

// Rate returns the VAT rate applicable to a category for the given
// tax-relevant price and average product rating. The lookup is total:
// every valid category maps to exactly one rate.
//
// REDUCED drops from 10% to 5% when the average rating strictly exceeds
// 3.5. SUPER_REDUCED drops from 4% to 0% when the price strictly
// exceeds 100. Unrated products average 0 and keep the base rate.
func Rate(category enums.ProductCategory, price float64, averageRating float64) float64 {
	switch category {
	case enums.ProductCategoryGeneral:
		return generalRate
	case enums.ProductCategoryReduced:
		if averageRating > reducedRatingCutoff {
			return reducedSubRate
		}
		return reducedRate
	case enums.ProductCategorySuperReduced:
		if price > superReducedPriceCap {
			return 0
		}
		return superReducedRate
	default:
		panic(fmt.Sprintf("pricing: unknown product category %q", category))
	}
}

// NetPrice removes VAT from a gross price using the category rate.
func NetPrice(category enums.ProductCategory, gross float64, averageRating float64) float64 {
	rate := Rate(category, gross, averageRating)
	return gross / (1 + rate)
}

// VAT computes the tax amount to add on top of a net price.
func VAT(category enums.ProductCategory, net float64, averageRating float64) float64 {
	return net * Rate(category, net, averageRating)
}
