package pricing

import (
	"fmt"
	"strings"

	"github.com/botiga-dev/botiga-backend/pkg/enums"
)

const sponsoredMultiplier = 0.9

// ApplyDiscount maps a price through the shop's business-model effect.
// It never increases the price and never returns a negative value.
//
// LOYALTY strips the category VAT from the price when the caller's
// loyalty accumulator strictly exceeds the shop threshold; ties do not
// trigger. SPONSORED takes 10% off when the product brand matches the
// sponsor brand case-insensitively. MAX_PROFIT leaves the price alone.
func ApplyDiscount(price float64, product ProductRecord, shop ShopRecord, loyaltySpend float64) float64 {
	var adjusted float64
	switch shop.Model {
	case enums.BusinessModelMaxProfit:
		adjusted = price
	case enums.BusinessModelLoyalty:
		adjusted = price
		if loyaltySpend > shop.LoyaltyThreshold {
			adjusted = NetPrice(product.Category, price, product.Ratings.Average())
		}
	case enums.BusinessModelSponsored:
		adjusted = price
		if shop.SponsorBrand != "" && strings.EqualFold(product.Brand, shop.SponsorBrand) {
			adjusted = price * sponsoredMultiplier
		}
	default:
		panic(fmt.Sprintf("pricing: unknown business model %q", shop.Model))
	}

	if adjusted < 0 {
		return 0
	}
	return adjusted
}
