package cart

import (
	"strings"

	"github.com/botiga-dev/botiga-backend/internal/pricing"
	pkgerrors "github.com/botiga-dev/botiga-backend/pkg/errors"
	"github.com/botiga-dev/botiga-backend/pkg/metrics"
)

// Engine orchestrates add-to-cart and checkout for a single session.
// It is pure computation over the in-memory cart; persistence happens
// strictly before or after its operations.
type Engine struct {
	cart         *Cart
	maxLineItems int
	metrics      *metrics.CartMetrics
}

// NewEngine builds an engine with a fresh cart. maxLineItems <= 0
// disables the line limit. Metrics may be nil.
func NewEngine(maxLineItems int, m *metrics.CartMetrics) *Engine {
	return &Engine{
		cart:         NewCart(),
		maxLineItems: maxLineItems,
		metrics:      m,
	}
}

// Cart exposes the engine's cart for snapshots and totals.
func (e *Engine) Cart() *Cart {
	return e.cart
}

// AddItemInput carries the catalog and shop records resolved by the
// caller plus the negotiated price. LoyaltySpend is the customer's
// loyalty accumulator used by LOYALTY shops.
type AddItemInput struct {
	Product      pricing.ProductRecord
	Shop         pricing.ShopRecord
	RawPrice     float64
	LoyaltySpend float64
}

// AddItem merges into an existing line when the product name is already
// present; the raw price is accumulated as-is with no re-taxation.
// Otherwise the shop's discount is applied and a new line is inserted
// with quantity 1.
func (e *Engine) AddItem(in AddItemInput) (*LineItem, error) {
	if existing := e.cart.Find(in.Product.Name); existing != nil {
		item := e.cart.AddOrMerge(in.Product, existing.ShopName, in.RawPrice)
		e.metrics.IncItemAdded(item.ShopName)
		return item, nil
	}

	if e.maxLineItems > 0 && e.cart.Len() >= e.maxLineItems {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line item limit reached")
	}

	price := pricing.ApplyDiscount(in.RawPrice, in.Product, in.Shop, in.LoyaltySpend)
	item := e.cart.AddOrMerge(in.Product, in.Shop.Name, price)
	e.metrics.IncItemAdded(item.ShopName)
	return item, nil
}

// Settlement is the checkout outcome for one shop.
type Settlement struct {
	ShopName     string  `json:"shopName"`
	SettledTotal float64 `json:"settledTotal"`
	NewEarnings  float64 `json:"newEarnings"`
}

// Settle computes the per-shop net totals for every given shop, in
// order, without touching the cart. Line items match their shop by
// name case-insensitively. A shop with no matching lines still settles
// with total 0 and unchanged earnings. Duplicate shop entries settle
// once. An empty cart yields zero totals for every shop.
func (e *Engine) Settle(shops []pricing.ShopRecord) []Settlement {
	settlements := make([]Settlement, 0, len(shops))
	seen := make(map[string]bool, len(shops))

	for _, shop := range shops {
		key := strings.ToLower(shop.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		var total float64
		for _, item := range e.cart.Items() {
			if !strings.EqualFold(item.ShopName, shop.Name) {
				continue
			}
			total += pricing.NetPrice(item.Product.Category, item.Price, item.Product.Ratings.Average())
		}

		settlements = append(settlements, Settlement{
			ShopName:     shop.Name,
			SettledTotal: total,
			NewEarnings:  shop.Earnings + total,
		})
		e.metrics.ObserveSettlement(shop.Name, total)
	}

	return settlements
}

// Checkout settles the given shops and clears the cart. Settlement and
// clearing are inseparable here; callers that persist settlements
// first should use Settle and clear once the write succeeds.
func (e *Engine) Checkout(shops []pricing.ShopRecord) []Settlement {
	settlements := e.Settle(shops)
	e.cart.Clear()
	return settlements
}
