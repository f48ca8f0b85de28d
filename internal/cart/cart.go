// Package cart holds the in-memory session cart and the engine that
// applies pricing rules on add and settles shops on checkout.
package cart

import (
	"strings"

	"github.com/botiga-dev/botiga-backend/internal/pricing"
)

// LineItem is one consolidated cart entry per distinct product name.
// Price is the accumulated line total across merged adds, not a unit
// price; read Quantity and Price together.
type LineItem struct {
	Product  pricing.ProductRecord
	ShopName string
	Quantity int
	Price    float64
}

// Cart is an ordered sequence of line items, insertion order preserved,
// with at most one line per product name (case-insensitive).
type Cart struct {
	items []*LineItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Find returns the line item for a product name, nil when absent.
func (c *Cart) Find(productName string) *LineItem {
	for _, item := range c.items {
		if strings.EqualFold(item.Product.Name, productName) {
			return item
		}
	}
	return nil
}

// AddOrMerge merges into an existing line with the same product name,
// incrementing its quantity by one and accumulating the price delta.
// Merges never re-apply tax or discounts. When no line matches, the
// item is appended with quantity 1.
func (c *Cart) AddOrMerge(product pricing.ProductRecord, shopName string, price float64) *LineItem {
	if existing := c.Find(product.Name); existing != nil {
		existing.Quantity++
		existing.Price += price
		return existing
	}

	owned := product
	owned.Ratings = product.Ratings.Clone()
	item := &LineItem{
		Product:  owned,
		ShopName: shopName,
		Quantity: 1,
		Price:    price,
	}
	c.items = append(c.items, item)
	return item
}

// Clear empties the cart. Safe to call on an already empty cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Len returns the number of line items.
func (c *Cart) Len() int {
	return len(c.items)
}

// TotalPrice sums all line totals. Prices were adjusted at add time,
// so no further tax or discount math happens here.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.items {
		total += item.Price
	}
	return total
}

// Items returns the line items in insertion order.
func (c *Cart) Items() []*LineItem {
	return c.items
}

// ShopNames returns the distinct shop names present in the cart, in
// first-appearance order.
func (c *Cart) ShopNames() []string {
	var names []string
	for _, item := range c.items {
		found := false
		for _, name := range names {
			if strings.EqualFold(name, item.ShopName) {
				found = true
				break
			}
		}
		if !found {
			names = append(names, item.ShopName)
		}
	}
	return names
}

// SnapshotEntry is the external view of a line item.
type SnapshotEntry struct {
	ProductName string  `json:"productName"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	ShopName    string  `json:"shopName"`
}

// Snapshot returns an ordered copy of the cart for display or
// persistence by collaborators.
func (c *Cart) Snapshot() []SnapshotEntry {
	entries := make([]SnapshotEntry, 0, len(c.items))
	for _, item := range c.items {
		entries = append(entries, SnapshotEntry{
			ProductName: item.Product.Name,
			Brand:       item.Product.Brand,
			Price:       item.Price,
			Quantity:    item.Quantity,
			ShopName:    item.ShopName,
		})
	}
	return entries
}
