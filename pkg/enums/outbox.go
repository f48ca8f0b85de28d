package enums

import "fmt"

// OutboxEventType enumerates the domain events recorded by the outbox.
type OutboxEventType string

const (
	OutboxEventCartItemAdded    OutboxEventType = "cart.item_added"
	OutboxEventCheckoutSettled  OutboxEventType = "checkout.settled"
	OutboxEventShopEarningsSet  OutboxEventType = "shop.earnings_updated"
	OutboxEventProductCreated   OutboxEventType = "catalog.product_created"
	OutboxEventProductDeleted   OutboxEventType = "catalog.product_deleted"
	OutboxEventProductReviewed  OutboxEventType = "catalog.product_reviewed"
	OutboxEventShopCreated      OutboxEventType = "shop.created"
	OutboxEventCatalogEntrySet  OutboxEventType = "shop.catalog_entry_set"
	OutboxEventCatalogEntryGone OutboxEventType = "shop.catalog_entry_removed"
)

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateCart    OutboxAggregateType = "cart"
	OutboxAggregateShop    OutboxAggregateType = "shop"
	OutboxAggregateProduct OutboxAggregateType = "product"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	OutboxAggregateCart,
	OutboxAggregateShop,
	OutboxAggregateProduct,
}

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (t OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into an OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validOutboxAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox aggregate type %q", value)
}
