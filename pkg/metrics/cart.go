package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records counters and timings for cart and checkout activity.
type CartMetrics struct {
	itemsAdded *prometheus.CounterVec
	checkouts  *prometheus.CounterVec
	settled    *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	itemsAdded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_items_added",
		Help: "Line items added to carts.",
	}, []string{"shop"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_checkouts",
		Help: "Checkout settlements by outcome.",
	}, []string{"outcome"})
	settled := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_settled_total",
		Help:    "Net amount settled per shop at checkout.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"shop"})
	reg.MustRegister(itemsAdded, checkouts, settled)
	return &CartMetrics{
		itemsAdded: itemsAdded,
		checkouts:  checkouts,
		settled:    settled,
	}
}

// IncItemAdded increments the added-items counter for the named shop.
func (c *CartMetrics) IncItemAdded(shop string) {
	if c == nil || c.itemsAdded == nil {
		return
	}
	c.itemsAdded.WithLabelValues(normalizeLabel(shop)).Inc()
}

// IncCheckout increments the checkout counter for the given outcome.
func (c *CartMetrics) IncCheckout(outcome string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveSettlement records the settled amount for the named shop.
func (c *CartMetrics) ObserveSettlement(shop string, amount float64) {
	if c == nil || c.settled == nil {
		return
	}
	c.settled.WithLabelValues(normalizeLabel(shop)).Observe(amount)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
