package pricing

import (
	"math"
	"testing"

	"github.com/botiga-dev/botiga-backend/pkg/enums"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestRateGeneralIsFixed(t *testing.T) {
	for _, price := range []float64{0, 1, 99.99, 10_000} {
		if got := Rate(enums.ProductCategoryGeneral, price, 5); got != 0.21 {
			t.Fatalf("general rate at price %v: got %v, want 0.21", price, got)
		}
	}
}

func TestRateReducedByRating(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		want   float64
	}{
		{"high rating uses sub-rate", 4.0, 0.05},
		{"low rating uses base rate", 3.0, 0.10},
		{"cutoff tie uses base rate", 3.5, 0.10},
		{"unrated uses base rate", 0, 0.10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rate(enums.ProductCategoryReduced, 50, tt.rating); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateSuperReducedByPrice(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"above cap is exempt", 150, 0},
		{"below cap uses base rate", 50, 0.04},
		{"cap tie uses base rate", 100, 0.04},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rate(enums.ProductCategorySuperReduced, tt.price, 0); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNetPriceGeneralRoundTrips(t *testing.T) {
	gross := 121.0
	net := NetPrice(enums.ProductCategoryGeneral, gross, 0)
	if !almostEqual(net, 100) {
		t.Fatalf("net price: got %v, want 100", net)
	}
	vat := VAT(enums.ProductCategoryGeneral, net, 0)
	if !almostEqual(net+vat, gross) {
		t.Fatalf("net+vat: got %v, want %v", net+vat, gross)
	}
}

func TestNetPriceSuperReducedAboveCapIsIdentity(t *testing.T) {
	if got := NetPrice(enums.ProductCategorySuperReduced, 150, 0); !almostEqual(got, 150) {
		t.Fatalf("got %v, want 150", got)
	}
}

func TestRateUnknownCategoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown category")
		}
	}()
	Rate(enums.ProductCategory("BOGUS"), 10, 0)
}
