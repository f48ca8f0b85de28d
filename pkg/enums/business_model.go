package enums

import "fmt"

// BusinessModel represents the pricing strategy a shop trades under.
type BusinessModel string

const (
	BusinessModelMaxProfit BusinessModel = "MAX_PROFIT"
	BusinessModelLoyalty   BusinessModel = "LOYALTY"
	BusinessModelSponsored BusinessModel = "SPONSORED"
)

var validBusinessModels = []BusinessModel{
	BusinessModelMaxProfit,
	BusinessModelLoyalty,
	BusinessModelSponsored,
}

// String implements fmt.Stringer.
func (m BusinessModel) String() string {
	return string(m)
}

// IsValid reports whether the value is a known BusinessModel.
func (m BusinessModel) IsValid() bool {
	for _, candidate := range validBusinessModels {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseBusinessModel converts raw input into a BusinessModel.
func ParseBusinessModel(value string) (BusinessModel, error) {
	for _, candidate := range validBusinessModels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid business model %q", value)
}
