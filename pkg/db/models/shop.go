package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/enums"
)

// Shop represents a storefront and its pricing strategy. Exactly one business
// model is assigned at creation; LoyaltyThreshold and SponsorBrand only carry
// meaning for the matching model.
type Shop struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name             string              `gorm:"column:name;not null;uniqueIndex:ux_shops_name"`
	Description      string              `gorm:"column:description;not null"`
	FoundedYear      int                 `gorm:"column:founded_year;not null"`
	Earnings         float64             `gorm:"column:earnings;type:numeric(14,2);not null;default:0"`
	BusinessModel    enums.BusinessModel `gorm:"column:business_model;not null"`
	LoyaltyThreshold float64             `gorm:"column:loyalty_threshold;type:numeric(12,2);not null;default:0"`
	SponsorBrand     *string             `gorm:"column:sponsor_brand"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key for drivers without a uuid default.
func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
