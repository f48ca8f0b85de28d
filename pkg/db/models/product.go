package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/enums"
	"github.com/botiga-dev/botiga-backend/pkg/types"
)

// Product represents a catalog listing. The name is the unique business key;
// lookups against it are case-insensitive.
type Product struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name      string                `gorm:"column:name;not null;uniqueIndex:ux_products_name"`
	Brand     string                `gorm:"column:brand;not null"`
	Category  enums.ProductCategory `gorm:"column:category;not null"`
	MaxPrice  float64               `gorm:"column:max_price;type:numeric(12,2);not null"`
	Ratings   types.Ratings         `gorm:"column:ratings;type:jsonb;serializer:json"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key so inserts behave the same on the
// sqlite test driver, which has no gen_random_uuid().
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
