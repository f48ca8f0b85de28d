package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShopProduct is a shop catalog entry: one product sold at one shop at a
// negotiated price. The price never exceeds the product's max price; the
// shops service enforces the cap before writing.
type ShopProduct struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShopID    uuid.UUID `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:ux_shop_products_shop_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_shop_products_shop_product"`
	Price     float64   `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key for drivers without a uuid default.
func (sp *ShopProduct) BeforeCreate(tx *gorm.DB) error {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	return nil
}
