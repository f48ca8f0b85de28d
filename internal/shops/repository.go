package shops

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/db/models"
)

// Repository provides persistence for shops and their catalog entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByName loads a shop by name, case-insensitively. Returns
// (nil, nil) when no shop matches.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// Create inserts a new shop row.
func (r *Repository) Create(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// List returns all shops ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).Order("name ASC").Find(&shops).Error
	return shops, err
}

// UpdateEarnings overwrites the stored earnings for a shop.
func (r *Repository) UpdateEarnings(ctx context.Context, shopID uuid.UUID, earnings float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("id = ?", shopID).
		Update("earnings", earnings)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindCatalogEntry loads the shop's entry for a product, (nil, nil)
// when the shop does not sell it.
func (r *Repository) FindCatalogEntry(ctx context.Context, shopID, productID uuid.UUID) (*models.ShopProduct, error) {
	var entry models.ShopProduct
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertCatalogEntry creates or reprices the shop's entry for a product.
func (r *Repository) UpsertCatalogEntry(ctx context.Context, entry *models.ShopProduct) (*models.ShopProduct, error) {
	existing, err := r.FindCatalogEntry(ctx, entry.ShopID, entry.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Price = entry.Price
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteCatalogEntry removes the shop's entry for a product. Returns
// the number of rows removed.
func (r *Repository) DeleteCatalogEntry(ctx context.Context, shopID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Delete(&models.ShopProduct{})
	return result.RowsAffected, result.Error
}

// ListCatalogEntries returns the shop's entries ordered by creation.
func (r *Repository) ListCatalogEntries(ctx context.Context, shopID uuid.UUID) ([]models.ShopProduct, error) {
	var entries []models.ShopProduct
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
