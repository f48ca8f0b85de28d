package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/db/models"
)

// Repository provides persistence for catalog products.
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

// FindByName loads a product by name, case-insensitively. Returns
// (nil, nil) when no product matches.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Save persists the current state of the product row.
func (r *Repository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteByName removes a product by name, case-insensitively. Returns
// the number of rows removed.
func (r *Repository) DeleteByName(ctx context.Context, name string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Delete(&models.Product{})
	return result.RowsAffected, result.Error
}

// List returns all products ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

// SearchNameOrBrand returns products whose name or brand contains the
// term, case-insensitively, ordered by name.
func (r *Repository) SearchNameOrBrand(ctx context.Context, term string) ([]models.Product, error) {
	like := "%" + strings.ToLower(term) + "%"
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", like, like).
		Order("name ASC").
		Find(&products).Error
	return products, err
}
