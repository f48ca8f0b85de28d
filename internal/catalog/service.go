package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/internal/pricing"
	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	pkgerrors "github.com/botiga-dev/botiga-backend/pkg/errors"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
	"github.com/botiga-dev/botiga-backend/pkg/types"
	"github.com/botiga-dev/botiga-backend/pkg/validation"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, name string) error
	GetProduct(ctx context.Context, name string) (pricing.ProductRecord, error)
	FindProductID(ctx context.Context, name string) (uuid.UUID, error)
	ListProductNames(ctx context.Context) ([]string, error)
	ListBrands(ctx context.Context) ([]string, error)
	SearchProducts(ctx context.Context, term string) ([]models.Product, error)
	AddRating(ctx context.Context, name string, rating string) error
	AverageRating(ctx context.Context, name string) (float64, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name     string                `json:"name" validate:"required"`
	Brand    string                `json:"brand"`
	Category enums.ProductCategory `json:"category" validate:"required,oneof=GENERAL REDUCED SUPER_REDUCED"`
	MaxPrice float64               `json:"maxPrice" validate:"gte=0"`
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, in outbox.EmitInput) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	events   eventEmitter
	logg     *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, events: events, logg: logg}, nil
}

// CreateProduct inserts a new catalog product with a unique name.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	ctx = s.logg.WithProduct(ctx, input.Name)

	var created *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindByName(ctx, input.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "product name already in use")
		}

		product := &models.Product{
			Name:     input.Name,
			Brand:    input.Brand,
			Category: input.Category,
			MaxPrice: input.MaxPrice,
			Ratings:  types.Ratings{},
		}
		if created, err = txRepo.Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "ux_products_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product name already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventProductCreated,
			AggregateType: enums.OutboxAggregateProduct,
			AggregateID:   created.ID,
			Data: map[string]any{
				"name":     created.Name,
				"brand":    created.Brand,
				"category": created.Category.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "product created")
	return created, nil
}

// DeleteProduct removes a product by name.
func (s *service) DeleteProduct(ctx context.Context, name string) error {
	ctx = s.logg.WithProduct(ctx, name)

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindByName(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		if _, err := txRepo.DeleteByName(ctx, name); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventProductDeleted,
			AggregateType: enums.OutboxAggregateProduct,
			AggregateID:   existing.ID,
			Data:          map[string]any{"name": existing.Name},
		})
	})
}

// GetProduct resolves the pricing view of a product.
func (s *service) GetProduct(ctx context.Context, name string) (pricing.ProductRecord, error) {
	product, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return pricing.ProductRecord{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if product == nil {
		return pricing.ProductRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pricing.ProductRecord{
		Name:     product.Name,
		Brand:    product.Brand,
		Category: product.Category,
		MaxPrice: product.MaxPrice,
		Ratings:  product.Ratings.Clone(),
	}, nil
}

// FindProductID resolves the primary key for a product name.
func (s *service) FindProductID(ctx context.Context, name string) (uuid.UUID, error) {
	product, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if product == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product.ID, nil
}

// ListProductNames returns every catalog product name, sorted.
func (s *service) ListProductNames(ctx context.Context) ([]string, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names, nil
}

// ListBrands returns the distinct brands in the catalog, keeping the
// order of the first product carrying each brand.
func (s *service) ListBrands(ctx context.Context) ([]string, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	seen := make(map[string]bool, len(products))
	var brands []string
	for _, p := range products {
		if p.Brand == "" || seen[p.Brand] {
			continue
		}
		seen[p.Brand] = true
		brands = append(brands, p.Brand)
	}
	return brands, nil
}

// SearchProducts matches products whose name or brand contains the term.
func (s *service) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	if term == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}
	products, err := s.repo.SearchNameOrBrand(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return products, nil
}

// AddRating appends a rating string to the product. Malformed ratings
// are stored as-is; the average computation skips them later.
func (s *service) AddRating(ctx context.Context, name string, rating string) error {
	if rating == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating is required")
	}

	ctx = s.logg.WithProduct(ctx, name)

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByName(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		product.Ratings = append(product.Ratings, rating)
		if _, err := txRepo.Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventProductReviewed,
			AggregateType: enums.OutboxAggregateProduct,
			AggregateID:   product.ID,
			Data:          map[string]any{"name": product.Name, "rating": rating},
		})
	})
}

// AverageRating returns the mean of the leading digits across the
// product's ratings, 0 when none parse.
func (s *service) AverageRating(ctx context.Context, name string) (float64, error) {
	product, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if product == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product.Ratings.Average(), nil
}
