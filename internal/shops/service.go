package shops

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
	"github.com/botiga-dev/botiga-backend/pkg/validation"
)

// Service exposes shop management operations.
type Service interface {
	CreateShop(ctx context.Context, input CreateShopInput) (*models.Shop, error)
	GetShop(ctx context.Context, name string) (pricing.ShopRecord, error)
	ListShops(ctx context.Context) ([]models.Shop, error)
	SetCatalogEntry(ctx context.Context, input SetCatalogEntryInput) (*models.ShopProduct, error)
	CatalogPrice(ctx context.Context, shopName, productName string) (float64, error)
	RemoveCatalogEntry(ctx context.Context, shopName, productName string) error
	UpdateEarnings(ctx context.Context, shopName string, earnings float64) error
}

// CreateShopInput holds the validated payload to create a shop. The
// model parameters only carry meaning for the matching business model:
// LoyaltyThreshold for LOYALTY, SponsorBrand for SPONSORED.
type CreateShopInput struct {
	Name             string              `json:"name" validate:"required"`
	Description      string              `json:"description"`
	FoundedYear      int                 `json:"foundedYear" validate:"gte=0"`
	BusinessModel    enums.BusinessModel `json:"businessModel" validate:"required,oneof=MAX_PROFIT LOYALTY SPONSORED"`
	LoyaltyThreshold float64             `json:"loyaltyThreshold" validate:"gte=0"`
	SponsorBrand     string              `json:"sponsorBrand"`
}

// SetCatalogEntryInput adds or reprices a product in a shop's catalog.
type SetCatalogEntryInput struct {
	ShopName    string  `json:"shopName" validate:"required"`
	ProductName string  `json:"productName" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type productLoader interface {
	GetProduct(ctx context.Context, name string) (pricing.ProductRecord, error)
}

type productFinder interface {
	FindProductID(ctx context.Context, name string) (uuid.UUID, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, in outbox.EmitInput) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	products productLoader
	finder   productFinder
	events   eventEmitter
	logg     *logger.Logger
}

// NewService constructs a shop service instance.
func NewService(repo *Repository, dbClient *db.Client, products productLoader, finder productFinder, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if finder == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		products: products,
		finder:   finder,
		events:   events,
		logg:     logg,
	}, nil
}

// CreateShop inserts a new shop with a unique name and exactly one
// business model, fixed for the shop's lifetime.
func (s *service) CreateShop(ctx context.Context, input CreateShopInput) (*models.Shop, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.BusinessModel == enums.BusinessModelSponsored && input.SponsorBrand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sponsor brand required for sponsored shops")
	}

	ctx = s.logg.WithShop(ctx, input.Name)

	var created *models.Shop
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindByName(ctx, input.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "shop name already in use")
		}

		shop := &models.Shop{
			Name:             input.Name,
			Description:      input.Description,
			FoundedYear:      input.FoundedYear,
			BusinessModel:    input.BusinessModel,
			LoyaltyThreshold: input.LoyaltyThreshold,
		}
		if input.SponsorBrand != "" {
			shop.SponsorBrand = &input.SponsorBrand
		}
		if created, err = txRepo.Create(ctx, shop); err != nil {
			if db.IsUniqueViolation(err, "ux_shops_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "shop name already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventShopCreated,
			AggregateType: enums.OutboxAggregateShop,
			AggregateID:   created.ID,
			Data: map[string]any{
				"name":          created.Name,
				"businessModel": created.BusinessModel.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "shop created")
	return created, nil
}

// GetShop resolves the pricing view of a shop.
func (s *service) GetShop(ctx context.Context, name string) (pricing.ShopRecord, error) {
	shop, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return pricing.ShopRecord{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
	}
	if shop == nil {
		return pricing.ShopRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	return toShopRecord(shop), nil
}

func toShopRecord(shop *models.Shop) pricing.ShopRecord {
	record := pricing.ShopRecord{
		Name:             shop.Name,
		Model:            shop.BusinessModel,
		LoyaltyThreshold: shop.LoyaltyThreshold,
		Earnings:         shop.Earnings,
	}
	if shop.SponsorBrand != nil {
		record.SponsorBrand = *shop.SponsorBrand
	}
	return record
}

// ListShops returns every shop, sorted by name.
func (s *service) ListShops(ctx context.Context) ([]models.Shop, error) {
	shops, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}
	return shops, nil
}

// SetCatalogEntry adds a product to the shop's catalog or reprices it.
// The negotiated price is capped by the product's max price.
func (s *service) SetCatalogEntry(ctx context.Context, input SetCatalogEntryInput) (*models.ShopProduct, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	ctx = s.logg.WithShop(ctx, input.ShopName)
	ctx = s.logg.WithProduct(ctx, input.ProductName)

	product, err := s.products.GetProduct(ctx, input.ProductName)
	if err != nil {
		return nil, err
	}
	if product.MaxPrice > 0 && input.Price > product.MaxPrice {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price exceeds the product max price").
			WithDetails(map[string]any{"maxPrice": product.MaxPrice})
	}

	productID, err := s.finder.FindProductID(ctx, input.ProductName)
	if err != nil {
		return nil, err
	}

	var entry *models.ShopProduct
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		shop, err := txRepo.FindByName(ctx, input.ShopName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
		}
		if shop == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}

		entry, err = txRepo.UpsertCatalogEntry(ctx, &models.ShopProduct{
			ShopID:    shop.ID,
			ProductID: productID,
			Price:     input.Price,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save catalog entry")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventCatalogEntrySet,
			AggregateType: enums.OutboxAggregateShop,
			AggregateID:   shop.ID,
			Data: map[string]any{
				"product": input.ProductName,
				"price":   input.Price,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CatalogPrice returns the shop's negotiated price for a product.
func (s *service) CatalogPrice(ctx context.Context, shopName, productName string) (float64, error) {
	shop, err := s.repo.FindByName(ctx, shopName)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
	}
	if shop == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}

	productID, err := s.finder.FindProductID(ctx, productName)
	if err != nil {
		return 0, err
	}

	entry, err := s.repo.FindCatalogEntry(ctx, shop.ID, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup catalog entry")
	}
	if entry == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "the shop does not sell this product")
	}
	return entry.Price, nil
}

// RemoveCatalogEntry takes a product out of the shop's catalog.
func (s *service) RemoveCatalogEntry(ctx context.Context, shopName, productName string) error {
	ctx = s.logg.WithShop(ctx, shopName)
	ctx = s.logg.WithProduct(ctx, productName)

	productID, err := s.finder.FindProductID(ctx, productName)
	if err != nil {
		return err
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		shop, err := txRepo.FindByName(ctx, shopName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
		}
		if shop == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}

		removed, err := txRepo.DeleteCatalogEntry(ctx, shop.ID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete catalog entry")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "catalog entry not found")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventCatalogEntryGone,
			AggregateType: enums.OutboxAggregateShop,
			AggregateID:   shop.ID,
			Data:          map[string]any{"product": productName},
		})
	})
}

// UpdateEarnings overwrites the shop's stored earnings and emits the
// earnings update event in the same transaction.
func (s *service) UpdateEarnings(ctx context.Context, shopName string, earnings float64) error {
	if earnings < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "earnings cannot be negative")
	}

	ctx = s.logg.WithShop(ctx, shopName)

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		shop, err := txRepo.FindByName(ctx, shopName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
		}
		if shop == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}

		if err := txRepo.UpdateEarnings(ctx, shop.ID, earnings); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update earnings")
		}

		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventShopEarningsSet,
			AggregateType: enums.OutboxAggregateShop,
			AggregateID:   shop.ID,
			Data: map[string]any{
				"shopName": shop.Name,
				"earnings": earnings,
			},
		})
	})
}
