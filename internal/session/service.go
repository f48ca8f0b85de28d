// Package session owns one customer's cart for the lifetime of a
// shopping session and wires the pure cart engine to the catalog,
// shop, and checkout services around it.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/internal/cart"
	"github.com/botiga-dev/botiga-backend/internal/checkout"
	"github.com/botiga-dev/botiga-backend/internal/pricing"
	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	pkgerrors "github.com/botiga-dev/botiga-backend/pkg/errors"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/metrics"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
)

// Service drives a single session cart.
type Service interface {
	AddItem(ctx context.Context, shopName, productName string) (*cart.LineItem, error)
	Snapshot() []cart.SnapshotEntry
	TotalPrice() float64
	Empty()
	Checkout(ctx context.Context, shopNames []string) ([]cart.Settlement, error)
}

type productLoader interface {
	GetProduct(ctx context.Context, name string) (pricing.ProductRecord, error)
}

type shopGateway interface {
	GetShop(ctx context.Context, name string) (pricing.ShopRecord, error)
	CatalogPrice(ctx context.Context, shopName, productName string) (float64, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, in outbox.EmitInput) error
}

type service struct {
	id       uuid.UUID
	engine   *cart.Engine
	dbClient *db.Client
	catalog  productLoader
	shops    shopGateway
	checkout checkout.Service
	events   eventEmitter
	logg     *logger.Logger
}

// NewService opens a session with an empty cart. maxLineItems <= 0
// disables the line limit; metrics may be nil.
func NewService(dbClient *db.Client, catalog productLoader, shops shopGateway, checkoutSvc checkout.Service, events eventEmitter, maxLineItems int, m *metrics.CartMetrics, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop gateway required")
	}
	if checkoutSvc == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		id:       uuid.New(),
		engine:   cart.NewEngine(maxLineItems, m),
		dbClient: dbClient,
		catalog:  catalog,
		shops:    shops,
		checkout: checkoutSvc,
		events:   events,
		logg:     logg,
	}, nil
}

// AddItem resolves the product and shop records, prices the item at
// the shop's catalog price, and adds it to the cart. The customer's
// loyalty accumulator is the cart total before the add.
func (s *service) AddItem(ctx context.Context, shopName, productName string) (*cart.LineItem, error) {
	ctx = s.logg.WithSession(ctx, s.id.String())
	ctx = s.logg.WithShop(ctx, shopName)
	ctx = s.logg.WithProduct(ctx, productName)

	product, err := s.catalog.GetProduct(ctx, productName)
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.GetShop(ctx, shopName)
	if err != nil {
		return nil, err
	}
	price, err := s.shops.CatalogPrice(ctx, shopName, productName)
	if err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog price cannot be negative")
	}

	item, err := s.engine.AddItem(cart.AddItemInput{
		Product:      product,
		Shop:         shop,
		RawPrice:     price,
		LoyaltySpend: s.engine.Cart().TotalPrice(),
	})
	if err != nil {
		return nil, err
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, outbox.EmitInput{
			EventType:     enums.OutboxEventCartItemAdded,
			AggregateType: enums.OutboxAggregateCart,
			AggregateID:   s.id,
			Data: map[string]any{
				"product":  item.Product.Name,
				"shop":     item.ShopName,
				"quantity": item.Quantity,
				"price":    item.Price,
			},
		})
	})
	if err != nil {
		s.logg.Warn(ctx, "cart item event not recorded")
	}

	s.logg.Info(ctx, "item added to cart")
	return item, nil
}

// Snapshot returns the ordered cart view.
func (s *service) Snapshot() []cart.SnapshotEntry {
	return s.engine.Cart().Snapshot()
}

// TotalPrice returns the running cart total.
func (s *service) TotalPrice() float64 {
	return s.engine.Cart().TotalPrice()
}

// Empty discards the cart contents without settling.
func (s *service) Empty() {
	s.engine.Cart().Clear()
}

// Checkout settles the cart for the named shops; when no names are
// given, every shop present in the cart settles in insertion order.
func (s *service) Checkout(ctx context.Context, shopNames []string) ([]cart.Settlement, error) {
	ctx = s.logg.WithSession(ctx, s.id.String())
	if len(shopNames) == 0 {
		shopNames = s.engine.Cart().ShopNames()
	}
	if len(shopNames) == 0 {
		return nil, nil
	}
	return s.checkout.Checkout(ctx, s.engine, shopNames)
}
