// Package checkout settles the session cart against stored shop
// earnings and records the outcome atomically.
package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/internal/cart"
	"github.com/botiga-dev/botiga-backend/internal/pricing"
	"github.com/botiga-dev/botiga-backend/internal/shops"
	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	pkgerrors "github.com/botiga-dev/botiga-backend/pkg/errors"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/metrics"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
)

// Service runs the checkout protocol for a session cart.
type Service interface {
	Checkout(ctx context.Context, engine *cart.Engine, shopNames []string) ([]cart.Settlement, error)
}

type shopLoader interface {
	GetShop(ctx context.Context, name string) (pricing.ShopRecord, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, in outbox.EmitInput) error
}

type service struct {
	dbClient *db.Client
	shopRepo *shops.Repository
	shops    shopLoader
	events   eventEmitter
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
}

// NewService constructs a checkout service instance. Metrics may be nil.
func NewService(dbClient *db.Client, shopRepo *shops.Repository, loader shopLoader, events eventEmitter, m *metrics.CartMetrics, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if shopRepo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if loader == nil {
		return nil, fmt.Errorf("shop loader required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		dbClient: dbClient,
		shopRepo: shopRepo,
		shops:    loader,
		events:   events,
		metrics:  m,
		logg:     logg,
	}, nil
}

// Checkout settles the cart for the named shops. Every shop's new
// earnings and a settlement event are written in one transaction; the
// cart is cleared only after the write commits, so a failed checkout
// leaves the cart intact. Shops with no cart lines still settle with
// total 0 and emit an event. Reported amounts are rounded to cents.
func (s *service) Checkout(ctx context.Context, engine *cart.Engine, shopNames []string) ([]cart.Settlement, error) {
	if engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart engine is required")
	}
	if len(shopNames) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shop is required")
	}

	records, err := s.loadShops(ctx, shopNames)
	if err != nil {
		s.metrics.IncCheckout("rejected")
		return nil, err
	}

	settlements := engine.Settle(records)
	for i := range settlements {
		settlements[i].SettledTotal = roundCents(settlements[i].SettledTotal)
		settlements[i].NewEarnings = roundCents(settlements[i].NewEarnings)
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.shopRepo.WithTx(tx)

		for _, settlement := range settlements {
			shop, err := txRepo.FindByName(ctx, settlement.ShopName)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shop")
			}
			if shop == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
			}

			if err := txRepo.UpdateEarnings(ctx, shop.ID, settlement.NewEarnings); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update earnings")
			}

			if err := s.events.Emit(ctx, tx, outbox.EmitInput{
				EventType:     enums.OutboxEventCheckoutSettled,
				AggregateType: enums.OutboxAggregateShop,
				AggregateID:   shop.ID,
				Data: map[string]any{
					"shopName":     settlement.ShopName,
					"settledTotal": settlement.SettledTotal,
					"newEarnings":  settlement.NewEarnings,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, err
	}

	engine.Cart().Clear()
	s.metrics.IncCheckout("success")

	for _, settlement := range settlements {
		shopCtx := s.logg.WithFields(ctx, map[string]any{
			"shop":          settlement.ShopName,
			"settled_total": settlement.SettledTotal,
			"new_earnings":  settlement.NewEarnings,
		})
		s.logg.Info(shopCtx, "shop settled")
	}
	return settlements, nil
}

// loadShops resolves every requested shop, collecting all lookup
// failures instead of stopping at the first.
func (s *service) loadShops(ctx context.Context, names []string) ([]pricing.ShopRecord, error) {
	var (
		records []pricing.ShopRecord
		errs    error
	)
	for _, name := range names {
		record, err := s.shops.GetShop(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shop %q: %w", name, err))
			continue
		}
		records = append(records, record)
	}
	if errs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "unresolvable shops in checkout")
	}
	return records, nil
}

func roundCents(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
