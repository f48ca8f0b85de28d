package session

import (
	"context"
	"io"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/internal/cart"
	"github.com/botiga-dev/botiga-backend/internal/pricing"
	"github.com/botiga-dev/botiga-backend/pkg/config"
	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	pkgerrors "github.com/botiga-dev/botiga-backend/pkg/errors"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
)

type stubWorld struct {
	products map[string]pricing.ProductRecord
	shops    map[string]pricing.ShopRecord
	prices   map[string]float64 // "shop/product"
}

func newStubWorld() *stubWorld {
	return &stubWorld{
		products: map[string]pricing.ProductRecord{},
		shops:    map[string]pricing.ShopRecord{},
		prices:   map[string]float64{},
	}
}

func (w *stubWorld) sell(shop pricing.ShopRecord, product pricing.ProductRecord, price float64) {
	w.products[strings.ToLower(product.Name)] = product
	w.shops[strings.ToLower(shop.Name)] = shop
	w.prices[strings.ToLower(shop.Name)+"/"+strings.ToLower(product.Name)] = price
}

func (w *stubWorld) GetProduct(_ context.Context, name string) (pricing.ProductRecord, error) {
	record, ok := w.products[strings.ToLower(name)]
	if !ok {
		return pricing.ProductRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return record, nil
}

func (w *stubWorld) GetShop(_ context.Context, name string) (pricing.ShopRecord, error) {
	record, ok := w.shops[strings.ToLower(name)]
	if !ok {
		return pricing.ShopRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	return record, nil
}

func (w *stubWorld) CatalogPrice(_ context.Context, shopName, productName string) (float64, error) {
	price, ok := w.prices[strings.ToLower(shopName)+"/"+strings.ToLower(productName)]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "the shop does not sell this product")
	}
	return price, nil
}

type stubCheckout struct {
	calls [][]string
}

func (c *stubCheckout) Checkout(_ context.Context, engine *cart.Engine, shopNames []string) ([]cart.Settlement, error) {
	c.calls = append(c.calls, shopNames)
	settlements := make([]cart.Settlement, 0, len(shopNames))
	for _, name := range shopNames {
		settlements = append(settlements, cart.Settlement{ShopName: name})
	}
	engine.Cart().Clear()
	return settlements, nil
}

type recordingEmitter struct {
	events []outbox.EmitInput
}

func (e *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, in outbox.EmitInput) error {
	e.events = append(e.events, in)
	return nil
}

func newTestService(t *testing.T, world *stubWorld) (Service, *recordingEmitter, *stubCheckout) {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:?cache=shared",
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	if err := client.DB().AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	emitter := &recordingEmitter{}
	checkoutSvc := &stubCheckout{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(client, world, world, checkoutSvc, emitter, 0, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, emitter, checkoutSvc
}

func TestAddItemUsesCatalogPriceAndEmitsEvent(t *testing.T) {
	world := newStubWorld()
	world.sell(
		pricing.ShopRecord{Name: "Botiga Nord", Model: enums.BusinessModelMaxProfit},
		pricing.ProductRecord{Name: "Pasta", Brand: "Gallo", Category: enums.ProductCategoryGeneral},
		7.5,
	)
	svc, emitter, _ := newTestService(t, world)

	item, err := svc.AddItem(context.Background(), "Botiga Nord", "Pasta")
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.Price != 7.5 || item.Quantity != 1 {
		t.Fatalf("unexpected line: %+v", item)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.OutboxEventCartItemAdded {
		t.Fatalf("expected cart item event, got %+v", emitter.events)
	}
	if svc.TotalPrice() != 7.5 {
		t.Fatalf("total: got %v, want 7.5", svc.TotalPrice())
	}
}

func TestAddItemLoyaltyAccumulatorIsPriorCartTotal(t *testing.T) {
	world := newStubWorld()
	loyal := pricing.ShopRecord{
		Name:             "Botiga Nord",
		Model:            enums.BusinessModelLoyalty,
		LoyaltyThreshold: 100,
	}
	world.sell(loyal, pricing.ProductRecord{Name: "Pasta", Category: enums.ProductCategoryGeneral}, 121)
	world.sell(loyal, pricing.ProductRecord{Name: "Rice", Category: enums.ProductCategoryGeneral}, 121)
	svc, _, _ := newTestService(t, world)
	ctx := context.Background()

	// first add: accumulator 0, no discount
	first, err := svc.AddItem(ctx, "Botiga Nord", "Pasta")
	if err != nil {
		t.Fatalf("add pasta: %v", err)
	}
	if first.Price != 121 {
		t.Fatalf("first price: got %v, want 121", first.Price)
	}

	// second add: accumulator 121 > 100, VAT stripped
	second, err := svc.AddItem(ctx, "Botiga Nord", "Rice")
	if err != nil {
		t.Fatalf("add rice: %v", err)
	}
	if second.Price < 99.99 || second.Price > 100.01 {
		t.Fatalf("second price: got %v, want 100", second.Price)
	}
}

func TestAddItemUnknownProductOrShop(t *testing.T) {
	world := newStubWorld()
	world.sell(
		pricing.ShopRecord{Name: "Botiga Nord", Model: enums.BusinessModelMaxProfit},
		pricing.ProductRecord{Name: "Pasta", Category: enums.ProductCategoryGeneral},
		5,
	)
	svc, _, _ := newTestService(t, world)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "Botiga Nord", "Ghost"); err == nil {
		t.Fatal("expected error for unknown product")
	}
	if _, err := svc.AddItem(ctx, "Ghost Shop", "Pasta"); err == nil {
		t.Fatal("expected error for unknown shop")
	}
}

func TestCheckoutDefaultsToCartShops(t *testing.T) {
	world := newStubWorld()
	world.sell(
		pricing.ShopRecord{Name: "Botiga Nord", Model: enums.BusinessModelMaxProfit},
		pricing.ProductRecord{Name: "Pasta", Category: enums.ProductCategoryGeneral},
		5,
	)
	svc, _, checkoutSvc := newTestService(t, world)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "Botiga Nord", "Pasta"); err != nil {
		t.Fatalf("add item: %v", err)
	}

	settlements, err := svc.Checkout(ctx, nil)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(settlements) != 1 || settlements[0].ShopName != "Botiga Nord" {
		t.Fatalf("settlements: %+v", settlements)
	}
	if len(checkoutSvc.calls) != 1 || checkoutSvc.calls[0][0] != "Botiga Nord" {
		t.Fatalf("checkout calls: %+v", checkoutSvc.calls)
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatal("cart should be empty after checkout")
	}
}

func TestCheckoutEmptyCartIsNoop(t *testing.T) {
	svc, _, checkoutSvc := newTestService(t, newStubWorld())

	settlements, err := svc.Checkout(context.Background(), nil)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if settlements != nil {
		t.Fatalf("expected no settlements, got %+v", settlements)
	}
	if len(checkoutSvc.calls) != 0 {
		t.Fatal("checkout service should not be invoked for an empty cart")
	}
}

func TestEmptyDiscardsCart(t *testing.T) {
	world := newStubWorld()
	world.sell(
		pricing.ShopRecord{Name: "Botiga Nord", Model: enums.BusinessModelMaxProfit},
		pricing.ProductRecord{Name: "Pasta", Category: enums.ProductCategoryGeneral},
		5,
	)
	svc, _, _ := newTestService(t, world)

	if _, err := svc.AddItem(context.Background(), "Botiga Nord", "Pasta"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	svc.Empty()
	if svc.TotalPrice() != 0 || len(svc.Snapshot()) != 0 {
		t.Fatal("expected empty cart")
	}
}
