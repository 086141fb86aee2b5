// Package app holds the order confirmation coordinator. It turns a
// completed checkout session into a durable result snapshot and empties the
// cart exactly once; cart housekeeping never takes an order down with it.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	addrdomain "github.com/dwikikusuma/storefront-sync/internal/address/domain"
	cartdomain "github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	checkoutdomain "github.com/dwikikusuma/storefront-sync/internal/checkout/domain"
	"github.com/dwikikusuma/storefront-sync/internal/order/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

// CartKeeper is the slice of the reconciler the coordinator needs.
type CartKeeper interface {
	Cart() cartdomain.Cart
	Clear(ctx context.Context) error
	Remove(ctx context.Context, sku string) error
}

type AddressLookup interface {
	Get(id string) (addrdomain.Address, error)
}

// Coordinator is scoped to one checkout session; construct a new one per
// session.
type Coordinator struct {
	mu        sync.Mutex
	confirmed bool
	result    domain.Result

	cart      CartKeeper
	addresses AddressLookup
	log       *slog.Logger
	now       func() time.Time
}

func NewCoordinator(cart CartKeeper, addresses AddressLookup, log *slog.Logger) *Coordinator {
	return &Coordinator{cart: cart, addresses: addresses, log: log, now: time.Now}
}

// Confirm snapshots the order and clears the cart. The first call does the
// work; every later call returns the same result without touching the cart
// again.
func (c *Coordinator) Confirm(ctx context.Context, session checkoutdomain.Session) (domain.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.confirmed {
		return c.result, nil
	}

	if session.Step != checkoutdomain.StepDone {
		return domain.Result{}, errs.New(errs.CategoryValidation, "order not placed yet")
	}
	code := session.OrderCode()
	if code == "" {
		return domain.Result{}, errs.New(errs.CategoryServer, "confirmed session without an order code")
	}

	cart := c.cart.Cart()
	items := make([]cartdomain.LineItem, len(cart.Items))
	copy(items, cart.Items)

	var addr addrdomain.Address
	if session.SelectedAddressID != "" {
		a, err := c.addresses.Get(session.SelectedAddressID)
		if err != nil {
			c.log.Warn("snapshot without address detail",
				slog.String("address", session.SelectedAddressID), slog.Any("err", err))
		} else {
			addr = a
		}
	}

	c.result = domain.Result{
		OrderID:       session.PlacedOrderID,
		OrderCode:     code,
		Status:        session.PlacedStatus,
		PlacedAt:      c.now(),
		Items:         items,
		ItemsTotal:    cart.Total(),
		Total:         cart.Total(),
		Address:       addr,
		PaymentMethod: session.PaymentMethod,
		PaymentRef:    session.PaymentRef,
		Degraded:      session.Degraded,
	}
	c.confirmed = true

	c.clearCart(ctx, items)

	c.log.Info("order confirmed",
		slog.String("order_code", code),
		slog.Int("items", len(items)),
		slog.Bool("degraded", session.Degraded))
	return c.result, nil
}

// clearCart empties the cart once, falling back to per-item removal when
// the bulk clear fails. Failures are logged and swallowed: the order stands
// and the cart reconciles itself on next load.
func (c *Coordinator) clearCart(ctx context.Context, items []cartdomain.LineItem) {
	err := c.cart.Clear(ctx)
	if err == nil {
		return
	}
	c.log.Warn("cart clear failed, removing items one by one", slog.Any("err", err))

	for _, li := range items {
		if err := c.cart.Remove(ctx, li.SKU); err != nil {
			c.log.Warn("cart item not removed after order",
				slog.String("sku", li.SKU), slog.Any("err", err))
		}
	}
}
