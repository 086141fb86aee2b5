// Package app holds the checkout orchestrator, the state machine between
// the cart and a placed order. Its central invariant: payment confirmation
// and final placement never run without a resolved, non-empty order code.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	addrdomain "github.com/dwikikusuma/storefront-sync/internal/address/domain"
	cartdomain "github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	"github.com/dwikikusuma/storefront-sync/internal/checkout/domain"
	"github.com/dwikikusuma/storefront-sync/internal/checkout/infra/storeapi"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/retry"
)

// Orders is the backend order surface during checkout.
type Orders interface {
	StartCheckout(ctx context.Context) (domain.RemoteOrderRef, error)
	UpdateCheckout(ctx context.Context, dropLocationID string, shipping domain.ShippingType) (domain.RemoteOrderRef, error)
	CurrentOrder(ctx context.Context) (domain.RemoteOrderRef, error)
	PlaceOrder(ctx context.Context, req storeapi.PlaceOrderRequest) (storeapi.PlacedOrder, error)
}

// Payments is the opaque payment collaborator: given an amount, produce a
// reference; given provider proof, produce a confirmation token.
type Payments interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
	ConfirmPayment(ctx context.Context, conf storeapi.PaymentConfirmation) (string, error)
}

// AddressDirectory resolves local addresses and promotes them to the
// backend on first checkout use.
type AddressDirectory interface {
	Get(id string) (addrdomain.Address, error)
	EnsureBackendID(ctx context.Context, id string) (string, error)
}

// CartReader exposes the reconciler's cart read-only; the orchestrator
// never mutates it.
type CartReader interface {
	Cart() cartdomain.Cart
}

// Prefs persists the selections that survive a restart.
type Prefs interface {
	ShippingType() (string, bool)
	SetShippingType(t string)
	SelectedAddress() (string, bool)
	SetSelectedAddress(id string)
}

type Orchestrator struct {
	mu      sync.Mutex
	session domain.Session

	// lastAddressID/lastShipping track the last (address, shipping) pair
	// pushed to update-checkout, so unchanged re-entries skip the write.
	lastAddressID string
	lastShipping  domain.ShippingType

	orders    Orders
	payments  Payments
	addresses AddressDirectory
	cart      CartReader
	prefs     Prefs
	log       *slog.Logger

	retryCfg retry.Config
	currency string
}

func NewOrchestrator(
	orders Orders,
	payments Payments,
	addresses AddressDirectory,
	cart CartReader,
	prefs Prefs,
	retryCfg retry.Config,
	currency string,
	log *slog.Logger,
) *Orchestrator {
	o := &Orchestrator{
		session:   domain.Session{Step: domain.StepAddress},
		orders:    orders,
		payments:  payments,
		addresses: addresses,
		cart:      cart,
		prefs:     prefs,
		log:       log,
		retryCfg:  retryCfg,
		currency:  currency,
	}

	// Restore persisted selections; everything else is session-scoped.
	if id, ok := prefs.SelectedAddress(); ok {
		o.session.SelectedAddressID = id
	}
	if raw, ok := prefs.ShippingType(); ok {
		if st, err := domain.ParseShippingType(raw); err == nil {
			o.session.ShippingType = st
		}
	}
	return o
}

// Session returns a snapshot of the checkout in progress.
func (o *Orchestrator) Session() domain.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.session
	if s.Order != nil {
		ref := *s.Order
		s.Order = &ref
	}
	return s
}

// SelectAddress picks the delivery address. Allowed only before payment.
func (o *Orchestrator) SelectAddress(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step == domain.StepDone {
		return errs.New(errs.CategoryValidation, "checkout already completed")
	}
	if _, err := o.addresses.Get(id); err != nil {
		return err
	}
	o.session.SelectedAddressID = id
	o.prefs.SetSelectedAddress(id)
	return nil
}

func (o *Orchestrator) SelectShipping(t domain.ShippingType) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step == domain.StepDone {
		return errs.New(errs.CategoryValidation, "checkout already completed")
	}
	if _, err := domain.ParseShippingType(string(t)); err != nil {
		return err
	}
	o.session.ShippingType = t
	o.prefs.SetShippingType(string(t))
	return nil
}

// ProceedToPayment moves address -> payment: resolves the order code,
// promotes the address, pushes address + shipping, and requests a payment
// reference for the cart total. Any failure leaves the session at the
// address step with the error attached to the return.
func (o *Orchestrator) ProceedToPayment(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != domain.StepAddress {
		return errs.New(errs.CategoryValidation,
			fmt.Sprintf("cannot proceed to payment from step %s", o.session.Step))
	}
	if o.session.SelectedAddressID == "" {
		return errs.Validation("no address selected", map[string]string{"address": "required"})
	}
	if o.session.ShippingType == "" {
		return errs.Validation("no shipping type selected", map[string]string{"shipping": "required"})
	}
	cart := o.cart.Cart()
	if len(cart.Items) == 0 {
		return errs.New(errs.CategoryValidation, "cart is empty")
	}

	if err := o.resolveOrderCode(ctx); err != nil {
		return err
	}

	backendID, err := o.addresses.EnsureBackendID(ctx, o.session.SelectedAddressID)
	if err != nil {
		return fmt.Errorf("promote address: %w", err)
	}

	if o.session.SelectedAddressID != o.lastAddressID || o.session.ShippingType != o.lastShipping {
		ref, err := o.orders.UpdateCheckout(ctx, backendID, o.session.ShippingType)
		if err != nil {
			return err
		}
		o.adoptOrderRef(ref)
		o.lastAddressID = o.session.SelectedAddressID
		o.lastShipping = o.session.ShippingType
	}

	payRef, err := o.payments.CreateIntent(ctx, cart.Total(), o.currency)
	if err != nil {
		return err
	}
	o.session.PaymentRef = payRef
	o.session.Step = domain.StepPayment

	o.log.Info("checkout entered payment",
		slog.String("order_code", o.session.OrderCode()),
		slog.Bool("degraded", o.session.Degraded))
	return nil
}

// ConfirmPayment moves payment -> done: records the provider confirmation
// and places the order with the resolved code, address, and cart snapshot.
// Failure keeps the session at the payment step; nothing is cleared here.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, method, providerRef string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != domain.StepPayment {
		return errs.New(errs.CategoryValidation,
			fmt.Sprintf("cannot confirm payment from step %s", o.session.Step))
	}
	if providerRef == "" {
		return errs.Validation("missing payment confirmation", map[string]string{"payment": "required"})
	}

	code := o.session.OrderCode()
	if code == "" {
		// resolveOrderCode ran at ProceedToPayment; an empty code here is a
		// bug, not a backend state.
		return errs.New(errs.CategoryServer, "payment confirmation without an order code")
	}

	cart := o.cart.Cart()

	token, err := o.payments.ConfirmPayment(ctx, storeapi.PaymentConfirmation{
		Method:    method,
		Amount:    cart.Total(),
		OrderCode: code,
		RefCode:   providerRef,
		Pidx:      o.session.PaymentRef,
	})
	if err != nil {
		return err
	}

	backendID, err := o.addresses.EnsureBackendID(ctx, o.session.SelectedAddressID)
	if err != nil {
		return fmt.Errorf("promote address: %w", err)
	}

	items := make([]storeapi.PlaceOrderItem, 0, len(cart.Items))
	for _, li := range cart.Items {
		items = append(items, storeapi.PlaceOrderItem{
			ItemID:   li.SKU,
			Quantity: li.Qty,
			Price:    storeapi.Amount(li.UnitAmount),
		})
	}
	placed, err := o.orders.PlaceOrder(ctx, storeapi.PlaceOrderRequest{
		OrderCode:  code,
		AddressID:  backendID,
		Items:      items,
		PaymentRef: token,
		Total:      storeapi.Amount(cart.Total()),
	})
	if err != nil {
		return err
	}

	o.session.PaymentMethod = method
	o.session.PlacedOrderID = placed.OrderID
	o.session.PlacedStatus = placed.Status
	o.session.Step = domain.StepDone

	o.log.Info("order placed",
		slog.String("order_code", code),
		slog.String("order_id", placed.OrderID),
		slog.Bool("degraded", o.session.Degraded))
	return nil
}

// resolveOrderCode implements the resolution ladder: the session's existing
// ref, then start-checkout, then a bounded current-order poll, then a
// synthesized local code with the session flagged degraded. It always
// leaves a non-empty code on the session.
func (o *Orchestrator) resolveOrderCode(ctx context.Context) error {
	if o.session.OrderCode() != "" {
		return nil
	}

	ref, err := o.orders.StartCheckout(ctx)
	if err != nil {
		return err
	}
	if ref.OrderCode != "" {
		o.adoptOrderRef(ref)
		return nil
	}

	pollErr := retry.Do(ctx, o.retryCfg, func(ctx context.Context) error {
		cur, err := o.orders.CurrentOrder(ctx)
		if err != nil {
			return err
		}
		if cur.OrderCode == "" {
			return errs.New(errs.CategoryServer, "order code not assigned yet")
		}
		o.adoptOrderRef(cur)
		return nil
	})
	if pollErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errs.Wrap(pollErr, errs.CategoryNetwork, "order lookup cancelled")
	}
	// A synthesized code cannot paper over a dead session; the caller has
	// to re-authenticate before checkout can continue.
	if errs.Is(pollErr, errs.CategoryAuthentication) {
		return pollErr
	}

	code := "ORD-" + uuid.NewString()
	o.session.Order = &domain.RemoteOrderRef{OrderCode: code, Status: "pending"}
	o.session.Degraded = true
	o.log.Warn("order code unresolved, proceeding with synthesized code",
		slog.String("order_code", code), slog.Any("err", pollErr))
	return nil
}

// adoptOrderRef installs a backend order reference. An assigned code is
// never replaced, with one exception: a real backend code supersedes a
// synthesized one and lifts the degraded flag.
func (o *Orchestrator) adoptOrderRef(ref domain.RemoteOrderRef) {
	if ref.OrderCode == "" {
		return
	}
	if o.session.Order != nil && o.session.Order.OrderCode != "" && !o.session.Degraded {
		if ref.Status != "" {
			o.session.Order.Status = ref.Status
		}
		return
	}
	o.session.Order = &domain.RemoteOrderRef{OrderCode: ref.OrderCode, Status: ref.Status}
	o.session.Degraded = false
}
