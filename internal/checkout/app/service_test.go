package app_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	addrdomain "github.com/dwikikusuma/storefront-sync/internal/address/domain"
	cartdomain "github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	"github.com/dwikikusuma/storefront-sync/internal/checkout/app"
	"github.com/dwikikusuma/storefront-sync/internal/checkout/domain"
	"github.com/dwikikusuma/storefront-sync/internal/checkout/infra/storeapi"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/retry"
)

type fakeOrders struct {
	startRef  domain.RemoteOrderRef
	startErr  error
	starts    int
	updates   int
	updatedID string
	updatedST domain.ShippingType

	currentRefs []domain.RemoteOrderRef
	currentErr  error
	currents    int

	placed    []storeapi.PlaceOrderRequest
	placeErr  error
	placeResp storeapi.PlacedOrder
}

func (f *fakeOrders) StartCheckout(context.Context) (domain.RemoteOrderRef, error) {
	f.starts++
	return f.startRef, f.startErr
}

func (f *fakeOrders) UpdateCheckout(_ context.Context, dropLocationID string, st domain.ShippingType) (domain.RemoteOrderRef, error) {
	f.updates++
	f.updatedID = dropLocationID
	f.updatedST = st
	return domain.RemoteOrderRef{}, nil
}

func (f *fakeOrders) CurrentOrder(context.Context) (domain.RemoteOrderRef, error) {
	f.currents++
	if f.currentErr != nil {
		return domain.RemoteOrderRef{}, f.currentErr
	}
	if len(f.currentRefs) == 0 {
		return domain.RemoteOrderRef{}, nil
	}
	ref := f.currentRefs[0]
	if len(f.currentRefs) > 1 {
		f.currentRefs = f.currentRefs[1:]
	}
	return ref, nil
}

func (f *fakeOrders) PlaceOrder(_ context.Context, req storeapi.PlaceOrderRequest) (storeapi.PlacedOrder, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return storeapi.PlacedOrder{}, f.placeErr
	}
	if f.placeResp.OrderID == "" {
		return storeapi.PlacedOrder{OrderID: "901", Status: "placed"}, nil
	}
	return f.placeResp, nil
}

type fakePayments struct {
	intents   int
	intentErr error
	confirms  []storeapi.PaymentConfirmation
	confErr   error
}

func (f *fakePayments) CreateIntent(_ context.Context, amount int64, currency string) (string, error) {
	f.intents++
	if f.intentErr != nil {
		return "", f.intentErr
	}
	return "pi_secret", nil
}

func (f *fakePayments) ConfirmPayment(_ context.Context, conf storeapi.PaymentConfirmation) (string, error) {
	f.confirms = append(f.confirms, conf)
	if f.confErr != nil {
		return "", f.confErr
	}
	return "pay_token", nil
}

type fakeAddresses struct {
	addrs      map[string]addrdomain.Address
	promotions int
}

func (f *fakeAddresses) Get(id string) (addrdomain.Address, error) {
	a, ok := f.addrs[id]
	if !ok {
		return addrdomain.Address{}, errs.New(errs.CategoryValidation, "address not found")
	}
	return a, nil
}

func (f *fakeAddresses) EnsureBackendID(_ context.Context, id string) (string, error) {
	a, ok := f.addrs[id]
	if !ok {
		return "", errs.New(errs.CategoryValidation, "address not found")
	}
	if a.BackendID == "" {
		f.promotions++
		a.BackendID = "backend-1"
		f.addrs[id] = a
	}
	return a.BackendID, nil
}

type fakeCart struct{ items []cartdomain.LineItem }

func (f *fakeCart) Cart() cartdomain.Cart {
	return cartdomain.Cart{Mode: cartdomain.ModeAuthenticated, Items: f.items}
}

type fakePrefs struct{ vals map[string]string }

func newFakePrefs() *fakePrefs { return &fakePrefs{vals: map[string]string{}} }

func (f *fakePrefs) ShippingType() (string, bool) {
	v, ok := f.vals["shipping"]
	return v, ok
}
func (f *fakePrefs) SetShippingType(t string) { f.vals["shipping"] = t }
func (f *fakePrefs) SelectedAddress() (string, bool) {
	v, ok := f.vals["address"]
	return v, ok
}
func (f *fakePrefs) SetSelectedAddress(id string) { f.vals["address"] = id }

type fixture struct {
	orders    *fakeOrders
	payments  *fakePayments
	addresses *fakeAddresses
	prefs     *fakePrefs
	orch      *app.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:   &fakeOrders{startRef: domain.RemoteOrderRef{OrderCode: "OC-100", Status: "open"}},
		payments: &fakePayments{},
		addresses: &fakeAddresses{addrs: map[string]addrdomain.Address{
			"addr_local_1": {ID: "addr_local_1", FullName: "Dana Wijaya", Phone: "555-0101", Line1: "12 Harbor St", City: "Springfield", District: "Central"},
		}},
		prefs: newFakePrefs(),
	}
	cfg := retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, BackoffFactor: 2, Retryable: errs.Retryable}
	cart := &fakeCart{items: []cartdomain.LineItem{
		{SKU: "42", Title: "Earbuds", UnitAmount: 12999, Qty: 2},
	}}
	f.orch = app.NewOrchestrator(f.orders, f.payments, f.addresses, cart, f.prefs, cfg, "USD", slog.Default())
	return f
}

func selectBoth(t *testing.T, f *fixture) {
	t.Helper()
	if err := f.orch.SelectAddress("addr_local_1"); err != nil {
		t.Fatalf("SelectAddress failed: %v", err)
	}
	if err := f.orch.SelectShipping(domain.ShippingExpress); err != nil {
		t.Fatalf("SelectShipping failed: %v", err)
	}
}

func TestProceedRequiresSelections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.orch.ProceedToPayment(ctx)
	if !errs.Is(err, errs.CategoryValidation) || errs.FieldsOf(err)["address"] == "" {
		t.Fatalf("expected address validation error, got %v", err)
	}

	if err := f.orch.SelectAddress("addr_local_1"); err != nil {
		t.Fatalf("SelectAddress failed: %v", err)
	}
	err = f.orch.ProceedToPayment(ctx)
	if !errs.Is(err, errs.CategoryValidation) || errs.FieldsOf(err)["shipping"] == "" {
		t.Fatalf("expected shipping validation error, got %v", err)
	}
	if got := f.orch.Session().Step; got != domain.StepAddress {
		t.Fatalf("failed transition must not advance, step %s", got)
	}
}

func TestProceedHappyPath(t *testing.T) {
	f := newFixture(t)
	selectBoth(t, f)

	if err := f.orch.ProceedToPayment(context.Background()); err != nil {
		t.Fatalf("ProceedToPayment failed: %v", err)
	}

	s := f.orch.Session()
	if s.Step != domain.StepPayment {
		t.Fatalf("expected payment step, got %s", s.Step)
	}
	if s.OrderCode() != "OC-100" {
		t.Fatalf("expected order code OC-100, got %q", s.OrderCode())
	}
	if s.PaymentRef != "pi_secret" {
		t.Fatalf("expected payment reference, got %q", s.PaymentRef)
	}
	if s.Degraded {
		t.Fatal("resolved session must not be degraded")
	}
	if f.orders.updatedID != "backend-1" || f.orders.updatedST != domain.ShippingExpress {
		t.Fatalf("update-checkout got %q/%q", f.orders.updatedID, f.orders.updatedST)
	}
	if f.addresses.promotions != 1 {
		t.Fatalf("expected exactly one address promotion, got %d", f.addresses.promotions)
	}
}

func TestProceedSkipsUnchangedUpdate(t *testing.T) {
	f := newFixture(t)
	selectBoth(t, f)
	ctx := context.Background()

	// First attempt fails after the update, at the payment intent.
	f.payments.intentErr = errs.New(errs.CategoryNetwork, "offline")
	if err := f.orch.ProceedToPayment(ctx); !errs.Is(err, errs.CategoryNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if got := f.orch.Session().Step; got != domain.StepAddress {
		t.Fatalf("failure must return to address step, got %s", got)
	}

	f.payments.intentErr = nil
	if err := f.orch.ProceedToPayment(ctx); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if f.orders.starts != 1 {
		t.Fatalf("order must not be re-initialized, got %d starts", f.orders.starts)
	}
	if f.orders.updates != 1 {
		t.Fatalf("unchanged selections must not re-push, got %d updates", f.orders.updates)
	}
}

func TestProceedRepushesChangedSelections(t *testing.T) {
	f := newFixture(t)
	selectBoth(t, f)
	ctx := context.Background()

	f.payments.intentErr = errs.New(errs.CategoryNetwork, "offline")
	f.orch.ProceedToPayment(ctx)
	f.payments.intentErr = nil

	if err := f.orch.SelectShipping(domain.ShippingNormal); err != nil {
		t.Fatalf("SelectShipping failed: %v", err)
	}
	if err := f.orch.ProceedToPayment(ctx); err != nil {
		t.Fatalf("ProceedToPayment failed: %v", err)
	}
	if f.orders.updates != 2 {
		t.Fatalf("changed shipping must re-push, got %d updates", f.orders.updates)
	}
	if f.orders.updatedST != domain.ShippingNormal {
		t.Fatalf("expected Normal pushed, got %q", f.orders.updatedST)
	}
}

func TestOrderCodeResolvedByPolling(t *testing.T) {
	f := newFixture(t)
	f.orders.startRef = domain.RemoteOrderRef{}
	f.orders.currentRefs = []domain.RemoteOrderRef{
		{}, {}, {OrderCode: "OC-late", Status: "open"},
	}
	selectBoth(t, f)

	if err := f.orch.ProceedToPayment(context.Background()); err != nil {
		t.Fatalf("ProceedToPayment failed: %v", err)
	}

	s := f.orch.Session()
	if s.OrderCode() != "OC-late" {
		t.Fatalf("expected polled code, got %q", s.OrderCode())
	}
	if s.Degraded {
		t.Fatal("polled resolution must not degrade the session")
	}
	if f.orders.currents != 3 {
		t.Fatalf("expected 3 poll attempts, got %d", f.orders.currents)
	}
}

func TestOrderCodeFallsBackSynthesized(t *testing.T) {
	f := newFixture(t)
	f.orders.startRef = domain.RemoteOrderRef{}
	selectBoth(t, f)

	if err := f.orch.ProceedToPayment(context.Background()); err != nil {
		t.Fatalf("checkout must not block on resolution: %v", err)
	}

	s := f.orch.Session()
	if !strings.HasPrefix(s.OrderCode(), "ORD-") {
		t.Fatalf("expected synthesized code, got %q", s.OrderCode())
	}
	if !s.Degraded {
		t.Fatal("synthesized code must mark the session degraded")
	}
	if s.Step != domain.StepPayment {
		t.Fatalf("degraded session still proceeds, got step %s", s.Step)
	}
	if f.orders.currents > 3 {
		t.Fatalf("poll must be bounded at 3, got %d", f.orders.currents)
	}
}

func TestConfirmPaymentPlacesOrder(t *testing.T) {
	f := newFixture(t)
	selectBoth(t, f)
	ctx := context.Background()

	if err := f.orch.ProceedToPayment(ctx); err != nil {
		t.Fatalf("ProceedToPayment failed: %v", err)
	}
	if err := f.orch.ConfirmPayment(ctx, "card", "provider-ref-9"); err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}

	s := f.orch.Session()
	if s.Step != domain.StepDone {
		t.Fatalf("expected done step, got %s", s.Step)
	}
	if s.PlacedOrderID != "901" {
		t.Fatalf("expected placed order id, got %q", s.PlacedOrderID)
	}

	if len(f.payments.confirms) != 1 {
		t.Fatalf("expected 1 payment confirmation, got %d", len(f.payments.confirms))
	}
	conf := f.payments.confirms[0]
	if conf.OrderCode == "" || conf.OrderCode != "OC-100" {
		t.Fatalf("payment confirmation with wrong order code: %q", conf.OrderCode)
	}
	if conf.Amount != 25998 {
		t.Fatalf("expected cart total 25998, got %d", conf.Amount)
	}

	if len(f.orders.placed) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(f.orders.placed))
	}
	req := f.orders.placed[0]
	if req.OrderCode != "OC-100" || req.AddressID != "backend-1" {
		t.Fatalf("unexpected placement request: %+v", req)
	}
	if len(req.Items) != 1 || req.Items[0].Price != "129.99" || req.Total != "259.98" {
		t.Fatalf("unexpected placement amounts: %+v", req)
	}

	if f.addresses.promotions != 1 {
		t.Fatalf("address must be promoted exactly once, got %d", f.addresses.promotions)
	}
}

func TestConfirmPaymentFailureStaysAtPayment(t *testing.T) {
	f := newFixture(t)
	selectBoth(t, f)
	ctx := context.Background()

	if err := f.orch.ProceedToPayment(ctx); err != nil {
		t.Fatalf("ProceedToPayment failed: %v", err)
	}

	f.orders.placeErr = errs.New(errs.CategoryServer, "order rejected")
	err := f.orch.ConfirmPayment(ctx, "card", "provider-ref-9")
	if !errs.Is(err, errs.CategoryServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if got := f.orch.Session().Step; got != domain.StepPayment {
		t.Fatalf("placement failure must keep payment step, got %s", got)
	}

	f.orders.placeErr = nil
	if err := f.orch.ConfirmPayment(ctx, "card", "provider-ref-9"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestConfirmPaymentWrongStep(t *testing.T) {
	f := newFixture(t)

	err := f.orch.ConfirmPayment(context.Background(), "card", "ref")
	if !errs.Is(err, errs.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSelectionsPersistToPrefs(t *testing.T) {
	f := newFixture(t)
	selectBoth(t, f)

	if f.prefs.vals["address"] != "addr_local_1" || f.prefs.vals["shipping"] != "Express" {
		t.Fatalf("selections not persisted: %v", f.prefs.vals)
	}

	// A fresh orchestrator restores them.
	cfg := retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}
	restored := app.NewOrchestrator(f.orders, f.payments, f.addresses, &fakeCart{}, f.prefs, cfg, "USD", slog.Default())
	s := restored.Session()
	if s.SelectedAddressID != "addr_local_1" || s.ShippingType != domain.ShippingExpress {
		t.Fatalf("restore failed: %+v", s)
	}
}

func TestOrderCodePollSurfacesAuthFailure(t *testing.T) {
	f := newFixture(t)
	f.orders.startRef = domain.RemoteOrderRef{}
	f.orders.currentErr = errs.New(errs.CategoryAuthentication, "session expired")
	selectBoth(t, f)

	err := f.orch.ProceedToPayment(context.Background())
	if !errs.Is(err, errs.CategoryAuthentication) {
		t.Fatalf("expected the auth failure to surface, got %v", err)
	}

	s := f.orch.Session()
	if s.Step != domain.StepAddress {
		t.Fatalf("failed resolution must not advance, step %s", s.Step)
	}
	if s.Degraded || s.OrderCode() != "" {
		t.Fatalf("auth failure must not synthesize a code, got %q degraded=%v", s.OrderCode(), s.Degraded)
	}
	if f.orders.currents != 1 {
		t.Fatalf("auth failures are not worth re-polling, got %d attempts", f.orders.currents)
	}
	if f.payments.intents != 0 {
		t.Fatal("no payment intent may be requested without an order code")
	}
}
