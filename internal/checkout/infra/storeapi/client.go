// Package storeapi is the client over the backend order and payment
// endpoints used during checkout. Order codes surface in several places
// (start-checkout, update-checkout, the current-order lookup); the client
// extracts them uniformly and leaves resolution policy to the orchestrator.
package storeapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dwikikusuma/storefront-sync/internal/checkout/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/httpx"
)

const (
	startCheckoutPath  = "/v1/orders/start-checkout/"
	updateCheckoutPath = "/v1/orders/update-checkout/"
	currentOrderPath   = "/v1/orders/current-order/"
	placeOrderPath     = "/v1/orders/place-order/"
	createIntentPath   = "/v1/payments/create-intent/"
	orderPaymentPath   = "/v1/payments/order-payment/"
)

type Client struct {
	c *httpx.Client
}

func NewClient(c *httpx.Client) *Client {
	return &Client{c: c}
}

// orderEnvelope covers the shapes an order reference arrives in: flat
// fields, or nested under "order".
type orderEnvelope struct {
	OrderCode string `json:"order_code"`
	Status    string `json:"status"`
	Order     *struct {
		OrderCode string `json:"order_code"`
		Status    string `json:"status"`
	} `json:"order"`
}

func (e orderEnvelope) ref() domain.RemoteOrderRef {
	if e.Order != nil && e.Order.OrderCode != "" {
		return domain.RemoteOrderRef{OrderCode: e.Order.OrderCode, Status: e.Order.Status}
	}
	return domain.RemoteOrderRef{OrderCode: e.OrderCode, Status: e.Status}
}

// StartCheckout initializes the remote order. The returned reference may
// carry an empty order code; the backend assigns one eventually.
func (c *Client) StartCheckout(ctx context.Context) (domain.RemoteOrderRef, error) {
	var resp orderEnvelope
	if err := c.c.Post(ctx, startCheckoutPath, map[string]any{}, &resp); err != nil {
		return domain.RemoteOrderRef{}, fmt.Errorf("start checkout: %w", err)
	}
	return resp.ref(), nil
}

// UpdateCheckout pushes the drop location and shipping type.
func (c *Client) UpdateCheckout(ctx context.Context, dropLocationID string, shipping domain.ShippingType) (domain.RemoteOrderRef, error) {
	body := map[string]any{
		"drop_location_id": dropLocationID,
		"shipping":         string(shipping),
	}
	var resp orderEnvelope
	if err := c.c.Post(ctx, updateCheckoutPath, body, &resp); err != nil {
		return domain.RemoteOrderRef{}, fmt.Errorf("update checkout: %w", err)
	}
	return resp.ref(), nil
}

// CurrentOrder is the fallback order-code lookup.
func (c *Client) CurrentOrder(ctx context.Context) (domain.RemoteOrderRef, error) {
	var resp orderEnvelope
	if err := c.c.Get(ctx, currentOrderPath, &resp); err != nil {
		return domain.RemoteOrderRef{}, fmt.Errorf("current order: %w", err)
	}
	return resp.ref(), nil
}

// PlaceOrderItem is one cart line as the placement endpoint wants it.
type PlaceOrderItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type PlaceOrderRequest struct {
	OrderCode  string           `json:"order_code"`
	AddressID  string           `json:"address"`
	Items      []PlaceOrderItem `json:"items"`
	PaymentRef string           `json:"payment_ref"`
	Total      string           `json:"total"`
}

type PlacedOrder struct {
	OrderID string
	Status  string
}

// PlaceOrder finalizes the order.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlacedOrder, error) {
	var resp struct {
		OrderID json.RawMessage `json:"order_id"`
		ID      json.RawMessage `json:"id"`
		Status  string          `json:"status"`
	}
	if err := c.c.Post(ctx, placeOrderPath, req, &resp); err != nil {
		return PlacedOrder{}, fmt.Errorf("place order: %w", err)
	}

	id := scalarID(resp.OrderID)
	if id == "" {
		id = scalarID(resp.ID)
	}
	if id == "" {
		return PlacedOrder{}, errs.New(errs.CategoryServer, "order placed without an id")
	}
	status := resp.Status
	if status == "" {
		status = "placed"
	}
	return PlacedOrder{OrderID: id, Status: status}, nil
}

// CreateIntent asks the payment provider for a payment reference covering
// amount minor units.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	body := map[string]any{
		"amount":   amount,
		"currency": currency,
	}
	var resp struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := c.c.Post(ctx, createIntentPath, body, &resp); err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	if resp.ClientSecret == "" {
		return "", errs.New(errs.CategoryPayment, "payment intent missing client secret")
	}
	return resp.ClientSecret, nil
}

// PaymentConfirmation is the provider-side proof of payment.
type PaymentConfirmation struct {
	Method    string
	Amount    int64
	OrderCode string
	RefCode   string
	Pidx      string
}

// ConfirmPayment records the provider confirmation against the order and
// returns the backend's confirmation token.
func (c *Client) ConfirmPayment(ctx context.Context, conf PaymentConfirmation) (string, error) {
	body := map[string]any{
		"payment_method": conf.Method,
		"amount":         conf.Amount,
		"order_code":     conf.OrderCode,
		"ref_code":       conf.RefCode,
		"pidx":           conf.Pidx,
	}
	var resp struct {
		Token  string `json:"token"`
		Detail string `json:"detail"`
	}
	if err := c.c.Post(ctx, orderPaymentPath, body, &resp); err != nil {
		return "", fmt.Errorf("confirm payment: %w", err)
	}
	if resp.Token != "" {
		return resp.Token, nil
	}
	if resp.Detail != "" {
		return resp.Detail, nil
	}
	return "", errs.New(errs.CategoryPayment, "payment confirmation missing token")
}

// Amount renders minor units in the decimal form the backend expects.
func Amount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func scalarID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return ""
}
