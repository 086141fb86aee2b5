// Package domain defines the confirmed-order snapshot. The live cart is
// cleared right after confirmation, so the snapshot carries everything a
// receipt needs.
package domain

import (
	"time"

	addrdomain "github.com/dwikikusuma/storefront-sync/internal/address/domain"
	cartdomain "github.com/dwikikusuma/storefront-sync/internal/cart/domain"
)

type Result struct {
	OrderID   string
	OrderCode string
	Status    string
	PlacedAt  time.Time

	Items      []cartdomain.LineItem
	ItemsTotal int64
	// ShippingFee is zero until the backend starts echoing fees; Total is
	// always ItemsTotal + ShippingFee.
	ShippingFee int64
	Total       int64

	Address       addrdomain.Address
	PaymentMethod string
	PaymentRef    string

	// Degraded carries the session flag: the order code was synthesized
	// locally and needs server-side reconciliation.
	Degraded bool
}
