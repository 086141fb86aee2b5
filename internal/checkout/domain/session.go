// Package domain defines the checkout session and its state machine
// vocabulary. The session advances address -> payment -> done and never
// skips or silently re-enters a step.
package domain

import (
	"fmt"

	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

type Step string

const (
	StepAddress Step = "address"
	StepPayment Step = "payment"
	StepDone    Step = "done"
)

type ShippingType string

const (
	ShippingNormal  ShippingType = "Normal"
	ShippingExpress ShippingType = "Express"
)

func ParseShippingType(s string) (ShippingType, error) {
	switch ShippingType(s) {
	case ShippingNormal, ShippingExpress:
		return ShippingType(s), nil
	}
	return "", errs.New(errs.CategoryValidation, fmt.Sprintf("unknown shipping type %q", s))
}

// RemoteOrderRef is the backend's handle for the order in progress. Once a
// session holds one it is never regenerated.
type RemoteOrderRef struct {
	OrderCode string
	Status    string
}

// Session is the checkout in progress. Only the orchestrator mutates it;
// everything else reads snapshots.
type Session struct {
	Step              Step
	SelectedAddressID string
	ShippingType      ShippingType
	Order             *RemoteOrderRef
	PaymentMethod     string
	PaymentRef        string

	// Degraded marks a session whose order code was synthesized locally
	// after resolution failed; such orders need server-side reconciliation
	// and the code must not be presented as backend-confirmed.
	Degraded bool

	PlacedOrderID string
	PlacedStatus  string
}

// OrderCode returns the resolved code, or "" when none is assigned yet.
func (s Session) OrderCode() string {
	if s.Order == nil {
		return ""
	}
	return s.Order.OrderCode
}
