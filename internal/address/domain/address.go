// Package domain defines the address book entry. Addresses are created with
// a local id and acquire a backend id lazily, the first time one is needed
// for checkout.
package domain

import (
	"strings"

	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

type Address struct {
	ID        string
	BackendID string
	FullName  string
	Phone     string
	Line1     string
	Line2     string
	City      string
	District  string
	Zip       string
	Country   string
	Email     string
	IsDefault bool
}

// Promoted reports whether the address is known to the backend.
func (a Address) Promoted() bool {
	return a.BackendID != ""
}

// FullAddress composes the single-line form the backend stores.
func (a Address) FullAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Line1, a.Line2, a.Zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// Validate checks the fields the backend rejects when missing. Detail is
// field-keyed so a form can re-prompt.
func (a Address) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(a.FullName) == "" {
		fields["full_name"] = "required"
	}
	if strings.TrimSpace(a.Phone) == "" {
		fields["phone"] = "required"
	}
	if strings.TrimSpace(a.Line1) == "" {
		fields["line1"] = "required"
	}
	if strings.TrimSpace(a.City) == "" {
		fields["city"] = "required"
	}
	if strings.TrimSpace(a.District) == "" {
		fields["district"] = "required"
	}
	if len(fields) > 0 {
		return errs.Validation("address incomplete", fields)
	}
	return nil
}
